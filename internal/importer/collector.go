package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

// logRingCap bounds the local fallback history of import log records
const logRingCap = 50

// friendlyTemplates render a merchant-facing message per error code.
// Placeholders: {row}, {field}, {value}, {fix}.
var friendlyTemplates = map[string]string{
	models.ErrCodeInvalidPrice:      "Fila {row}: el precio \"{value}\" no es válido. {fix}",
	models.ErrCodeInvalidStock:      "Fila {row}: el stock \"{value}\" no es un número entero válido. {fix}",
	models.ErrCodeEmptyName:         "Fila {row}: falta el nombre del producto.",
	models.ErrCodeEmptyCategory:     "Fila {row}: falta la categoría del producto.",
	models.ErrCodeInvalidImageURL:   "Fila {row}: la imagen \"{value}\" no es una URL válida, se usará una imagen por defecto.",
	models.ErrCodeUnsupportedFormat: "El formato del archivo no es compatible. Usá CSV, JSON o texto plano.",
	models.ErrCodeParseError:        "Fila {row}: no se pudo interpretar la línea. Probá el formato \"nombre | categoria: X | precio: 100 | stock: 5\".",
	models.ErrCodeNetworkError:      "Hubo un problema de conexión al guardar los datos. Reintentá en unos segundos.",
	models.ErrCodeTimeout:           "La operación tardó demasiado y fue cancelada. Reintentá con un lote más chico.",
	models.ErrCodeDuplicate:         "Hay productos repetidos con el nombre \"{value}\". Revisá las filas antes de importar.",
	models.ErrCodePlanLimit:         "Tu plan no permite agregar más productos. Actualizá el plan o reducí el lote.",
}

// LogStore persists import log snapshots. The repository layer implements it;
// the collector falls back to its in-memory ring when persistence fails.
type LogStore interface {
	SaveImportLog(ctx context.Context, record *models.ImportLogRecord) error
}

// ErrorMeta carries the optional context of one diagnostic
type ErrorMeta struct {
	Row           *int
	Field         string
	Value         interface{}
	FixSuggestion string
	AutoFixable   bool
}

// Collector aggregates structured import diagnostics across pipeline stages.
// One instance is created per request so state never leaks across batches.
type Collector struct {
	mu     sync.Mutex
	errors []models.ImportError
	ring   []models.ImportLogRecord
	store  LogStore
	logger *logrus.Entry

	// retry tuning, overridable in tests
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewCollector builds a collector. store may be nil, in which case log
// snapshots only live in the in-memory ring.
func NewCollector(store LogStore, logger *logrus.Entry) *Collector {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Collector{
		store:       store,
		logger:      logger.WithField("component", "import-collector"),
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Log records one diagnostic and returns it with the friendly message filled in
func (c *Collector) Log(severity models.ImportSeverity, code, message string, meta ErrorMeta) models.ImportError {
	entry := models.ImportError{
		Severity:        severity,
		Code:            code,
		Message:         message,
		FriendlyMessage: renderFriendly(code, message, meta),
		Row:             meta.Row,
		Field:           meta.Field,
		Value:           meta.Value,
		FixSuggestion:   meta.FixSuggestion,
		AutoFixable:     meta.AutoFixable,
		Timestamp:       time.Now().UTC(),
	}

	c.mu.Lock()
	c.errors = append(c.errors, entry)
	c.mu.Unlock()

	fields := logrus.Fields{"code": code, "severity": severity}
	if meta.Row != nil {
		fields["row"] = *meta.Row
	}
	if meta.Field != "" {
		fields["field"] = meta.Field
	}
	switch severity {
	case models.SeverityCritical, models.SeverityError:
		c.logger.WithFields(fields).Error(message)
	case models.SeverityWarning:
		c.logger.WithFields(fields).Warn(message)
	default:
		c.logger.WithFields(fields).Info(message)
	}
	return entry
}

// GetAll returns a copy of every recorded diagnostic
func (c *Collector) GetAll() []models.ImportError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ImportError, len(c.errors))
	copy(out, c.errors)
	return out
}

// GetBySeverity returns the diagnostics of one severity level
func (c *Collector) GetBySeverity(severity models.ImportSeverity) []models.ImportError {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.ImportError
	for _, e := range c.errors {
		if e.Severity == severity {
			out = append(out, e)
		}
	}
	return out
}

// GetAutoFixable returns the diagnostics flagged as repairable
func (c *Collector) GetAutoFixable() []models.ImportError {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.ImportError
	for _, e := range c.errors {
		if e.AutoFixable {
			out = append(out, e)
		}
	}
	return out
}

// Clear discards all recorded diagnostics
func (c *Collector) Clear() {
	c.mu.Lock()
	c.errors = nil
	c.mu.Unlock()
}

// WithRetry runs fn up to MaxAttempts times with linearly increasing backoff
// (attempt * BaseDelay). After exhausting attempts it records a NETWORK_ERROR
// and returns the last failure.
func (c *Collector) WithRetry(ctx context.Context, label string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		c.logger.WithFields(logrus.Fields{
			"operation": label,
			"attempt":   attempt,
			"error":     lastErr.Error(),
		}).Warn("Operation failed, will retry")

		if attempt == c.MaxAttempts {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * c.BaseDelay):
		case <-ctx.Done():
			c.Log(models.SeverityError, models.ErrCodeTimeout,
				fmt.Sprintf("%s cancelled: %v", label, ctx.Err()), ErrorMeta{})
			return ctx.Err()
		}
	}

	c.Log(models.SeverityError, models.ErrCodeNetworkError,
		fmt.Sprintf("%s failed after %d attempts: %v", label, c.MaxAttempts, lastErr), ErrorMeta{})
	return lastErr
}

// LogContext is the caller-supplied context for a log snapshot
type LogContext struct {
	TenantID   string
	SourceFile string
	Format     string
	TotalRows  int
	Created    int
	Failed     int
}

// GenerateLog snapshots the current diagnostics into a log record
func (c *Collector) GenerateLog(lc LogContext) models.ImportLogRecord {
	return models.ImportLogRecord{
		ID:         uuid.New().String(),
		TenantID:   lc.TenantID,
		SourceFile: lc.SourceFile,
		Format:     lc.Format,
		TotalRows:  lc.TotalRows,
		Created:    lc.Created,
		Failed:     lc.Failed,
		Errors:     c.GetAll(),
		CreatedAt:  time.Now().UTC(),
	}
}

// SaveLog persists a snapshot best-effort. When the external store is absent
// or fails, the record is kept in a local ring capped at the most recent
// entries; saving never fails the import itself.
func (c *Collector) SaveLog(ctx context.Context, record models.ImportLogRecord) {
	if c.store != nil {
		err := c.store.SaveImportLog(ctx, &record)
		if err == nil {
			return
		}
		c.logger.WithError(err).Warn("Failed to persist import log, keeping local copy")
	}

	c.mu.Lock()
	c.ring = append(c.ring, record)
	if len(c.ring) > logRingCap {
		c.ring = c.ring[len(c.ring)-logRingCap:]
	}
	c.mu.Unlock()
}

// LocalLogs returns the locally retained snapshots, newest last
func (c *Collector) LocalLogs() []models.ImportLogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ImportLogRecord, len(c.ring))
	copy(out, c.ring)
	return out
}

func renderFriendly(code, message string, meta ErrorMeta) string {
	template, ok := friendlyTemplates[code]
	if !ok {
		return message
	}
	out := template
	if meta.Row != nil {
		out = strings.ReplaceAll(out, "{row}", fmt.Sprintf("%d", *meta.Row))
	} else {
		out = strings.ReplaceAll(out, "Fila {row}: ", "")
	}
	out = strings.ReplaceAll(out, "{field}", meta.Field)
	out = strings.ReplaceAll(out, "{value}", fmt.Sprintf("%v", meta.Value))
	if meta.FixSuggestion != "" {
		out = strings.ReplaceAll(out, "{fix}", meta.FixSuggestion)
	} else {
		out = strings.TrimSpace(strings.ReplaceAll(out, "{fix}", ""))
	}
	return out
}
