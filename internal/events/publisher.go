package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

// SubjectImportCompleted carries the per-run import summary
const SubjectImportCompleted = "catalog.import.completed"

// Publisher emits catalog events over NATS
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// ImportCompletedEvent is the payload of catalog.import.completed
type ImportCompletedEvent struct {
	EventID    string    `json:"eventId"`
	TenantID   string    `json:"tenantId"`
	SourceFile string    `json:"sourceFile,omitempty"`
	Format     string    `json:"format,omitempty"`
	Total      int       `json:"total"`
	Created    int       `json:"created"`
	Failed     int       `json:"failed"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewPublisher connects to NATS. The caller decides whether a missing broker
// is fatal; events are an audit convenience, not part of the import contract.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("catalogo-indumentaria"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "events-publisher"),
	}, nil
}

// Close drains and closes the NATS connection
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}

// PublishImportCompleted emits a summary event after a bulk import run
func (p *Publisher) PublishImportCompleted(ctx context.Context, tenantID, sourceFile, format string, result *models.ImportBatchResult) {
	event := ImportCompletedEvent{
		EventID:    uuid.New().String(),
		TenantID:   tenantID,
		SourceFile: sourceFile,
		Format:     format,
		Total:      result.Total,
		Created:    result.Created,
		Failed:     len(result.Errors),
		OccurredAt: time.Now().UTC(),
	}
	p.publish(SubjectImportCompleted, event, logrus.Fields{
		"tenant_id": tenantID,
		"created":   result.Created,
		"failed":    len(result.Errors),
	})
}

// publish serializes and sends one event, logging failures without
// propagating them: event emission never blocks or fails the main flow.
func (p *Publisher) publish(subject string, event interface{}, fields logrus.Fields) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithFields(fields).WithError(err).Error("Failed to serialize event")
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithFields(fields).WithError(err).Error("Failed to publish event")
		return
	}
	p.logger.WithFields(fields).WithField("subject", subject).Debug("Event published")
}
