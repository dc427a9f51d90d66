package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/events"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/importer"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/middleware"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

const maxUploadBytes = 10 << 20

// CatalogStore is everything the import endpoints need from persistence
type CatalogStore interface {
	importer.CatalogStore
	importer.LogStore
	RecentImportLogs(ctx context.Context, tenantID string, limit int) ([]models.ImportLog, error)
}

type ImportHandler struct {
	store  CatalogStore
	plans  importer.PlanChecker
	events *events.Publisher
	logger *logrus.Logger
}

// NewImportHandler wires the import endpoints. plans and eventsPublisher may
// be nil when billing or NATS are not deployed.
func NewImportHandler(store CatalogStore, plans importer.PlanChecker, eventsPublisher *events.Publisher, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{store: store, plans: plans, events: eventsPublisher, logger: logger}
}

// pipeline builds the per-request collaborators. One collector per request
// keeps diagnostics and the category cache from leaking across batches.
func (h *ImportHandler) pipeline() (*importer.Collector, *importer.Parser, *importer.Service) {
	entry := logrus.NewEntry(h.logger)
	col := importer.NewCollector(h.store, entry)
	return col, importer.NewParser(col), importer.NewService(h.store, h.plans, entry)
}

// ParseText converts pasted free text into candidate product records
// @Summary Parse product text
// @Description Convert pasted free text or a JSON document into candidate product records without persisting anything
// @Tags Import
// @Accept json
// @Produce json
// @Param request body models.ParseTextRequest true "Raw text and optional format"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /products/parse [post]
func (h *ImportHandler) ParseText(c *gin.Context) {
	var req models.ParseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", sanitizeBindingError(err))
		return
	}

	format := models.ImportFormatText
	if strings.EqualFold(req.Format, "json") {
		format = models.ImportFormatJSON
	}

	col, parser, _ := h.pipeline()
	products := parser.Parse(req.Text, format)
	importer.ReportDuplicates(products, col)

	if len(products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    models.ErrCodeParseError,
				"message": "No se pudo interpretar ningún producto. Probá el formato \"nombre | categoria: X | precio: 100 | stock: 5\", una línea por producto.",
			},
			"diagnostics": col.GetAll(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"products": products,
			"count":    len(products),
		},
		"warnings": col.GetBySeverity(models.SeverityWarning),
		"errors":   col.GetBySeverity(models.SeverityError),
	})
}

// BulkCreateProducts persists a batch of already-structured products
// @Summary Bulk create products
// @Description Persist a batch of products with per-record error accounting
// @Tags Import
// @Accept json
// @Produce json
// @Param request body models.BulkCreateProductsRequest true "Batch of products"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /products/bulk [post]
func (h *ImportHandler) BulkCreateProducts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	var req models.BulkCreateProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", sanitizeBindingError(err))
		return
	}

	records := make([]models.ParsedProduct, len(req.Products))
	for i, input := range req.Products {
		records[i] = inputToRecord(input)
	}

	col, _, service := h.pipeline()
	importer.ReportDuplicates(records, col)

	result, err := service.ImportBatch(c.Request.Context(), tenantID, userID, records, col)
	if err != nil {
		h.respondImportFailure(c, err)
		return
	}

	h.finishImport(c, col, tenantID, "", "bulk", result)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     result,
		"warnings": col.GetBySeverity(models.SeverityWarning),
	})
}

// ImportFile parses an uploaded file and persists the resulting batch
// @Summary Import products from a file
// @Description Validate, parse and persist a CSV, XLSX, JSON or plain text upload
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Import file"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /products/import [post]
func (h *ImportHandler) ImportFile(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)

	meta, content, ok := h.readUpload(c)
	if !ok {
		return
	}

	col, parser, service := h.pipeline()

	check := importer.CheckFile(meta, content, importer.DefaultFileCheckOptions())
	if !check.IsValid {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":  false,
			"error":    gin.H{"code": models.ErrCodeUnsupportedFormat, "message": "El archivo no pasó la validación"},
			"details":  check.Errors,
			"warnings": check.Warnings,
		})
		return
	}

	products := h.parseByExtension(parser, meta, content)
	if len(products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":     false,
			"error":       gin.H{"code": models.ErrCodeParseError, "message": "El archivo no contiene productos válidos"},
			"diagnostics": col.GetAll(),
		})
		return
	}
	importer.ReportDuplicates(products, col)

	result, err := service.ImportBatch(c.Request.Context(), tenantID, userID, products, col)
	if err != nil {
		h.respondImportFailure(c, err)
		return
	}

	h.finishImport(c, col, tenantID, meta.Name, meta.Extension, result)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     result,
		"warnings": col.GetBySeverity(models.SeverityWarning),
	})
}

// ValidateImportFile runs the whole pipeline without persisting anything
// @Summary Validate an import file
// @Description Dry run: file checks, parsing and per-record validation without writes
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Import file"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /products/import/validate [post]
func (h *ImportHandler) ValidateImportFile(c *gin.Context) {
	meta, content, ok := h.readUpload(c)
	if !ok {
		return
	}

	col, parser, _ := h.pipeline()

	check := importer.CheckFile(meta, content, importer.DefaultFileCheckOptions())
	response := gin.H{
		"success":        check.IsValid,
		"fileValidation": check,
	}
	if !check.IsValid {
		c.JSON(http.StatusOK, response)
		return
	}

	products := h.parseByExtension(parser, meta, content)
	importer.ReportDuplicates(products, col)

	validations := make([]models.ValidationResult, len(products))
	validCount := 0
	for i, record := range products {
		validations[i] = importer.ValidateRecord(record, importer.ValidateOptions{})
		if validations[i].IsValid {
			validCount++
		}
	}

	// Surface repairable values so the client can offer one-click fixes
	var autoFixes []gin.H
	for _, diag := range col.GetAutoFixable() {
		if fix := importer.TryAutoFix(diag); fix.Fixed {
			autoFixes = append(autoFixes, gin.H{
				"row":        diag.Row,
				"field":      diag.Field,
				"value":      diag.Value,
				"fixedValue": fix.NewValue,
			})
		}
	}

	response["products"] = products
	response["validations"] = validations
	response["validCount"] = validCount
	response["diagnostics"] = col.GetAll()
	response["autoFixes"] = autoFixes
	c.JSON(http.StatusOK, response)
}

// GetImportTemplate returns the import template definition or file
// @Summary Download the import template
// @Description Get the import template as JSON definition, CSV headers or an XLSX workbook
// @Tags Import
// @Produce json
// @Param format query string false "json, csv or xlsx" default(json)
// @Success 200 {object} map[string]interface{}
// @Router /products/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	template := models.ProductImportTemplate()

	switch format {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=productos_plantilla.csv")
		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()
		headers := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			headers[i] = col.Name
		}
		writer.Write(headers)
	case "xlsx":
		buffer, err := importer.BuildTemplateXLSX(template)
		if err != nil {
			h.logger.WithError(err).Error("Failed to build template workbook")
			respondError(c, http.StatusInternalServerError, "TEMPLATE_ERROR", "No se pudo generar la plantilla")
			return
		}
		c.Header("Content-Disposition", "attachment; filename=productos_plantilla.xlsx")
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buffer.Bytes())
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "template": template})
	}
}

// GetImportLogs returns the recent import history of the tenant
// @Summary Get import history
// @Description Get the most recent import runs of the tenant
// @Tags Import
// @Produce json
// @Param limit query int false "Maximum entries" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /imports/logs [get]
func (h *ImportHandler) GetImportLogs(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	logs, err := h.store.RecentImportLogs(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read import logs")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "No se pudo leer el historial de importaciones")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": logs})
}

// readUpload pulls the multipart file and enforces the size cap early
func (h *ImportHandler) readUpload(c *gin.Context) (models.FileMetadata, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Falta el archivo en el campo \"file\"")
		return models.FileMetadata{}, nil, false
	}
	if fileHeader.Size > maxUploadBytes {
		respondError(c, http.StatusBadRequest, "FILE_TOO_BIG", "El archivo supera el máximo de 10MB")
		return models.FileMetadata{}, nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "No se pudo leer el archivo")
		return models.FileMetadata{}, nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "No se pudo leer el archivo")
		return models.FileMetadata{}, nil, false
	}

	meta := models.FileMetadata{
		Name:      fileHeader.Filename,
		SizeBytes: fileHeader.Size,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), "."),
	}
	return meta, content, true
}

// formatForExtension maps an upload extension onto the payload format the
// parser dispatches on. Unknown extensions fall back to free text.
func formatForExtension(ext string) models.ImportFormat {
	switch ext {
	case "csv":
		return models.ImportFormatCSV
	case "xlsx", "xls":
		return models.ImportFormatXLSX
	case "json":
		return models.ImportFormatJSON
	default:
		return models.ImportFormatText
	}
}

func (h *ImportHandler) parseByExtension(parser *importer.Parser, meta models.FileMetadata, content []byte) []models.ParsedProduct {
	switch formatForExtension(meta.Extension) {
	case models.ImportFormatCSV:
		return parser.ParseCSV(content)
	case models.ImportFormatXLSX:
		return parser.ParseXLSX(content)
	case models.ImportFormatJSON:
		return parser.Parse(string(content), models.ImportFormatJSON)
	default:
		return parser.Parse(string(content), models.ImportFormatText)
	}
}

func (h *ImportHandler) respondImportFailure(c *gin.Context, err error) {
	var planErr *importer.PlanLimitError
	if errors.As(err, &planErr) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    models.ErrCodePlanLimit,
				"message": fmt.Sprintf("Tu plan permite hasta %d productos y ya tenés %d. Reducí el lote o actualizá el plan.", planErr.Limit, planErr.Current),
			},
		})
		return
	}
	h.logger.WithError(err).Error("Import batch failed")
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "La importación falló, reintentá en unos segundos")
}

// finishImport saves the audit snapshot and emits the completion event
func (h *ImportHandler) finishImport(c *gin.Context, col *importer.Collector, tenantID, sourceFile, format string, result *models.ImportBatchResult) {
	snapshot := col.GenerateLog(importer.LogContext{
		TenantID:   tenantID,
		SourceFile: sourceFile,
		Format:     format,
		TotalRows:  result.Total,
		Created:    result.Created,
		Failed:     len(result.Errors),
	})
	col.SaveLog(c.Request.Context(), snapshot)

	if h.events != nil {
		h.events.PublishImportCompleted(c.Request.Context(), tenantID, sourceFile, format, result)
	}
}

// inputToRecord maps one bulk-create item onto the pipeline record shape,
// keeping the stock/stockBySize invariant: an explicit per-size map defines
// the total.
func inputToRecord(input models.ProductInput) models.ParsedProduct {
	record := models.ParsedProduct{
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		Category:        strings.TrimSpace(input.Category),
		Price:           input.Price,
		Stock:           input.Stock,
		SKU:             strings.TrimSpace(input.SKU),
		Tags:            input.Tags,
		Colors:          input.Colors,
		PrimaryImage:    strings.TrimSpace(input.Image),
		SecondaryImages: input.Images,
		Active:          true,
	}
	if input.Active != nil {
		record.Active = *input.Active
	}

	sizes := importer.DedupeList(input.Sizes)
	if len(input.StockBySize) > 0 {
		record.StockBySize = input.StockBySize
		record.Sizes = make([]string, 0, len(input.StockBySize))
		total := 0
		for _, size := range sizes {
			if _, ok := input.StockBySize[size]; ok {
				record.Sizes = append(record.Sizes, size)
			}
		}
		for size, qty := range input.StockBySize {
			if !containsString(record.Sizes, size) {
				record.Sizes = append(record.Sizes, size)
			}
			total += qty
		}
		record.Stock = total
	} else if len(sizes) > 0 {
		record.Sizes = sizes
		record.StockBySize = importer.DistributeStock(record.Stock, sizes)
	}
	return record
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
