package models

import "time"

// ImportFormat identifies the detected shape of an import payload
type ImportFormat string

const (
	ImportFormatText ImportFormat = "text"
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatJSON ImportFormat = "json"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportSeverity classifies an import diagnostic
type ImportSeverity string

const (
	SeverityCritical ImportSeverity = "critical"
	SeverityError    ImportSeverity = "error"
	SeverityWarning  ImportSeverity = "warning"
	SeverityInfo     ImportSeverity = "info"
)

// Import error codes. Critical codes abort the whole run, error codes reject
// a single row, warnings never block persistence.
const (
	ErrCodeInvalidPrice      = "INVALID_PRICE"
	ErrCodeInvalidStock      = "INVALID_STOCK"
	ErrCodeEmptyName         = "EMPTY_NAME"
	ErrCodeEmptyCategory     = "EMPTY_CATEGORY"
	ErrCodeInvalidImageURL   = "INVALID_IMAGE_URL"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeParseError        = "PARSE_ERROR"
	ErrCodeNetworkError      = "NETWORK_ERROR"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeDuplicate         = "DUPLICATE"
	ErrCodePlanLimit         = "PLAN_LIMIT_EXCEEDED"
)

// ImportError is one diagnostic produced anywhere in the import pipeline
type ImportError struct {
	Severity        ImportSeverity `json:"severity"`
	Code            string         `json:"code"`
	Message         string         `json:"message"`
	FriendlyMessage string         `json:"friendlyMessage,omitempty"`
	Row             *int           `json:"row,omitempty"`
	Field           string         `json:"field,omitempty"`
	Value           interface{}    `json:"value,omitempty"`
	FixSuggestion   string         `json:"fixSuggestion,omitempty"`
	AutoFixable     bool           `json:"autoFixable"`
	Timestamp       time.Time      `json:"timestamp"`
}

// ParsedProduct is one normalized record produced by the parser, ready for
// validation and persistence. StockBySize, when present, always sums to Stock
// and its key set equals Sizes.
type ParsedProduct struct {
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Category        string         `json:"category"`
	Price           float64        `json:"price"`
	Stock           int            `json:"stock"`
	StockBySize     map[string]int `json:"stockBySize,omitempty"`
	Sizes           []string       `json:"sizes,omitempty"`
	Colors          []string       `json:"colors,omitempty"`
	SKU             string         `json:"sku,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	PrimaryImage    string         `json:"primaryImage,omitempty"`
	SecondaryImages []string       `json:"secondaryImages,omitempty"`
	Active          bool           `json:"active"`
}

// ValidationResult is the per-record validation outcome
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// IndexedError ties a persistence failure to the submitted batch position
type IndexedError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportBatchResult summarizes a persistence run. Every submitted index
// lands either in the success set or in Errors, never both.
type ImportBatchResult struct {
	Created    int            `json:"created"`
	CreatedIDs []string       `json:"createdIds"`
	Errors     []IndexedError `json:"errors"`
	Total      int            `json:"total"`
}

// FileMetadata describes an incoming upload
type FileMetadata struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
	MimeType  string `json:"mimeType,omitempty"`
	Extension string `json:"extension"`
}

// FileValidationResult is the outcome of pre-parse file checks
type FileValidationResult struct {
	IsValid  bool         `json:"isValid"`
	Errors   []string     `json:"errors,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
	Metadata FileMetadata `json:"metadata"`
}

// ImportLogRecord is one snapshot collected by the error aggregator,
// retained in a bounded history for post-mortem review.
type ImportLogRecord struct {
	ID         string        `json:"id"`
	TenantID   string        `json:"tenantId"`
	SourceFile string        `json:"sourceFile,omitempty"`
	Format     string        `json:"format,omitempty"`
	TotalRows  int           `json:"totalRows"`
	Created    int           `json:"created"`
	Failed     int           `json:"failed"`
	Errors     []ImportError `json:"errors,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, boolean
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "nombre", Description: "Product name", Required: true, Type: "string", Example: "Remera Oversize Negra"},
		{Name: "categoria", Description: "Category name, created automatically if it does not exist", Required: true, Type: "string", Example: "Remeras"},
		{Name: "precio", Description: "Unit price, accepts $ 12.500 or 12500.50", Required: true, Type: "number", Example: "12500"},
		{Name: "stock", Description: "Total stock across all sizes", Required: true, Type: "number", Example: "30"},
		{Name: "talles", Description: "Comma-separated sizes", Required: false, Type: "string", Example: "S,M,L,XL"},
		{Name: "colores", Description: "Comma-separated colors", Required: false, Type: "string", Example: "negro,blanco"},
		{Name: "sku", Description: "Unique product SKU", Required: false, Type: "string", Example: "REM-NEG-001"},
		{Name: "descripcion", Description: "Product description", Required: false, Type: "string", Example: "Algodon peinado 24/1"},
		{Name: "imagen", Description: "Image URL", Required: false, Type: "string", Example: ""},
		{Name: "tags", Description: "Comma-separated tags", Required: false, Type: "string", Example: "verano,oversize"},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
		SampleData: []map[string]string{
			{"nombre": "Remera Oversize Negra", "categoria": "Remeras", "precio": "12500", "stock": "30", "talles": "S,M,L,XL", "colores": "negro"},
			{"nombre": "Jean Mom Fit", "categoria": "Pantalones", "precio": "28900", "stock": "18", "talles": "36,38,40,42", "colores": "azul"},
		},
	}
}
