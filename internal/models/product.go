package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// DefaultProductImageURL is applied when an imported record carries no usable
// image reference.
const DefaultProductImageURL = "https://images.unsplash.com/photo-1523381210434-271e8be1f52b?w=800&q=80"

// Product represents a catalog product
type Product struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string          `json:"tenantId" gorm:"not null;index:idx_products_tenant"`
	CategoryID  string          `json:"categoryId" gorm:"not null;index"`
	Name        string          `json:"name" gorm:"not null"`
	Slug        *string         `json:"slug,omitempty" gorm:"index:idx_products_tenant_slug"`
	SKU         *string         `json:"sku,omitempty" gorm:"index:idx_products_tenant_sku"`
	Description *string         `json:"description,omitempty"`
	Price       float64         `json:"price" gorm:"not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	StockBySize *JSON           `json:"stockBySize,omitempty" gorm:"type:jsonb"`
	Sizes       *JSONArray      `json:"sizes,omitempty" gorm:"type:jsonb"`
	Colors      *JSONArray      `json:"colors,omitempty" gorm:"type:jsonb"`
	Tags        *JSONArray      `json:"tags,omitempty" gorm:"type:jsonb"`
	ImageURL    string          `json:"imageUrl"`
	Images      *JSONArray      `json:"images,omitempty" gorm:"type:jsonb"`
	Active      bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy   *string         `json:"createdBy,omitempty"`
	UpdatedBy   *string         `json:"updatedBy,omitempty"`
}

// Category represents a product category
type Category struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string          `json:"tenantId" gorm:"column:tenant_id;not null;index"`
	Name      string          `json:"name" gorm:"not null"`
	Slug      string          `json:"slug" gorm:"not null"`
	Position  int             `json:"position" gorm:"not null;default:1"`
	IsActive  *bool           `json:"isActive" gorm:"column:is_active;default:true"`
	CreatedBy string          `json:"createdBy" gorm:"column:created_by"`
	CreatedAt time.Time       `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt time.Time       `json:"updatedAt" gorm:"column:updated_at"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"column:deleted_at;index"`
}

// ImportLog is the persisted audit trail for one import run. Only the most
// recent entries per tenant are retained; older rows are pruned on insert.
type ImportLog struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string    `json:"tenantId" gorm:"not null;index:idx_import_logs_tenant"`
	SourceFile string    `json:"sourceFile"`
	Format     string    `json:"format"`
	TotalRows  int       `json:"totalRows"`
	Created    int       `json:"created"`
	Failed     int       `json:"failed"`
	Errors     *JSON     `json:"errors,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ProductInput is one item of a bulk create request
type ProductInput struct {
	Name        string         `json:"name" binding:"required"`
	Category    string         `json:"category" binding:"required"`
	Price       float64        `json:"price" binding:"required"`
	Stock       int            `json:"stock"`
	SKU         string         `json:"sku,omitempty"`
	Description string         `json:"description,omitempty"`
	Sizes       []string       `json:"sizes,omitempty"`
	StockBySize map[string]int `json:"stockBySize,omitempty"`
	Colors      []string       `json:"colors,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Image       string         `json:"image,omitempty"`
	Images      []string       `json:"images,omitempty"`
	Active      *bool          `json:"active,omitempty"`
}

// BulkCreateProductsRequest represents a bulk create request
type BulkCreateProductsRequest struct {
	Products []ProductInput `json:"products" binding:"required,min=1,max=500"`
}

// ParseTextRequest is the payload of the free-text parse endpoint
type ParseTextRequest struct {
	Text   string `json:"text" binding:"required"`
	Format string `json:"format,omitempty"` // "text" (default) or "json"
}

// Response types
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type CategoryListResponse struct {
	Success bool       `json:"success"`
	Data    []Category `json:"data"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// TableName returns the table name for the ImportLog model
func (ImportLog) TableName() string {
	return "import_logs"
}
