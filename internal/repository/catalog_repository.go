package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

// Cache TTL constants
const (
	ProductListCacheTTL = 2 * time.Minute  // Product lists change often
	CategoryCacheTTL    = 30 * time.Minute // Categories rarely change
)

// importLogHistoryCap bounds the retained import history per tenant
const importLogHistoryCap = 50

type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	return &CatalogRepository{db: db, redis: redisClient}
}

// Product operations

// CreateProduct inserts a product, generating a unique slug from the name
// when none is provided.
func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	// ID must exist before the slug so the suffix is stable
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.Slug == nil || *product.Slug == "" {
		uniqueSlug := fmt.Sprintf("%s-%s", generateSlug(product.Name), product.ID.String()[:8])
		product.Slug = &uniqueSlug
	}

	err := r.db.WithContext(ctx).Create(product).Error
	if err == nil {
		r.invalidateProductListCaches(ctx, product.TenantID)
	}
	return err
}

// GetProductByID retrieves one product scoped to the tenant
func (r *CatalogRepository) GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductListQuery carries the list filters
type ProductListQuery struct {
	Page       int
	Limit      int
	Search     string
	CategoryID string
	ActiveOnly bool
}

// GetProducts lists products with pagination, caching each page briefly
func (r *CatalogRepository) GetProducts(ctx context.Context, tenantID string, q ProductListQuery) ([]models.Product, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	type listResult struct {
		Products []models.Product `json:"products"`
		Total    int64            `json:"total"`
	}
	cacheKey := fmt.Sprintf("products:list:%s:%d:%d:%s:%s:%v", tenantID, q.Page, q.Limit, q.Search, q.CategoryID, q.ActiveOnly)

	if r.redis != nil && q.Search == "" {
		if cached, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var result listResult
			if json.Unmarshal([]byte(cached), &result) == nil {
				return result.Products, result.Total, nil
			}
		}
	}

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("tenant_id = ?", tenantID)
	if q.CategoryID != "" {
		query = query.Where("category_id = ?", q.CategoryID)
	}
	if q.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	offset := (q.Page - 1) * q.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	if r.redis != nil && q.Search == "" {
		if data, err := json.Marshal(listResult{Products: products, Total: total}); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductListCacheTTL)
		}
	}
	return products, total, nil
}

// CountProducts returns the number of live products for a tenant
func (r *CatalogRepository) CountProducts(ctx context.Context, tenantID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("tenant_id = ?", tenantID).
		Count(&total).Error
	return total, err
}

// Category operations

// ListCategories returns every category of a tenant ordered by position,
// served from Redis when available.
func (r *CatalogRepository) ListCategories(ctx context.Context, tenantID string) ([]models.Category, error) {
	cacheKey := fmt.Sprintf("categories:all:%s", tenantID)

	if r.redis != nil {
		if cached, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var categories []models.Category
			if json.Unmarshal([]byte(cached), &categories) == nil {
				return categories, nil
			}
		}
	}

	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("position ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(categories); err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryCacheTTL)
		}
	}
	return categories, nil
}

// GetOrCreateCategory finds a category by name (case-insensitive) or creates
// it. The lookup and create run in one transaction; a duplicate-key failure
// on create means a concurrent request won the race, so the row is fetched
// again instead of failing.
func (r *CatalogRepository) GetOrCreateCategory(ctx context.Context, tenantID, name, createdBy string) (*models.Category, error) {
	var category models.Category

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name).First(&category).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to lookup category: %w", err)
		}

		isActive := true
		category = models.Category{
			TenantID:  tenantID,
			Name:      name,
			Slug:      generateSlug(name),
			Position:  1,
			IsActive:  &isActive,
			CreatedBy: createdBy,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := tx.Create(&category).Error; err != nil {
			if strings.Contains(err.Error(), "duplicate") {
				if findErr := tx.Where("tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name).First(&category).Error; findErr == nil {
					return nil
				}
			}
			return fmt.Errorf("failed to create category '%s': %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidateCategoryCaches(ctx, tenantID)
	return &category, nil
}

// Import log operations

// SaveImportLog persists one import snapshot and prunes the tenant's history
// beyond the retention cap. A copy goes to a capped Redis list for cheap
// recent-history reads.
func (r *CatalogRepository) SaveImportLog(ctx context.Context, record *models.ImportLogRecord) error {
	errorsJSON := make(models.JSON)
	if len(record.Errors) > 0 {
		data, err := json.Marshal(record.Errors)
		if err != nil {
			return fmt.Errorf("marshal import errors: %w", err)
		}
		var entries []interface{}
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("marshal import errors: %w", err)
		}
		errorsJSON["entries"] = entries
	}

	row := models.ImportLog{
		TenantID:   record.TenantID,
		SourceFile: record.SourceFile,
		Format:     record.Format,
		TotalRows:  record.TotalRows,
		Created:    record.Created,
		Failed:     record.Failed,
		Errors:     &errorsJSON,
		CreatedAt:  record.CreatedAt,
	}
	if id, err := uuid.Parse(record.ID); err == nil {
		row.ID = id
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Exec(`
			DELETE FROM import_logs
			WHERE tenant_id = ? AND id NOT IN (
				SELECT id FROM import_logs
				WHERE tenant_id = ?
				ORDER BY created_at DESC
				LIMIT ?
			)`, record.TenantID, record.TenantID, importLogHistoryCap).Error
	})
	if err != nil {
		return err
	}

	if r.redis != nil {
		if data, err := json.Marshal(record); err == nil {
			key := fmt.Sprintf("imports:log:%s", record.TenantID)
			pipe := r.redis.Pipeline()
			pipe.LPush(ctx, key, data)
			pipe.LTrim(ctx, key, 0, importLogHistoryCap-1)
			pipe.Exec(ctx)
		}
	}
	return nil
}

// RecentImportLogs returns the newest import snapshots for a tenant
func (r *CatalogRepository) RecentImportLogs(ctx context.Context, tenantID string, limit int) ([]models.ImportLog, error) {
	if limit < 1 || limit > importLogHistoryCap {
		limit = importLogHistoryCap
	}
	var logs []models.ImportLog
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// Cache invalidation helpers

func (r *CatalogRepository) invalidateProductListCaches(ctx context.Context, tenantID string) {
	r.deletePattern(ctx, fmt.Sprintf("products:list:%s:*", tenantID))
}

func (r *CatalogRepository) invalidateCategoryCaches(ctx context.Context, tenantID string) {
	if r.redis == nil {
		return
	}
	r.redis.Del(ctx, fmt.Sprintf("categories:all:%s", tenantID))
}

func (r *CatalogRepository) deletePattern(ctx context.Context, pattern string) {
	if r.redis == nil {
		return
	}
	iter := r.redis.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}

var slugCleanPattern = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug creates a URL-friendly slug from a name
func generateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugCleanPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
