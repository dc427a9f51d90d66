package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

// PlanLimit is the plan-usage answer for one resource. Limit -1 means
// unlimited.
type PlanLimit struct {
	Allowed bool `json:"allowed"`
	Current int  `json:"current"`
	Limit   int  `json:"limit"`
}

// PlanChecker resolves plan limits for a tenant
type PlanChecker interface {
	CheckLimit(ctx context.Context, tenantID, resource string) (*PlanLimit, error)
}

// CatalogStore is the persistence boundary the orchestrator writes through
type CatalogStore interface {
	ListCategories(ctx context.Context, tenantID string) ([]models.Category, error)
	GetOrCreateCategory(ctx context.Context, tenantID, name, createdBy string) (*models.Category, error)
	CreateProduct(ctx context.Context, product *models.Product) error
}

// PlanLimitError aborts a whole batch before any write happens
type PlanLimitError struct {
	Current   int
	Limit     int
	Requested int
}

func (e *PlanLimitError) Error() string {
	return fmt.Sprintf("plan limit exceeded: %d products in use, limit %d, batch of %d rejected",
		e.Current, e.Limit, e.Requested)
}

// Service coordinates the persistence of a parsed batch: plan precheck,
// category resolution through a per-batch cache, then one independent create
// per record with partial-success accounting.
type Service struct {
	store  CatalogStore
	plans  PlanChecker
	logger *logrus.Entry
}

// NewService builds the orchestrator. plans may be nil when no billing
// service is configured; the limit precheck is then skipped.
func NewService(store CatalogStore, plans PlanChecker, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		store:  store,
		plans:  plans,
		logger: logger.WithField("component", "import-service"),
	}
}

// ImportBatch persists records sequentially. The plan precheck is the only
// all-or-nothing gate: admitting a partial batch past it would quietly break
// the plan contract. After that, each record succeeds or fails on its own
// and output index i always refers to input record i.
func (s *Service) ImportBatch(ctx context.Context, tenantID, userID string, records []models.ParsedProduct, errs *Collector) (*models.ImportBatchResult, error) {
	result := &models.ImportBatchResult{
		Total:      len(records),
		CreatedIDs: []string{},
		Errors:     []models.IndexedError{},
	}
	if len(records) == 0 {
		return result, nil
	}

	if s.plans != nil {
		var limit *PlanLimit
		err := errs.WithRetry(ctx, "plan limit check", func() error {
			var checkErr error
			limit, checkErr = s.plans.CheckLimit(ctx, tenantID, "products")
			return checkErr
		})
		if err != nil {
			return nil, fmt.Errorf("plan limit check: %w", err)
		}
		if limit.Limit != -1 && limit.Current+len(records) > limit.Limit {
			errs.Log(models.SeverityCritical, models.ErrCodePlanLimit,
				fmt.Sprintf("batch of %d would exceed plan limit (%d/%d)", len(records), limit.Current, limit.Limit),
				ErrorMeta{})
			return nil, &PlanLimitError{Current: limit.Current, Limit: limit.Limit, Requested: len(records)}
		}
	}

	categoryCache, err := s.loadCategoryCache(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	for i, record := range records {
		validation := ValidateRecord(record, ValidateOptions{})
		if !validation.IsValid {
			result.Errors = append(result.Errors, models.IndexedError{
				Index:  i,
				Reason: strings.Join(validation.Errors, "; "),
			})
			continue
		}

		categoryID, err := s.resolveCategory(ctx, tenantID, userID, record.Category, categoryCache)
		if err != nil {
			errs.Log(models.SeverityError, models.ErrCodeNetworkError,
				fmt.Sprintf("category %q for record %d: %v", record.Category, i, err),
				ErrorMeta{Field: "category", Value: record.Category})
			result.Errors = append(result.Errors, models.IndexedError{
				Index:  i,
				Reason: fmt.Sprintf("no se pudo resolver la categoría %q", record.Category),
			})
			continue
		}

		product := buildProduct(tenantID, userID, categoryID, record)
		if err := s.store.CreateProduct(ctx, product); err != nil {
			s.logger.WithFields(logrus.Fields{
				"tenant_id": tenantID,
				"index":     i,
				"name":      record.Name,
			}).WithError(err).Warn("Product create failed")
			result.Errors = append(result.Errors, models.IndexedError{Index: i, Reason: err.Error()})
			continue
		}

		result.Created++
		result.CreatedIDs = append(result.CreatedIDs, product.ID.String())
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"total":     result.Total,
		"created":   result.Created,
		"failed":    len(result.Errors),
	}).Info("Import batch finished")
	return result, nil
}

// loadCategoryCache reads the tenant's categories once and keys them by
// lower-cased name so every record in the batch resolves without another
// round-trip.
func (s *Service) loadCategoryCache(ctx context.Context, tenantID string) (map[string]string, error) {
	categories, err := s.store.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	cache := make(map[string]string, len(categories))
	for _, category := range categories {
		cache[strings.ToLower(strings.TrimSpace(category.Name))] = category.ID.String()
	}
	return cache, nil
}

// resolveCategory answers from the batch cache, creating the category on a
// miss. The cache is updated immediately so later records in the same batch
// reuse the new ID.
func (s *Service) resolveCategory(ctx context.Context, tenantID, userID, name string, cache map[string]string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := cache[key]; ok {
		return id, nil
	}
	category, err := s.store.GetOrCreateCategory(ctx, tenantID, strings.TrimSpace(name), userID)
	if err != nil {
		return "", err
	}
	id := category.ID.String()
	cache[key] = id
	return id, nil
}

func buildProduct(tenantID, userID, categoryID string, record models.ParsedProduct) *models.Product {
	product := &models.Product{
		TenantID:   tenantID,
		CategoryID: categoryID,
		Name:       record.Name,
		Price:      record.Price,
		Stock:      record.Stock,
		ImageURL:   record.PrimaryImage,
		Active:     record.Active,
	}
	if product.ImageURL == "" {
		product.ImageURL = models.DefaultProductImageURL
	}
	if record.Description != "" {
		product.Description = &record.Description
	}
	if record.SKU != "" {
		product.SKU = &record.SKU
	}
	if userID != "" {
		product.CreatedBy = &userID
	}
	if len(record.StockBySize) > 0 {
		stockBySize := make(models.JSON, len(record.StockBySize))
		for size, qty := range record.StockBySize {
			stockBySize[size] = qty
		}
		product.StockBySize = &stockBySize
	}
	if arr := toJSONArray(record.Sizes); arr != nil {
		product.Sizes = arr
	}
	if arr := toJSONArray(record.Colors); arr != nil {
		product.Colors = arr
	}
	if arr := toJSONArray(record.Tags); arr != nil {
		product.Tags = arr
	}
	if arr := toJSONArray(record.SecondaryImages); arr != nil {
		product.Images = arr
	}
	return product
}

func toJSONArray(items []string) *models.JSONArray {
	if len(items) == 0 {
		return nil
	}
	arr := make(models.JSONArray, len(items))
	for i, item := range items {
		arr[i] = item
	}
	return &arr
}
