package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

type fakeStore struct {
	categories     []models.Category
	products       []*models.Product
	createErrOn    map[string]error // keyed by product name
	categoryErrOn  map[string]error // keyed by category name
	categoryCalls  int
	createdByBatch []string
}

func newFakeStore(categoryNames ...string) *fakeStore {
	store := &fakeStore{
		createErrOn:   map[string]error{},
		categoryErrOn: map[string]error{},
	}
	for _, name := range categoryNames {
		store.categories = append(store.categories, models.Category{ID: uuid.New(), TenantID: "t1", Name: name})
	}
	return store
}

func (s *fakeStore) ListCategories(ctx context.Context, tenantID string) ([]models.Category, error) {
	return s.categories, nil
}

func (s *fakeStore) GetOrCreateCategory(ctx context.Context, tenantID, name, createdBy string) (*models.Category, error) {
	s.categoryCalls++
	if err, ok := s.categoryErrOn[name]; ok {
		return nil, err
	}
	for i := range s.categories {
		if strings.EqualFold(s.categories[i].Name, name) {
			return &s.categories[i], nil
		}
	}
	category := models.Category{ID: uuid.New(), TenantID: tenantID, Name: name}
	s.categories = append(s.categories, category)
	return &category, nil
}

func (s *fakeStore) CreateProduct(ctx context.Context, product *models.Product) error {
	if err, ok := s.createErrOn[product.Name]; ok {
		return err
	}
	product.ID = uuid.New()
	s.products = append(s.products, product)
	s.createdByBatch = append(s.createdByBatch, product.ID.String())
	return nil
}

type fakePlans struct {
	limit PlanLimit
	err   error
}

func (p *fakePlans) CheckLimit(ctx context.Context, tenantID, resource string) (*PlanLimit, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &p.limit, nil
}

func record(name, category string, price float64, stock int) models.ParsedProduct {
	return models.ParsedProduct{Name: name, Category: category, Price: price, Stock: stock, Active: true}
}

func TestImportBatchPartialSuccess(t *testing.T) {
	store := newFakeStore("Remeras")
	service := NewService(store, nil, nil)
	col := NewCollector(nil, nil)

	records := []models.ParsedProduct{
		record("Remera Negra", "Remeras", 12500, 10),
		record("Remera Rota", "Remeras", 0, 5), // invalid price
		record("Remera Blanca", "Remeras", 9900, 3),
	}

	result, err := service.ImportBatch(context.Background(), "t1", "u1", records, col)
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 3 || result.Created != 2 {
		t.Fatalf("total/created = %d/%d", result.Total, result.Created)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 1 {
		t.Fatalf("errors = %v, want failure at index 1", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Reason, "precio") {
		t.Errorf("reason = %q, should mention the price", result.Errors[0].Reason)
	}
}

// Every input index must land in exactly one of the two outcomes.
func TestImportBatchIndexPartition(t *testing.T) {
	store := newFakeStore()
	store.createErrOn["Producto Dos"] = errors.New("store hiccup")
	service := NewService(store, nil, nil)
	col := NewCollector(nil, nil)

	var records []models.ParsedProduct
	for i := 0; i < 6; i++ {
		records = append(records, record(fmt.Sprintf("Producto %s", []string{"Cero", "Uno", "Dos", "Tres", "Cuatro", "Cinco"}[i]), "General", 100, 1))
	}
	records[4].Price = 0 // invalid

	result, err := service.ImportBatch(context.Background(), "t1", "u1", records, col)
	if err != nil {
		t.Fatal(err)
	}

	failed := map[int]bool{}
	for _, e := range result.Errors {
		if failed[e.Index] {
			t.Fatalf("index %d reported twice", e.Index)
		}
		failed[e.Index] = true
	}
	if len(result.CreatedIDs)+len(result.Errors) != result.Total {
		t.Fatalf("partition broken: %d created + %d failed != %d total",
			len(result.CreatedIDs), len(result.Errors), result.Total)
	}
	if !failed[2] || !failed[4] {
		t.Errorf("expected failures at indices 2 and 4, got %v", result.Errors)
	}
}

func TestImportBatchPlanLimitRejectsEverything(t *testing.T) {
	store := newFakeStore()
	plans := &fakePlans{limit: PlanLimit{Allowed: true, Current: 98, Limit: 100}}
	service := NewService(store, plans, nil)
	col := NewCollector(nil, nil)

	records := []models.ParsedProduct{
		record("P1", "General", 100, 1),
		record("P2", "General", 100, 1),
		record("P3", "General", 100, 1),
		record("P4", "General", 100, 1),
		record("P5", "General", 100, 1),
	}

	result, err := service.ImportBatch(context.Background(), "t1", "u1", records, col)
	if result != nil {
		t.Fatal("no partial results past the plan gate")
	}
	var planErr *PlanLimitError
	if !errors.As(err, &planErr) {
		t.Fatalf("expected PlanLimitError, got %v", err)
	}
	if len(store.products) != 0 {
		t.Error("nothing may be created when the batch is rejected")
	}
	critical := col.GetBySeverity(models.SeverityCritical)
	if len(critical) != 1 || critical[0].Code != models.ErrCodePlanLimit {
		t.Errorf("expected a critical PLAN_LIMIT_EXCEEDED, got %v", critical)
	}
}

func TestImportBatchUnlimitedPlan(t *testing.T) {
	store := newFakeStore()
	plans := &fakePlans{limit: PlanLimit{Allowed: true, Current: 10000, Limit: -1}}
	service := NewService(store, plans, nil)
	col := NewCollector(nil, nil)

	result, err := service.ImportBatch(context.Background(), "t1", "u1",
		[]models.ParsedProduct{record("P1", "General", 100, 1)}, col)
	if err != nil {
		t.Fatal(err)
	}
	if result.Created != 1 {
		t.Errorf("created = %d", result.Created)
	}
}

func TestImportBatchCategoryCacheCreatesOnce(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil, nil)
	col := NewCollector(nil, nil)

	records := []models.ParsedProduct{
		record("Remera Uno", "Remeras", 100, 1),
		record("Remera Dos", "remeras", 100, 1), // same category, different case
		record("Remera Tres", "REMERAS", 100, 1),
	}

	if _, err := service.ImportBatch(context.Background(), "t1", "u1", records, col); err != nil {
		t.Fatal(err)
	}
	if store.categoryCalls != 1 {
		t.Errorf("GetOrCreateCategory called %d times, want 1 (cache must absorb the rest)", store.categoryCalls)
	}
}

func TestImportBatchExistingCategoriesSkipCreate(t *testing.T) {
	store := newFakeStore("Remeras")
	service := NewService(store, nil, nil)
	col := NewCollector(nil, nil)

	if _, err := service.ImportBatch(context.Background(), "t1", "u1",
		[]models.ParsedProduct{record("Remera", "remeras", 100, 1)}, col); err != nil {
		t.Fatal(err)
	}
	if store.categoryCalls != 0 {
		t.Errorf("pre-loaded category should resolve from the batch cache, calls = %d", store.categoryCalls)
	}
}

func TestImportBatchCategoryFailureOnlyBlocksThatRecord(t *testing.T) {
	store := newFakeStore()
	store.categoryErrOn["Maldita"] = errors.New("category service down")
	service := NewService(store, nil, nil)
	col := NewCollector(nil, nil)

	records := []models.ParsedProduct{
		record("P1", "Buena", 100, 1),
		record("P2", "Maldita", 100, 1),
		record("P3", "Buena", 100, 1),
	}
	result, err := service.ImportBatch(context.Background(), "t1", "u1", records, col)
	if err != nil {
		t.Fatal(err)
	}
	if result.Created != 2 || len(result.Errors) != 1 || result.Errors[0].Index != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestImportBatchBuildsPersistencePayload(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil, nil)
	col := NewCollector(nil, nil)

	rec := record("Remera Talle", "Remeras", 12500, 9)
	rec.Sizes = []string{"S", "M", "L"}
	rec.StockBySize = map[string]int{"S": 3, "M": 3, "L": 3}
	rec.SKU = "REM-001"
	rec.Description = "Remera de algodón"

	if _, err := service.ImportBatch(context.Background(), "t1", "u7", []models.ParsedProduct{rec}, col); err != nil {
		t.Fatal(err)
	}
	if len(store.products) != 1 {
		t.Fatal("expected one persisted product")
	}
	product := store.products[0]
	if product.TenantID != "t1" {
		t.Errorf("tenant = %q", product.TenantID)
	}
	if product.ImageURL != models.DefaultProductImageURL {
		t.Errorf("expected image fallback, got %q", product.ImageURL)
	}
	if product.StockBySize == nil || (*product.StockBySize)["M"] != 3 {
		t.Errorf("stockBySize = %v", product.StockBySize)
	}
	if product.CreatedBy == nil || *product.CreatedBy != "u7" {
		t.Error("createdBy must carry the importing user")
	}
	if product.SKU == nil || *product.SKU != "REM-001" {
		t.Error("sku lost in payload build")
	}
}

func TestImportBatchEmpty(t *testing.T) {
	service := NewService(newFakeStore(), nil, nil)
	result, err := service.ImportBatch(context.Background(), "t1", "u1", nil, NewCollector(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 0 || result.Created != 0 || len(result.Errors) != 0 {
		t.Errorf("empty batch result = %+v", result)
	}
}
