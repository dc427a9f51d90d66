package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/importer"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

type memoryStore struct {
	categories []models.Category
	products   []*models.Product
	logs       []*models.ImportLogRecord
	history    []models.ImportLog
}

func (s *memoryStore) ListCategories(ctx context.Context, tenantID string) ([]models.Category, error) {
	return s.categories, nil
}

func (s *memoryStore) GetOrCreateCategory(ctx context.Context, tenantID, name, createdBy string) (*models.Category, error) {
	for i := range s.categories {
		if strings.EqualFold(s.categories[i].Name, name) {
			return &s.categories[i], nil
		}
	}
	category := models.Category{ID: uuid.New(), TenantID: tenantID, Name: name}
	s.categories = append(s.categories, category)
	return &category, nil
}

func (s *memoryStore) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ID = uuid.New()
	s.products = append(s.products, product)
	return nil
}

func (s *memoryStore) SaveImportLog(ctx context.Context, record *models.ImportLogRecord) error {
	s.logs = append(s.logs, record)
	return nil
}

func (s *memoryStore) RecentImportLogs(ctx context.Context, tenantID string, limit int) ([]models.ImportLog, error) {
	return s.history, nil
}

type stubPlans struct {
	limit importer.PlanLimit
}

func (p *stubPlans) CheckLimit(ctx context.Context, tenantID, resource string) (*importer.PlanLimit, error) {
	return &p.limit, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupRouter(store *memoryStore, plans importer.PlanChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(store, plans, nil, testLogger())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("tenant_id", "tenant-1")
		c.Set("user_id", "user-1")
	})
	router.POST("/products/parse", handler.ParseText)
	router.POST("/products/bulk", handler.BulkCreateProducts)
	router.POST("/products/import", handler.ImportFile)
	router.POST("/products/import/validate", handler.ValidateImportFile)
	router.GET("/products/import/template", handler.GetImportTemplate)
	router.GET("/imports/logs", handler.GetImportLogs)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func uploadFile(t *testing.T, router *gin.Engine, path, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestParseTextReturnsProducts(t *testing.T) {
	router := setupRouter(&memoryStore{}, nil)

	resp := doJSON(t, router, http.MethodPost, "/products/parse", models.ParseTextRequest{
		Text: "Remera Oversize Negra | categoria: Remeras | precio: $12.500 | stock: 20",
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
	product := data["products"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Remera Oversize Negra", product["name"])
	assert.Equal(t, "Remeras", product["category"])
	assert.Equal(t, float64(12500), product["price"])
}

func TestParseTextNothingParsable(t *testing.T) {
	router := setupRouter(&memoryStore{}, nil)

	resp := doJSON(t, router, http.MethodPost, "/products/parse", models.ParseTextRequest{Text: "   \n  \n"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, models.ErrCodeParseError, errObj["code"])
	assert.Contains(t, errObj["message"], "formato")
}

func TestParseTextMissingBody(t *testing.T) {
	router := setupRouter(&memoryStore{}, nil)

	resp := doJSON(t, router, http.MethodPost, "/products/parse", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBulkCreateProducts(t *testing.T) {
	store := &memoryStore{}
	router := setupRouter(store, nil)

	active := true
	resp := doJSON(t, router, http.MethodPost, "/products/bulk", models.BulkCreateProductsRequest{
		Products: []models.ProductInput{
			{Name: "Remera Negra", Category: "Remeras", Price: 12500, Stock: 9, Sizes: []string{"S", "M", "L"}, Active: &active},
			{Name: "Pantalón Cargo", Category: "Pantalones", Price: 28000, Stock: 4},
		},
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["created"])
	require.Len(t, store.products, 2)

	// sizes S/M/L over stock 9 must come back as 3 each
	first := store.products[0]
	require.NotNil(t, first.StockBySize)
	for _, size := range []string{"S", "M", "L"} {
		assert.EqualValues(t, 3, (*first.StockBySize)[size])
	}

	// the audit snapshot is persisted alongside the batch
	require.Len(t, store.logs, 1)
	assert.Equal(t, "tenant-1", store.logs[0].TenantID)
	assert.Equal(t, 2, store.logs[0].Created)
}

func TestInputToRecordRepeatedSizes(t *testing.T) {
	record := inputToRecord(models.ProductInput{
		Name: "Remera", Category: "Remeras", Price: 100, Stock: 10,
		Sizes: []string{"S", "S", "M"},
	})

	assert.Equal(t, []string{"S", "M"}, record.Sizes)
	total := 0
	for _, qty := range record.StockBySize {
		total += qty
	}
	assert.Equal(t, record.Stock, total, "the per-size split must account for every unit")
}

func TestInputToRecordRepeatedSizesWithExplicitSplit(t *testing.T) {
	record := inputToRecord(models.ProductInput{
		Name: "Remera", Category: "Remeras", Price: 100,
		Sizes:       []string{"S", "S", "M"},
		StockBySize: map[string]int{"S": 6, "M": 4},
	})

	assert.Equal(t, []string{"S", "M"}, record.Sizes)
	assert.Equal(t, 10, record.Stock)
}

func TestBulkCreateProductsPlanLimit(t *testing.T) {
	store := &memoryStore{}
	plans := &stubPlans{limit: importer.PlanLimit{Allowed: true, Current: 98, Limit: 100}}
	router := setupRouter(store, plans)

	var products []models.ProductInput
	for _, name := range []string{"P uno", "P dos", "P tres", "P cuatro", "P cinco"} {
		products = append(products, models.ProductInput{Name: name, Category: "General", Price: 100, Stock: 1})
	}

	resp := doJSON(t, router, http.MethodPost, "/products/bulk", models.BulkCreateProductsRequest{Products: products})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, models.ErrCodePlanLimit, errObj["code"])
	assert.Contains(t, errObj["message"], "plan")
	assert.Empty(t, store.products)
}

func TestBulkCreateEmptyBatchRejected(t *testing.T) {
	router := setupRouter(&memoryStore{}, nil)

	resp := doJSON(t, router, http.MethodPost, "/products/bulk", models.BulkCreateProductsRequest{Products: []models.ProductInput{}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestImportFileCSV(t *testing.T) {
	store := &memoryStore{}
	router := setupRouter(store, nil)

	csvContent := "nombre,categoria,precio,stock\n" +
		"Remera Lisa,Remeras,9900,12\n" +
		"Buzo Canguro,Buzos,31000,6\n"
	resp := uploadFile(t, router, "/products/import", "productos.csv", "text/csv", csvContent)

	assert.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["created"])
	assert.Len(t, store.products, 2)
}

func TestImportFileRejectedExtension(t *testing.T) {
	store := &memoryStore{}
	router := setupRouter(store, nil)

	resp := uploadFile(t, router, "/products/import", "productos.pdf", "application/pdf", "%PDF-1.4")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, models.ErrCodeUnsupportedFormat, errObj["code"])
	assert.Empty(t, store.products)
}

func TestFormatForExtension(t *testing.T) {
	cases := map[string]models.ImportFormat{
		"csv":  models.ImportFormatCSV,
		"xlsx": models.ImportFormatXLSX,
		"xls":  models.ImportFormatXLSX,
		"json": models.ImportFormatJSON,
		"txt":  models.ImportFormatText,
		"":     models.ImportFormatText,
	}
	for ext, want := range cases {
		assert.Equal(t, want, formatForExtension(ext), "extension %q", ext)
	}
}

func TestImportFileMissingField(t *testing.T) {
	router := setupRouter(&memoryStore{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/products/import", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestValidateImportFileDryRun(t *testing.T) {
	store := &memoryStore{}
	router := setupRouter(store, nil)

	csvContent := "nombre,categoria,precio,stock\n" +
		"Remera Lisa,Remeras,9900,12\n" +
		"X,Remeras,9900,1\n" // name too short
	resp := uploadFile(t, router, "/products/import/validate", "productos.csv", "text/csv", csvContent)

	assert.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["validCount"])
	assert.Len(t, body["validations"].([]interface{}), 2)

	// dry run: nothing reaches the store
	assert.Empty(t, store.products)
	assert.Empty(t, store.logs)
}

func TestGetImportTemplateJSON(t *testing.T) {
	router := setupRouter(&memoryStore{}, nil)

	resp := doJSON(t, router, http.MethodGet, "/products/import/template", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	template := body["template"].(map[string]interface{})
	columns := template["columns"].([]interface{})
	assert.NotEmpty(t, columns)
	first := columns[0].(map[string]interface{})
	assert.Equal(t, "nombre", first["name"])
}

func TestGetImportTemplateCSV(t *testing.T) {
	router := setupRouter(&memoryStore{}, nil)

	resp := doJSON(t, router, http.MethodGet, "/products/import/template?format=csv", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "productos_plantilla.csv")
	assert.Contains(t, resp.Body.String(), "nombre")
	assert.Contains(t, resp.Body.String(), "precio")
}

func TestGetImportTemplateXLSX(t *testing.T) {
	router := setupRouter(&memoryStore{}, nil)

	resp := doJSON(t, router, http.MethodGet, "/products/import/template?format=xlsx", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "productos_plantilla.xlsx")
	assert.NotZero(t, resp.Body.Len())
}

func TestGetImportLogs(t *testing.T) {
	store := &memoryStore{
		history: []models.ImportLog{{TenantID: "tenant-1", Format: "csv", TotalRows: 10, Created: 8}},
	}
	router := setupRouter(store, nil)

	resp := doJSON(t, router, http.MethodGet, "/imports/logs", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	logs := body["data"].([]interface{})
	require.Len(t, logs, 1)
}
