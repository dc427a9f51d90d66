package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/middleware"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
	"github.com/reqini/catalogo-indumentaria-sub002/internal/repository"
)

// ProductReader is the read surface the catalog endpoints need
type ProductReader interface {
	GetProducts(ctx context.Context, tenantID string, q repository.ProductListQuery) ([]models.Product, int64, error)
	GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error)
	ListCategories(ctx context.Context, tenantID string) ([]models.Category, error)
}

type ProductsHandler struct {
	store ProductReader
}

func NewProductsHandler(store ProductReader) *ProductsHandler {
	return &ProductsHandler{store: store}
}

// GetProducts lists products with pagination and optional filters
// @Summary List products
// @Description List the tenant's products with pagination, search and category filters
// @Tags Products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param search query string false "Match against name or SKU"
// @Param categoryId query string false "Filter by category"
// @Param active query bool false "Only active products"
// @Success 200 {object} models.ProductListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /products [get]
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	query := repository.ProductListQuery{
		Page:       page,
		Limit:      limit,
		Search:     c.Query("search"),
		CategoryID: c.Query("categoryId"),
		ActiveOnly: c.Query("active") == "true",
	}

	products, total, err := h.store.GetProducts(c.Request.Context(), tenantID, query)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "No se pudo listar los productos")
		return
	}

	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        query.Page,
			Limit:       query.Limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     query.Page < totalPages,
			HasPrevious: query.Page > 1,
		},
	})
}

// GetProduct retrieves one product by ID
// @Summary Get product
// @Description Get one product of the tenant by its ID
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "El ID de producto no es un UUID válido")
		return
	}

	product, err := h.store.GetProductByID(c.Request.Context(), tenantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Producto no encontrado")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "No se pudo leer el producto")
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// GetCategories lists every category of the tenant
// @Summary Get categories
// @Description Get all categories of the tenant
// @Tags Categories
// @Produce json
// @Success 200 {object} models.CategoryListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /categories [get]
func (h *ProductsHandler) GetCategories(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	categories, err := h.store.ListCategories(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "No se pudo listar las categorías")
		return
	}
	c.JSON(http.StatusOK, models.CategoryListResponse{Success: true, Data: categories})
}
