package transport

import (
	"net/http"
	"strings"

	"grocery-market/internal/domain"
	"grocery-market/internal/middleware"
	"grocery-market/internal/repository"
	"grocery-market/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const categoryTags = "fruits vegetables grains dairy meat seafood bakery beverages spices other"

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	SellerID      string          `json:"seller_id" validate:"required,uuid"`
	Name          string          `json:"name" validate:"required,min=2,max=255"`
	Description   string          `json:"description" validate:"max=2000"`
	Price         decimal.Decimal `json:"price" validate:"required,gt=0,lt=100000000"`
	Category      string          `json:"category" validate:"required,oneof=fruits vegetables grains dairy meat seafood bakery beverages spices other"`
	Origin        string          `json:"origin" validate:"required,max=255"`
	StockQuantity *int            `json:"stock_quantity" validate:"required,gte=0"`
	Unit          string          `json:"unit" validate:"required,oneof=kg g l ml unit dozen bunch box"`
	Images        []string        `json:"images" validate:"omitempty,max=10,dive,url"`
}

// UpdateProductRequest represents a partial product update by its owner
type UpdateProductRequest struct {
	SellerID      string           `json:"seller_id" validate:"required,uuid"`
	Name          *string          `json:"name" validate:"omitempty,min=2,max=255"`
	Description   *string          `json:"description" validate:"omitempty,max=2000"`
	Price         *decimal.Decimal `json:"price" validate:"omitempty,gt=0,lt=100000000"`
	Category      *string          `json:"category" validate:"omitempty,oneof=fruits vegetables grains dairy meat seafood bakery beverages spices other"`
	Origin        *string          `json:"origin" validate:"omitempty,max=255"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	Unit          *string          `json:"unit" validate:"omitempty,oneof=kg g l ml unit dozen bunch box"`
	Images        []string         `json:"images" validate:"omitempty,max=10,dive,url"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)
		r.Patch("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
}

// CreateProduct handles listing a new product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), service.CreateProductInput{
		SellerID:      uuid.MustParse(req.SellerID),
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Category:      domain.Category(req.Category),
		Origin:        req.Origin,
		StockQuantity: *req.StockQuantity,
		Unit:          domain.Unit(req.Unit),
		Images:        req.Images,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("seller_id", product.SellerID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// GetProduct handles fetching a single product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// ListProducts handles catalog browsing with filters, sorting and pagination
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	products, total, err := h.productService.ListProducts(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list products")
		return
	}

	items := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, toProductResponse(p))
	}

	middleware.RespondWithJSON(w, http.StatusOK, newPagedResponse(items, filter.Pagination, total))
}

func parseProductFilter(r *http.Request) (repository.ProductFilter, error) {
	q := r.URL.Query()
	var filter repository.ProductFilter

	page, err := parsePagination(r)
	if err != nil {
		return filter, err
	}
	filter.Pagination = page

	if filter.SellerID, err = parseUUIDQuery(r, "seller_id"); err != nil {
		return filter, err
	}

	if raw := q.Get("category"); raw != "" {
		if !containsTag(categoryTags, raw) {
			return filter, &queryError{field: "category", message: "Must be one of: " + strings.ReplaceAll(categoryTags, " ", ", ")}
		}
		category := domain.Category(raw)
		filter.Category = &category
	}

	filter.Search = q.Get("search")

	for _, bound := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"min_price", &filter.MinPrice}, {"max_price", &filter.MaxPrice}} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return filter, &queryError{field: bound.name, message: "Must be a non-negative number"}
		}
		*bound.dst = &d
	}

	filter.InStock = q.Get("in_stock") == "true"

	switch sortBy := q.Get("sort_by"); sortBy {
	case "", "name", "price", "created_at", "stock_quantity":
		filter.SortBy = sortBy
	default:
		return filter, &queryError{field: "sort_by", message: "Must be one of: name, price, created_at, stock_quantity"}
	}

	switch strings.ToLower(q.Get("sort_order")) {
	case "":
	case "asc":
		filter.SortOrder = repository.SortOrderAsc
	case "desc":
		filter.SortOrder = repository.SortOrderDesc
	default:
		return filter, &queryError{field: "sort_order", message: "Must be one of: asc, desc"}
	}

	return filter, nil
}

func containsTag(tags, value string) bool {
	for _, tag := range strings.Fields(tags) {
		if tag == value {
			return true
		}
	}
	return false
}

// UpdateProduct handles partial product updates by the owning seller
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	input := service.UpdateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Origin:        req.Origin,
		StockQuantity: req.StockQuantity,
		Images:        req.Images,
	}
	if req.Category != nil {
		category := domain.Category(*req.Category)
		input.Category = &category
	}
	if req.Unit != nil {
		unit := domain.Unit(*req.Unit)
		input.Unit = &unit
	}

	product, err := h.productService.UpdateProduct(r.Context(), id, uuid.MustParse(req.SellerID), input)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// DeleteProduct handles removing a product by its owning seller
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	sellerID, err := parseUUIDQuery(r, "seller_id")
	if err != nil {
		respondWithQueryError(w, err)
		return
	}
	if sellerID == nil {
		respondWithQueryError(w, &queryError{field: "seller_id", message: "This field is required"})
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), id, *sellerID); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
