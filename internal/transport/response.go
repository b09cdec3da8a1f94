package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"grocery-market/internal/domain"
	"grocery-market/internal/middleware"
	"grocery-market/internal/repository"
	"grocery-market/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Role:      string(u.Role),
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            string    `json:"id"`
	SellerID      string    `json:"seller_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	Origin        string    `json:"origin"`
	StockQuantity int       `json:"stock_quantity"`
	Unit          string    `json:"unit"`
	Images        []string  `json:"images"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toProductResponse(p *domain.Product) ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:            p.ID.String(),
		SellerID:      p.SellerID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.InexactFloat64(),
		Category:      string(p.Category),
		Origin:        p.Origin,
		StockQuantity: p.StockQuantity,
		Unit:          string(p.Unit),
		Images:        images,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"product_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customer_id"`
	SellerID        string              `json:"seller_id"`
	TotalValue      float64             `json:"total_value"`
	Status          string              `json:"status"`
	PaymentMethod   string              `json:"payment_method"`
	DeliveryAddress string              `json:"delivery_address"`
	Notes           *string             `json:"notes"`
	Items           []OrderItemResponse `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID.String(),
		CustomerID:      o.CustomerID.String(),
		SellerID:        o.SellerID.String(),
		TotalValue:      o.TotalValue.InexactFloat64(),
		Status:          string(o.Status),
		PaymentMethod:   string(o.PaymentMethod),
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:         item.ID.String(),
			ProductID:  item.ProductID.String(),
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.InexactFloat64(),
			TotalPrice: item.TotalPrice.InexactFloat64(),
		})
	}
	return resp
}

// PagedResponse wraps one page of a listing
type PagedResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func newPagedResponse[T any](items []T, page repository.Pagination, total int) PagedResponse[T] {
	page = page.Normalize()
	if items == nil {
		items = []T{}
	}
	return PagedResponse[T]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: total,
		TotalPages: (total + page.PageSize - 1) / page.PageSize,
	}
}

// queryError is a malformed query or path parameter
type queryError struct {
	field   string
	message string
}

func (e *queryError) Error() string {
	return e.field + ": " + e.message
}

func respondWithQueryError(w http.ResponseWriter, err error) {
	var qe *queryError
	if errors.As(err, &qe) {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: qe.field, Message: qe.message}})
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &queryError{field: name, message: "Must be a valid UUID"}
	}
	return id, nil
}

func parseUUIDQuery(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &queryError{field: name, message: "Must be a valid UUID"}
	}
	return &id, nil
}

func parsePagination(r *http.Request) (repository.Pagination, error) {
	var p repository.Pagination
	for _, param := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"page_size", &p.PageSize}} {
		raw := r.URL.Query().Get(param.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, &queryError{field: param.name, message: "Must be a positive integer"}
		}
		*param.dst = n
	}
	return p.Normalize(), nil
}

// serviceError pairs an error kind with the status and code clients see
type serviceError struct {
	kind   error
	status int
	code   string
}

// serviceErrors is checked in order with errors.Is
var serviceErrors = []serviceError{
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{service.ErrCustomerNotFound, http.StatusNotFound, "customer_not_found"},
	{service.ErrSellerNotFound, http.StatusNotFound, "seller_not_found"},
	{service.ErrProductNotFoundForSeller, http.StatusNotFound, "product_not_found_for_seller"},
	{service.ErrInsufficientStock, http.StatusUnprocessableEntity, "insufficient_stock"},
	{service.ErrPriceMismatch, http.StatusUnprocessableEntity, "price_mismatch"},
	{service.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition"},
	{repository.ErrUserAlreadyExists, http.StatusConflict, "user_already_exists"},
	{repository.ErrProductInUse, http.StatusConflict, "product_in_use"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{repository.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{repository.ErrOrderNotFound, http.StatusNotFound, codeOrderNotFound},
}

const codeOrderNotFound = "order_not_found"

// respondWithServiceError maps service and repository errors onto HTTP
// statuses and error codes. Anything unrecognised is logged and reported as 500.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	for _, known := range serviceErrors {
		if errors.Is(err, known.kind) {
			middleware.RespondWithErrorCode(w, known.status, known.code, err.Error())
			return
		}
	}

	logger.Error(fallback, zap.Error(err))
	middleware.RespondWithErrorCode(w, http.StatusInternalServerError, middleware.CodeInternal, fallback)
}

// respondWithDecodeError distinguishes validation failures from malformed JSON
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithErrorCode(w, http.StatusBadRequest, "invalid_body", "invalid request body")
}
