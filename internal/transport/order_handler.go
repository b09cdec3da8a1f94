package transport

import (
	"net/http"

	"grocery-market/internal/domain"
	"grocery-market/internal/middleware"
	"grocery-market/internal/repository"
	"grocery-market/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderLineRequest is one requested product line
type OrderLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required,gt=0"`
}

// CreateOrderRequest represents the order placement payload
type CreateOrderRequest struct {
	CustomerID      string             `json:"customer_id" validate:"required,uuid"`
	SellerID        string             `json:"seller_id" validate:"required,uuid"`
	PaymentMethod   string             `json:"payment_method" validate:"required,oneof=cash card bank_transfer pix"`
	DeliveryAddress string             `json:"delivery_address" validate:"required,max=500"`
	Notes           *string            `json:"notes" validate:"omitempty,max=1000"`
	Items           []OrderLineRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

// UpdateOrderStatusRequest represents a status transition requested by a seller
type UpdateOrderStatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=pending_confirmation confirmed delivering delivered cancelled"`
	SellerID string `json:"seller_id" validate:"required,uuid"`
}

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateOrderStatus)
	})
}

// CreateOrder handles order placement
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	input := service.CreateOrderInput{
		CustomerID:      uuid.MustParse(req.CustomerID),
		SellerID:        uuid.MustParse(req.SellerID),
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Items:           make([]service.OrderLine, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderLine{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := h.orderService.CreateOrder(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, toOrderResponse(order))
}

// GetOrder handles fetching an order with its items
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListOrders handles listing orders by customer, seller and status
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	filter := repository.OrderFilter{Pagination: page}
	if filter.CustomerID, err = parseUUIDQuery(r, "customer_id"); err != nil {
		respondWithQueryError(w, err)
		return
	}
	if filter.SellerID, err = parseUUIDQuery(r, "seller_id"); err != nil {
		respondWithQueryError(w, err)
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.OrderStatus(raw)
		if !status.Valid() {
			respondWithQueryError(w, &queryError{field: "status", message: "Unknown order status"})
			return
		}
		filter.Status = &status
	}

	orders, total, err := h.orderService.ListOrders(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list orders")
		return
	}

	items := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderResponse(o))
	}

	middleware.RespondWithJSON(w, http.StatusOK, newPagedResponse(items, page, total))
}

// UpdateOrderStatus handles a seller moving an order through its lifecycle
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithQueryError(w, err)
		return
	}

	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order status validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	order, err := h.orderService.UpdateOrderStatus(r.Context(), id, domain.OrderStatus(req.Status), uuid.MustParse(req.SellerID))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update order status")
		return
	}
	if order == nil {
		middleware.RespondWithErrorCode(w, http.StatusNotFound, codeOrderNotFound, "order not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}
