package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"grocery-market/internal/domain"
	"grocery-market/internal/events"
	"grocery-market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// priceTolerance is the largest accepted difference between a requested unit
// price and the product's current price.
func priceTolerance() decimal.Decimal {
	return decimal.New(1, -2)
}

// OrderLine is one requested product line of a new order
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateOrderInput carries everything needed to place an order
type CreateOrderInput struct {
	CustomerID      uuid.UUID
	SellerID        uuid.UUID
	PaymentMethod   domain.PaymentMethod
	DeliveryAddress string
	Notes           *string
	Items           []OrderLine
}

func (in CreateOrderInput) validate() error {
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return newOrderError(ErrInvalidInput, "delivery address is required")
	}
	if len(in.Items) == 0 {
		return newOrderError(ErrInvalidInput, "order must contain at least one item")
	}
	for i, line := range in.Items {
		if line.Quantity <= 0 {
			return newOrderError(ErrInvalidInput, "item %d: quantity must be positive", i+1)
		}
		// Prices are kept to the cent, so a price that rounds to zero is not positive.
		if !line.UnitPrice.Round(2).IsPositive() {
			return newOrderError(ErrInvalidInput, "item %d: unit price must be at least 0.01", i+1)
		}
	}
	return nil
}

// OrderService defines the order lifecycle and status operations
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	// UpdateOrderStatus returns (nil, nil) when the order does not exist or
	// belongs to a different seller.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, target domain.OrderStatus, sellerID uuid.UUID) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error)
}

type orderService struct {
	store     repository.Store
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(store repository.Store, publisher events.Publisher, logger *zap.Logger) OrderService {
	return &orderService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder validates the request against current store state and persists
// the order, its items and the stock decrements in one transaction.
func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().FindByIDAndRole(ctx, input.CustomerID, domain.RoleCustomer); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return newOrderError(ErrCustomerNotFound, "customer %s not found", input.CustomerID)
			}
			return err
		}

		if _, err := tx.Users().FindByIDAndRole(ctx, input.SellerID, domain.RoleSeller); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return newOrderError(ErrSellerNotFound, "seller %s not found", input.SellerID)
			}
			return err
		}

		products, err := tx.Products().LockForSeller(ctx, input.SellerID, productIDs(input.Items))
		if err != nil {
			return err
		}

		built, err := s.buildOrder(input, products)
		if err != nil {
			return err
		}

		if err := tx.Orders().Create(ctx, built); err != nil {
			return err
		}

		for i := range built.Items {
			item := &built.Items[i]
			if err := tx.Orders().CreateItem(ctx, item); err != nil {
				return err
			}
			if err := tx.Products().DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, repository.ErrStockConflict) {
					return newOrderError(ErrInsufficientStock, "insufficient stock for product %s", item.ProductID)
				}
				return err
			}
		}

		order = built
		return nil
	})

	if err != nil {
		s.logFailure("Order creation failed", err,
			zap.String("customer_id", input.CustomerID.String()),
			zap.String("seller_id", input.SellerID.String()),
		)
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("total_value", order.TotalValue.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
	s.publish(ctx, events.NewOrderEvent(events.TypeOrderCreated, order, ""))

	return order, nil
}

// buildOrder validates every line in input order against the locked products
// and computes line and order totals.
func (s *orderService) buildOrder(input CreateOrderInput, products map[uuid.UUID]*domain.Product) (*domain.Order, error) {
	now := s.now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		CustomerID:      input.CustomerID,
		SellerID:        input.SellerID,
		Status:          domain.StatusPendingConfirmation,
		PaymentMethod:   input.PaymentMethod,
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
		Notes:           input.Notes,
		Items:           make([]domain.OrderItem, 0, len(input.Items)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Stock left after earlier lines of this same request.
	remaining := make(map[uuid.UUID]int, len(products))
	total := decimal.Zero

	for i, line := range input.Items {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, newOrderError(ErrProductNotFoundForSeller,
				"product %s not found for seller %s", line.ProductID, input.SellerID)
		}

		available, seen := remaining[product.ID]
		if !seen {
			available = product.StockQuantity
		}
		if line.Quantity > available {
			return nil, newOrderError(ErrInsufficientStock,
				"insufficient stock for product %q: requested %d, available %d", product.Name, line.Quantity, available)
		}

		unitPrice := line.UnitPrice.Round(2)
		if unitPrice.Sub(product.Price).Abs().GreaterThan(priceTolerance()) {
			return nil, newOrderError(ErrPriceMismatch,
				"price mismatch for product %q: expected %s, got %s",
				product.Name, product.Price.StringFixed(2), line.UnitPrice.String())
		}

		remaining[product.ID] = available - line.Quantity

		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)

		order.Items = append(order.Items, domain.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  product.ID,
			LineNo:     i + 1,
			Quantity:   line.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: lineTotal,
			CreatedAt:  now,
		})
	}

	order.TotalValue = total
	return order, nil
}

// UpdateOrderStatus applies a status transition for the owning seller.
// Moving into cancelled returns every item's quantity to stock.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, target domain.OrderStatus, sellerID uuid.UUID) (*domain.Order, error) {
	var (
		order    *domain.Order
		previous domain.OrderStatus
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Orders().LockForSeller(ctx, orderID, sellerID)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return nil
			}
			return err
		}

		if !current.Status.CanTransitionTo(target) {
			return invalidTransition(current.Status, target)
		}

		if target == domain.StatusCancelled {
			for _, item := range itemsByProductID(current.Items) {
				if err := tx.Products().IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("failed to restore stock for product %s: %w", item.ProductID, err)
				}
			}
		}

		now := s.now().UTC()
		if err := tx.Orders().UpdateStatus(ctx, current.ID, target, now); err != nil {
			return err
		}

		previous = current.Status
		current.Status = target
		current.UpdatedAt = now
		order = current
		return nil
	})

	if err != nil {
		s.logFailure("Order status update failed", err,
			zap.String("order_id", orderID.String()),
			zap.String("target_status", string(target)),
		)
		return nil, err
	}

	if order == nil {
		s.logger.Debug("Order not found for seller",
			zap.String("order_id", orderID.String()),
			zap.String("seller_id", sellerID.String()),
		)
		return nil, nil
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(order.Status)),
	)
	s.publish(ctx, events.NewOrderEvent(events.TypeOrderStatusChanged, order, previous))

	return order, nil
}

// GetOrder retrieves an order with its items
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// ListOrders retrieves a page of orders matching the filter
func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	orders, total, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// publish is best-effort: the order is already committed.
func (s *orderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID.String()),
			zap.Error(err),
		)
	}
}

func (s *orderService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if IsValidationError(err) {
		s.logger.Debug(msg, fields...)
		return
	}
	s.logger.Error(msg, fields...)
}

func invalidTransition(from, to domain.OrderStatus) *OrderError {
	next := from.NextStatuses()
	if from.Terminal() || len(next) == 0 {
		return newOrderError(ErrInvalidTransition,
			"cannot transition order from %s to %s: %s is final", from, to, from)
	}
	allowed := make([]string, 0, len(next))
	for _, status := range next {
		allowed = append(allowed, string(status))
	}
	return newOrderError(ErrInvalidTransition,
		"cannot transition order from %s to %s: allowed next statuses are %s",
		from, to, strings.Join(allowed, ", "))
}

// itemsByProductID orders items the way LockForSeller orders product rows,
// so cancellations and new orders take row locks in the same order.
func itemsByProductID(items []domain.OrderItem) []domain.OrderItem {
	sorted := append([]domain.OrderItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].ProductID[:], sorted[j].ProductID[:]) < 0
	})
	return sorted
}

func productIDs(lines []OrderLine) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}
