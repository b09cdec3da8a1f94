package transport

import (
	"context"

	"grocery-market/internal/domain"
	"grocery-market/internal/repository"
	"grocery-market/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubOrderService struct {
	createFn func(ctx context.Context, in service.CreateOrderInput) (*domain.Order, error)
	updateFn func(ctx context.Context, id uuid.UUID, target domain.OrderStatus, sellerID uuid.UUID) (*domain.Order, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	listFn   func(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, in service.CreateOrderInput) (*domain.Order, error) {
	return s.createFn(ctx, in)
}

func (s *stubOrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, target domain.OrderStatus, sellerID uuid.UUID) (*domain.Order, error) {
	return s.updateFn(ctx, id, target, sellerID)
}

func (s *stubOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.getFn(ctx, id)
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	return s.listFn(ctx, filter)
}

type stubProductService struct {
	createFn func(ctx context.Context, in service.CreateProductInput) (*domain.Product, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	listFn   func(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	updateFn func(ctx context.Context, id, sellerID uuid.UUID, in service.UpdateProductInput) (*domain.Product, error)
	deleteFn func(ctx context.Context, id, sellerID uuid.UUID) error
}

func (s *stubProductService) CreateProduct(ctx context.Context, in service.CreateProductInput) (*domain.Product, error) {
	return s.createFn(ctx, in)
}

func (s *stubProductService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.getFn(ctx, id)
}

func (s *stubProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	return s.listFn(ctx, filter)
}

func (s *stubProductService) UpdateProduct(ctx context.Context, id, sellerID uuid.UUID, in service.UpdateProductInput) (*domain.Product, error) {
	return s.updateFn(ctx, id, sellerID, in)
}

func (s *stubProductService) DeleteProduct(ctx context.Context, id, sellerID uuid.UUID) error {
	return s.deleteFn(ctx, id, sellerID)
}

type stubUserService struct {
	createFn func(ctx context.Context, in service.CreateUserInput) (*domain.User, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	listFn   func(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error)
	updateFn func(ctx context.Context, id uuid.UUID, in service.UpdateUserInput) (*domain.User, error)
}

func (s *stubUserService) CreateUser(ctx context.Context, in service.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error) {
	return s.listFn(ctx, filter)
}

func (s *stubUserService) UpdateUser(ctx context.Context, id uuid.UUID, in service.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func newTestRouter(users service.UserService, products service.ProductService, orders service.OrderService) chi.Router {
	r := chi.NewRouter()
	logger := zap.NewNop()
	if users != nil {
		NewUserHandler(users, logger).RegisterRoutes(r)
	}
	if products != nil {
		NewProductHandler(products, logger).RegisterRoutes(r)
	}
	if orders != nil {
		NewOrderHandler(orders, logger).RegisterRoutes(r)
	}
	return r
}
