package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocery-market/internal/domain"
	"grocery-market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductInput carries the attributes of a new listing
type CreateProductInput struct {
	SellerID      uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	Category      domain.Category
	Origin        string
	StockQuantity int
	Unit          domain.Unit
	Images        []string
}

// UpdateProductInput holds the attributes to change. Nil fields are left as stored.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	Category      *domain.Category
	Origin        *string
	StockQuantity *int
	Unit          *domain.Unit
	Images        []string
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	UpdateProduct(ctx context.Context, id, sellerID uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id, sellerID uuid.UUID) error
}

type productService struct {
	store repository.Store
}

// NewProductService creates a new instance of ProductService
func NewProductService(store repository.Store) ProductService {
	return &productService{store: store}
}

// CreateProduct adds a listing for an existing seller
func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if _, err := s.store.Users().FindByIDAndRole(ctx, input.SellerID, domain.RoleSeller); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, newOrderError(ErrSellerNotFound, "seller %s not found", input.SellerID)
		}
		return nil, fmt.Errorf("failed to find seller: %w", err)
	}

	images := input.Images
	if images == nil {
		images = []string{}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:            uuid.New(),
		SellerID:      input.SellerID,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Price:         input.Price.Round(2),
		Category:      input.Category,
		Origin:        strings.TrimSpace(input.Origin),
		StockQuantity: input.StockQuantity,
		Unit:          input.Unit,
		Images:        images,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// GetProduct retrieves a product by ID
func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// ListProducts retrieves a filtered, sorted page of products
func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	products, total, err := s.store.Products().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct merges the provided attributes onto a product the seller owns
func (s *productService) UpdateProduct(ctx context.Context, id, sellerID uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	var product *domain.Product
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Products().LockByIDForSeller(ctx, id, sellerID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			current.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			current.Description = *input.Description
		}
		if input.Price != nil {
			current.Price = input.Price.Round(2)
		}
		if input.Category != nil {
			current.Category = *input.Category
		}
		if input.Origin != nil {
			current.Origin = strings.TrimSpace(*input.Origin)
		}
		if input.StockQuantity != nil {
			current.StockQuantity = *input.StockQuantity
		}
		if input.Unit != nil {
			current.Unit = *input.Unit
		}
		if input.Images != nil {
			current.Images = input.Images
		}
		current.UpdatedAt = time.Now().UTC()

		if err := tx.Products().Update(ctx, current); err != nil {
			return err
		}

		product = current
		return nil
	})

	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// DeleteProduct removes a product the seller owns
func (s *productService) DeleteProduct(ctx context.Context, id, sellerID uuid.UUID) error {
	if err := s.store.Products().Delete(ctx, id, sellerID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) || errors.Is(err, repository.ErrProductInUse) {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
