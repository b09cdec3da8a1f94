package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"grocery-market/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductInUse    = errors.New("product is referenced by existing orders")
	ErrStockConflict   = errors.New("stock quantity would become negative")
)

// ProductFilter narrows product listings
type ProductFilter struct {
	SellerID  *uuid.UUID
	Category  *domain.Category
	Search    string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	InStock   bool
	SortBy    string
	SortOrder SortOrder
	Pagination
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id, sellerID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	LockByIDForSeller(ctx context.Context, id, sellerID uuid.UUID) (*domain.Product, error)
	LockForSeller(ctx context.Context, sellerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, seller_id, name, description, price, category, origin, stock_quantity, unit, images, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.SellerID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Category,
		&product.Origin,
		&product.StockQuantity,
		&product.Unit,
		pgtype.NewMap().SQLScanner(&product.Images),
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return product, err
}

func imagesOf(product *domain.Product) []string {
	if product.Images == nil {
		return []string{}
	}
	return product.Images
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, seller_id, name, description, price, category, origin, stock_quantity, unit, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.SellerID,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.Origin,
		product.StockQuantity,
		product.Unit,
		imagesOf(product),
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update writes every mutable attribute of a product owned by product.SellerID
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $3, description = $4, price = $5, category = $6, origin = $7,
		    stock_quantity = $8, unit = $9, images = $10, updated_at = $11
		WHERE id = $1 AND seller_id = $2
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.SellerID,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.Origin,
		product.StockQuantity,
		product.Unit,
		imagesOf(product),
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a seller's product. Products referenced by order items are kept.
func (r *productRepository) Delete(ctx context.Context, id, sellerID uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1 AND seller_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, sellerID)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return ErrProductInUse
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// LockByIDForSeller retrieves a product the seller owns with its row locked
// until the surrounding transaction ends, so a read-modify-write of the row
// cannot overwrite a concurrent stock change.
func (r *productRepository) LockByIDForSeller(ctx context.Context, id, sellerID uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND seller_id = $2 FOR UPDATE`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, sellerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	return product, nil
}

// LockForSeller row-locks the seller's products among ids until the
// surrounding transaction ends. Rows are locked in id order so concurrent
// orders touching the same products cannot deadlock. Ids not owned by the
// seller are simply absent from the result.
func (r *productRepository) LockForSeller(ctx context.Context, sellerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	products := make(map[uuid.UUID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE seller_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.db.QueryContext(ctx, query, sellerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[product.ID] = product
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked products: %w", err)
	}

	return products, nil
}

// DecrementStock takes quantity units out of stock. The update only applies
// while enough stock remains, so a concurrent writer can never drive the
// quantity negative.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`

	result, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrStockConflict
	}

	return nil
}

// IncrementStock returns quantity units to stock
func (r *productRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// List retrieves products with filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":           true,
		"price":          true,
		"created_at":     true,
		"stock_quantity": true,
	}

	sortBy := filter.SortBy
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := filter.SortOrder
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	page := filter.Pagination.Normalize()

	where := &whereBuilder{}
	if filter.SellerID != nil {
		where.add("seller_id = $%d", *filter.SellerID)
	}
	if filter.Category != nil {
		where.add("category = $%d", *filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where.add("(name ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+search+"%")
	}
	if filter.MinPrice != nil {
		where.add("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		where.add("price <= $%d", *filter.MaxPrice)
	}
	if filter.InStock {
		where.clauses = append(where.clauses, "stock_quantity > 0")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, productColumns, where, sortBy, sortOrder, where.next(), where.next()+1)

	args := append(where.args, page.PageSize, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}
