package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is stored as a tag only; no payment is processed
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentPix          PaymentMethod = "pix"
)

// Order is a customer's purchase from a single seller
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CustomerID      uuid.UUID       `json:"customer_id" db:"customer_id"`
	SellerID        uuid.UUID       `json:"seller_id" db:"seller_id"`
	TotalValue      decimal.Decimal `json:"total_value" db:"total_value"`
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	DeliveryAddress string          `json:"delivery_address" db:"delivery_address"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	Items           []OrderItem     `json:"items,omitempty" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem is one product line of an order. Items only exist as part of
// the order they were created with.
type OrderItem struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	OrderID    uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID  uuid.UUID       `json:"product_id" db:"product_id"`
	LineNo     int             `json:"line_no" db:"line_no"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
