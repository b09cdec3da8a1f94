package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is the grocery category tag of a product
type Category string

const (
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
	CategoryGrains     Category = "grains"
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategorySeafood    Category = "seafood"
	CategoryBakery     Category = "bakery"
	CategoryBeverages  Category = "beverages"
	CategorySpices     Category = "spices"
	CategoryOther      Category = "other"
)

// Unit is the unit of measurement a product is sold in
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLiter      Unit = "l"
	UnitMilliliter Unit = "ml"
	UnitPiece      Unit = "unit"
	UnitDozen      Unit = "dozen"
	UnitBunch      Unit = "bunch"
	UnitBox        Unit = "box"
)

// Product represents a seller's listing in the catalog
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	SellerID      uuid.UUID       `json:"seller_id" db:"seller_id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Category      Category        `json:"category" db:"category"`
	Origin        string          `json:"origin" db:"origin"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	Unit          Unit            `json:"unit" db:"unit"`
	Images        []string        `json:"images" db:"images"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
