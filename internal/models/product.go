package models

import (
	"time"
)

// Product carries the live unit price and stock level. Orders snapshot the
// price at creation time; later product changes never touch existing orders.
type Product struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description,omitempty"`
	UnitPrice     float64   `db:"unit_price" json:"unit_price"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// NewProduct creates a new product
func NewProduct(name, description string, unitPrice float64, stockQuantity int, now time.Time) *Product {
	return &Product{
		ID:            GenerateID("prd"),
		Name:          name,
		Description:   description,
		UnitPrice:     unitPrice,
		StockQuantity: stockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
