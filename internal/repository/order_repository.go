package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/swinilab/orderflow/internal/database"
	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/pkg/logger"
)

// OrderRepository handles database operations for orders and their items
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `id, customer_id, total_amount, status, invoice_id,
	accepted_at, invoiced_at, paid_at, shipped_at, completed_at, cancelled_at,
	created_at, updated_at`

// CreateInTx inserts a new order within a transaction
func (r *OrderRepository) CreateInTx(tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(
		query,
		order.ID,
		order.CustomerID,
		order.TotalAmount,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// CreateItemInTx inserts an order item within a transaction
func (r *OrderRepository) CreateItemInTx(tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(
		query,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.Quantity,
		item.UnitPrice,
		item.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves an order with its items
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by ID", "error", err, "orderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	items, err := r.getItems(ctx, id)

	if err != nil {
		return nil, err
	}

	order.Items = items
	return &order, nil
}

// GetByIDForUpdateInTx retrieves an order within a transaction, taking a row
// lock. The lock serializes concurrent lifecycle transitions per order and
// the live-invoice existence check during invoicing.
func (r *OrderRepository) GetByIDForUpdateInTx(tx *sqlx.Tx, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	var order models.Order
	err := tx.Get(&order, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// GetItemsInTx retrieves an order's items within a transaction, in order of addition
func (r *OrderRepository) GetItemsInTx(tx *sqlx.Tx, orderID string) ([]models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`

	var items []models.OrderItem
	err := tx.Select(&items, query, orderID)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}

func (r *OrderRepository) getItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`

	var items []models.OrderItem
	err := r.db.DB.SelectContext(ctx, &items, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get order items", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}

// GetAll retrieves all orders with optional limit and offset
func (r *OrderRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var orders []*models.Order
	err := r.db.DB.SelectContext(ctx, &orders, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get all orders", "error", err, "limit", limit, "offset", offset)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// UpdateInTx writes an order's status, transition timestamps and invoice link
// within a transaction. TotalAmount and CustomerID are fixed at creation and
// deliberately not part of the update.
func (r *OrderRepository) UpdateInTx(tx *sqlx.Tx, order *models.Order) error {
	query := `
		UPDATE orders
		SET status = $1, invoice_id = $2, accepted_at = $3, invoiced_at = $4,
			paid_at = $5, shipped_at = $6, completed_at = $7, cancelled_at = $8,
			updated_at = $9
		WHERE id = $10
	`

	result, err := tx.Exec(
		query,
		order.Status,
		order.InvoiceID,
		order.AcceptedAt,
		order.InvoicedAt,
		order.PaidAt,
		order.ShippedAt,
		order.CompletedAt,
		order.CancelledAt,
		order.UpdatedAt,
		order.ID,
	)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
