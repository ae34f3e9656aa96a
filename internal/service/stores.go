package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/swinilab/orderflow/internal/models"
)

// TxRunner executes a function inside a database transaction, committing on
// nil and rolling back on error.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// CustomerStore is the persistence surface the services need for customers.
type CustomerStore interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	GetByIDInTx(tx *sqlx.Tx, id string) (*models.Customer, error)
	UpdateContact(ctx context.Context, customer *models.Customer) error
}

// ProductStore is the persistence surface the services need for products.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetAll(ctx context.Context, limit, offset int) ([]*models.Product, error)
	GetByIDForUpdateInTx(tx *sqlx.Tx, id string) (*models.Product, error)
	UpdateStockInTx(tx *sqlx.Tx, id string, stockQuantity int, updatedAt time.Time) error
}

// OrderStore is the persistence surface the services need for orders.
type OrderStore interface {
	CreateInTx(tx *sqlx.Tx, order *models.Order) error
	CreateItemInTx(tx *sqlx.Tx, item *models.OrderItem) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByIDForUpdateInTx(tx *sqlx.Tx, id string) (*models.Order, error)
	GetItemsInTx(tx *sqlx.Tx, orderID string) ([]models.OrderItem, error)
	GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error)
	UpdateInTx(tx *sqlx.Tx, order *models.Order) error
}

// InvoiceStore is the persistence surface the services need for invoices.
type InvoiceStore interface {
	CreateInTx(tx *sqlx.Tx, invoice *models.Invoice) error
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	GetByIDInTx(tx *sqlx.Tx, id string) (*models.Invoice, error)
	GetByIDForUpdateInTx(tx *sqlx.Tx, id string) (*models.Invoice, error)
	GetActiveByOrderIDInTx(tx *sqlx.Tx, orderID string) (*models.Invoice, error)
	GetAll(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
	UpdateInTx(tx *sqlx.Tx, invoice *models.Invoice) error
	MarkIssuedOverdue(ctx context.Context, now time.Time) (int64, error)
}

// PaymentStore is the persistence surface the services need for payments.
type PaymentStore interface {
	CreateInTx(tx *sqlx.Tx, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByIDForUpdateInTx(tx *sqlx.Tx, id string) (*models.Payment, error)
	GetByInvoiceID(ctx context.Context, invoiceID string) ([]*models.Payment, error)
	SumCompletedInTx(tx *sqlx.Tx, invoiceID string) (float64, error)
	UpdateInTx(tx *sqlx.Tx, payment *models.Payment) error
}

// OutboxStore records fulfillment events in the same transaction as the
// entity writes that caused them.
type OutboxStore interface {
	CreateInTx(tx *sqlx.Tx, message *models.OutboxMessage) error
}
