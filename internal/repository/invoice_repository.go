package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/swinilab/orderflow/internal/database"
	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/pkg/logger"
)

// InvoiceRepository handles database operations for invoices
type InvoiceRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *database.Database, logger logger.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `id, order_id, amount, status, issue_date, due_date, paid_date, created_at, updated_at`

// CreateInTx inserts a new invoice within a transaction
func (r *InvoiceRepository) CreateInTx(tx *sqlx.Tx, invoice *models.Invoice) error {
	query := `
		INSERT INTO invoices (id, order_id, amount, status, issue_date, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(
		query,
		invoice.ID,
		invoice.OrderID,
		invoice.Amount,
		invoice.Status,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves an invoice by its ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	var invoice models.Invoice
	err := r.db.DB.GetContext(ctx, &invoice, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get invoice by ID", "error", err, "invoiceID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &invoice, nil
}

// GetByIDInTx retrieves an invoice within a transaction
func (r *InvoiceRepository) GetByIDInTx(tx *sqlx.Tx, id string) (*models.Invoice, error) {
	return r.getInTx(tx, id, false)
}

// GetByIDForUpdateInTx retrieves an invoice within a transaction, taking a
// row lock. Payment acceptance locks the invoice before summing completed
// payments, so the check-then-act sequence is single-threaded per invoice.
func (r *InvoiceRepository) GetByIDForUpdateInTx(tx *sqlx.Tx, id string) (*models.Invoice, error) {
	return r.getInTx(tx, id, true)
}

func (r *InvoiceRepository) getInTx(tx *sqlx.Tx, id string, forUpdate bool) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var invoice models.Invoice
	err := tx.Get(&invoice, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &invoice, nil
}

// GetActiveByOrderIDInTx retrieves the non-cancelled invoice for an order,
// if one exists. At most one can exist at a time.
func (r *InvoiceRepository) GetActiveByOrderIDInTx(tx *sqlx.Tx, orderID string) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE order_id = $1 AND status != $2
		LIMIT 1
	`

	var invoice models.Invoice
	err := tx.Get(&invoice, query, orderID, models.InvoiceStatusCancelled)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &invoice, nil
}

// GetAll retrieves all invoices with optional limit and offset
func (r *InvoiceRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var invoices []*models.Invoice
	err := r.db.DB.SelectContext(ctx, &invoices, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get all invoices", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return invoices, nil
}

// UpdateInTx writes an invoice's status and paid date within a transaction.
// Amount, order link and due date are frozen at issuance.
func (r *InvoiceRepository) UpdateInTx(tx *sqlx.Tx, invoice *models.Invoice) error {
	query := `
		UPDATE invoices
		SET status = $1, paid_date = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := tx.Exec(
		query,
		invoice.Status,
		invoice.PaidDate,
		invoice.UpdatedAt,
		invoice.ID,
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

// MarkIssuedOverdue marks every issued invoice whose due date has passed as
// overdue. Already-overdue invoices are untouched, so re-running is a no-op.
func (r *InvoiceRepository) MarkIssuedOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = $2
		WHERE status = $3 AND due_date < $2
	`

	result, err := r.db.DB.ExecContext(ctx, query, models.InvoiceStatusOverdue, now, models.InvoiceStatusIssued)

	if err != nil {
		r.logger.Error("Failed to mark overdue invoices", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return rowsAffected, nil
}
