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

// PaymentRepository handles database operations for payments
type PaymentRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *database.Database, logger logger.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

const paymentColumns = `id, invoice_id, amount, method, status, payment_date, processed_date, created_at, updated_at`

// CreateInTx inserts a new payment within a transaction
func (r *PaymentRepository) CreateInTx(tx *sqlx.Tx, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, invoice_id, amount, method, status, payment_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(
		query,
		payment.ID,
		payment.InvoiceID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.PaymentDate,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a payment by its ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var payment models.Payment
	err := r.db.DB.GetContext(ctx, &payment, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get payment by ID", "error", err, "paymentID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &payment, nil
}

// GetByIDForUpdateInTx retrieves a payment within a transaction, taking a row lock
func (r *PaymentRepository) GetByIDForUpdateInTx(tx *sqlx.Tx, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`

	var payment models.Payment
	err := tx.Get(&payment, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &payment, nil
}

// GetByInvoiceID retrieves all payments targeting an invoice
func (r *PaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE invoice_id = $1
		ORDER BY created_at DESC
	`

	var payments []*models.Payment
	err := r.db.DB.SelectContext(ctx, &payments, query, invoiceID)

	if err != nil {
		r.logger.Error("Failed to get payments by invoice ID", "error", err, "invoiceID", invoiceID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return payments, nil
}

// SumCompletedInTx computes the completed-payment sum for an invoice inside
// the caller's transaction. Callers lock the invoice row first, so the sum
// cannot move between this read and the writes that depend on it.
func (r *PaymentRepository) SumCompletedInTx(tx *sqlx.Tx, invoiceID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE invoice_id = $1 AND status = $2
	`

	var sum float64
	err := tx.Get(&sum, query, invoiceID, models.PaymentStatusCompleted)

	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return sum, nil
}

// UpdateInTx writes a payment's status and processed date within a transaction
func (r *PaymentRepository) UpdateInTx(tx *sqlx.Tx, payment *models.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, processed_date = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := tx.Exec(
		query,
		payment.Status,
		payment.ProcessedDate,
		payment.UpdatedAt,
		payment.ID,
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
