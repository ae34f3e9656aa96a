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

// CustomerRepository handles database operations for customers
type CustomerRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *database.Database, logger logger.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

const customerColumns = `id, name, email, phone, address, bank_account, created_at, updated_at`

// Create inserts a new customer into the database
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, phone, address, bank_account, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.BankAccount,
		customer.CreatedAt,
		customer.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create customer", "error", err, "customerID", customer.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a customer by its ID
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var customer models.Customer
	err := r.db.DB.GetContext(ctx, &customer, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get customer by ID", "error", err, "customerID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &customer, nil
}

// GetByIDInTx retrieves a customer within a transaction
func (r *CustomerRepository) GetByIDInTx(tx *sqlx.Tx, id string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var customer models.Customer
	err := tx.Get(&customer, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &customer, nil
}

// UpdateContact updates a customer's mutable contact fields
func (r *CustomerRepository) UpdateContact(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET email = $1, phone = $2, address = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.DB.ExecContext(
		ctx,
		query,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.UpdatedAt,
		customer.ID,
	)

	if err != nil {
		r.logger.Error("Failed to update customer", "error", err, "customerID", customer.ID)
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
