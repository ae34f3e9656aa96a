package models

import (
	"time"
)

// Customer owns orders. Immutable after creation except contact fields.
type Customer struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Address     string    `db:"address" json:"address"`
	BankAccount *string   `db:"bank_account" json:"bank_account,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// NewCustomer creates a new customer. The caller supplies the current time so
// creation is deterministic under test.
func NewCustomer(name, email, phone, address string, bankAccount *string, now time.Time) *Customer {
	return &Customer{
		ID:          GenerateID("cus"),
		Name:        name,
		Email:       email,
		Phone:       phone,
		Address:     address,
		BankAccount: bankAccount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
