package models

import (
	"time"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentStatusPending: {
		PaymentStatusProcessing: true,
		PaymentStatusCompleted:  true,
		PaymentStatusFailed:     true,
		PaymentStatusCancelled:  true,
	},
	PaymentStatusProcessing: {
		PaymentStatusCompleted: true,
		PaymentStatusFailed:    true,
		PaymentStatusCancelled: true,
	},
	PaymentStatusCompleted: {},
	PaymentStatusFailed:    {},
	PaymentStatusCancelled: {},
}

// CanPaymentTransition reports whether a payment may move from one status to another.
func CanPaymentTransition(from, to PaymentStatus) bool {
	return paymentTransitions[from][to]
}

// Payment is an attempt to settle (part of) an invoice. Many payments may
// target one invoice; only completed ones count toward the invoice amount.
// Method is an opaque tag; gateway processing is out of scope.
type Payment struct {
	ID            string     `db:"id" json:"id"`
	InvoiceID     string     `db:"invoice_id" json:"invoice_id"`
	Amount        float64    `db:"amount" json:"amount"`
	Method        string     `db:"method" json:"method"`
	Status        string     `db:"status" json:"status"`
	PaymentDate   time.Time  `db:"payment_date" json:"payment_date"`
	ProcessedDate *time.Time `db:"processed_date" json:"processed_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// NewPayment creates a pending payment against an invoice.
func NewPayment(invoiceID string, amount float64, method string, now time.Time) *Payment {
	return &Payment{
		ID:          GenerateID("pay"),
		InvoiceID:   invoiceID,
		Amount:      amount,
		Method:      method,
		Status:      string(PaymentStatusPending),
		PaymentDate: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
