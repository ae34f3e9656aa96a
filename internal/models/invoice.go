package models

import (
	"time"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoices draft, get issued, then settle. An overdue invoice can still be
// paid. Paid and cancelled are terminal; paid invoices cannot be cancelled.
var invoiceTransitions = map[InvoiceStatus]map[InvoiceStatus]bool{
	InvoiceStatusDraft: {
		InvoiceStatusIssued:    true,
		InvoiceStatusCancelled: true,
	},
	InvoiceStatusIssued: {
		InvoiceStatusPaid:      true,
		InvoiceStatusOverdue:   true,
		InvoiceStatusCancelled: true,
	},
	InvoiceStatusOverdue: {
		InvoiceStatusPaid: true,
	},
	InvoiceStatusPaid:      {},
	InvoiceStatusCancelled: {},
}

// CanInvoiceTransition reports whether an invoice may move from one status to another.
func CanInvoiceTransition(from, to InvoiceStatus) bool {
	return invoiceTransitions[from][to]
}

// Invoice bills exactly one order. Amount is copied from the order's total
// at issuance and frozen thereafter.
type Invoice struct {
	ID        string     `db:"id" json:"id"`
	OrderID   string     `db:"order_id" json:"order_id"`
	Amount    float64    `db:"amount" json:"amount"`
	Status    string     `db:"status" json:"status"`
	IssueDate time.Time  `db:"issue_date" json:"issue_date"`
	DueDate   time.Time  `db:"due_date" json:"due_date"`
	PaidDate  *time.Time `db:"paid_date" json:"paid_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// NewInvoice creates a draft invoice for an order, snapshotting the amount.
func NewInvoice(orderID string, amount float64, dueDate, now time.Time) *Invoice {
	return &Invoice{
		ID:        GenerateID("inv"),
		OrderID:   orderID,
		Amount:    amount,
		Status:    string(InvoiceStatusDraft),
		IssueDate: now,
		DueDate:   dueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
