package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanOrderTransition(t *testing.T) {
	allowed := [][2]OrderStatus{
		{OrderStatusPending, OrderStatusAccepted},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusAccepted, OrderStatusInvoiced},
		{OrderStatusAccepted, OrderStatusCancelled},
		{OrderStatusInvoiced, OrderStatusPaid},
		{OrderStatusPaid, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusCompleted},
	}

	for _, tc := range allowed {
		assert.True(t, CanOrderTransition(tc[0], tc[1]), "%s -> %s should be allowed", tc[0], tc[1])
	}

	denied := [][2]OrderStatus{
		{OrderStatusPending, OrderStatusInvoiced},
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusInvoiced, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusAccepted},
		{OrderStatusCompleted, OrderStatusShipped},
		{OrderStatusCancelled, OrderStatusPending},
	}

	for _, tc := range denied {
		assert.False(t, CanOrderTransition(tc[0], tc[1]), "%s -> %s should be denied", tc[0], tc[1])
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	orderStatuses := []OrderStatus{
		OrderStatusPending, OrderStatusAccepted, OrderStatusInvoiced,
		OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled,
	}
	for _, to := range orderStatuses {
		assert.False(t, CanOrderTransition(OrderStatusCompleted, to))
		assert.False(t, CanOrderTransition(OrderStatusCancelled, to))
	}

	invoiceStatuses := []InvoiceStatus{
		InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled,
	}
	for _, to := range invoiceStatuses {
		assert.False(t, CanInvoiceTransition(InvoiceStatusPaid, to))
		assert.False(t, CanInvoiceTransition(InvoiceStatusCancelled, to))
	}

	paymentStatuses := []PaymentStatus{
		PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusCancelled,
	}
	for _, to := range paymentStatuses {
		assert.False(t, CanPaymentTransition(PaymentStatusCompleted, to))
		assert.False(t, CanPaymentTransition(PaymentStatusFailed, to))
		assert.False(t, CanPaymentTransition(PaymentStatusCancelled, to))
	}
}

func TestCanInvoiceTransition(t *testing.T) {
	assert.True(t, CanInvoiceTransition(InvoiceStatusDraft, InvoiceStatusIssued))
	assert.True(t, CanInvoiceTransition(InvoiceStatusDraft, InvoiceStatusCancelled))
	assert.True(t, CanInvoiceTransition(InvoiceStatusIssued, InvoiceStatusPaid))
	assert.True(t, CanInvoiceTransition(InvoiceStatusIssued, InvoiceStatusOverdue))
	assert.True(t, CanInvoiceTransition(InvoiceStatusIssued, InvoiceStatusCancelled))

	// An overdue invoice can still be settled but not cancelled.
	assert.True(t, CanInvoiceTransition(InvoiceStatusOverdue, InvoiceStatusPaid))
	assert.False(t, CanInvoiceTransition(InvoiceStatusOverdue, InvoiceStatusCancelled))

	assert.False(t, CanInvoiceTransition(InvoiceStatusDraft, InvoiceStatusPaid))
	assert.False(t, CanInvoiceTransition(InvoiceStatusDraft, InvoiceStatusOverdue))
}

func TestMarkStatusStampsTransitionTime(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	order := NewOrder("cus-1", now)

	assert.Equal(t, string(OrderStatusPending), order.Status)
	assert.Nil(t, order.AcceptedAt)

	later := now.Add(time.Hour)
	order.MarkStatus(OrderStatusAccepted, later)

	assert.Equal(t, string(OrderStatusAccepted), order.Status)
	if assert.NotNil(t, order.AcceptedAt) {
		assert.Equal(t, later, *order.AcceptedAt)
	}
	assert.Equal(t, later, order.UpdatedAt)
	assert.Nil(t, order.CancelledAt)
}

func TestGenerateID(t *testing.T) {
	id := GenerateID("ord")

	assert.Len(t, id, len("ord")+1+8)
	assert.Equal(t, "ord-", id[:4])
	assert.NotEqual(t, id, GenerateID("ord"))
}
