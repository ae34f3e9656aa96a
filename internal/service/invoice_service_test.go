package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swinilab/orderflow/internal/models"
	apperrors "github.com/swinilab/orderflow/pkg/errors"
)

func TestCreateFromOrder(t *testing.T) {
	t.Run("copies order total and links the order", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		order := env.seedOrder(customer.ID, models.OrderStatusAccepted, 250.0)

		invoice, err := env.invoices.CreateFromOrder(context.Background(), order.ID, nil)

		require.NoError(t, err)
		assert.Equal(t, string(models.InvoiceStatusDraft), invoice.Status)
		assert.Equal(t, 250.0, invoice.Amount)
		assert.Equal(t, order.ID, invoice.OrderID)
		assert.Equal(t, testClock.Add(defaultPaymentTerm), invoice.DueDate)

		stored := env.store.orders[order.ID]
		assert.Equal(t, string(models.OrderStatusInvoiced), stored.Status)
		require.NotNil(t, stored.InvoiceID)
		assert.Equal(t, invoice.ID, *stored.InvoiceID)
		assert.Equal(t, []string{models.EventInvoiceCreated, models.EventOrderStatusChanged}, env.outboxEventTypes())
	})

	t.Run("honors an explicit due date", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		order := env.seedOrder(customer.ID, models.OrderStatusAccepted, 100.0)
		due := testClock.Add(14 * 24 * time.Hour)

		invoice, err := env.invoices.CreateFromOrder(context.Background(), order.ID, &due)

		require.NoError(t, err)
		assert.Equal(t, due, invoice.DueDate)
	})

	t.Run("rejects a due date in the past", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		order := env.seedOrder(customer.ID, models.OrderStatusAccepted, 100.0)
		due := testClock.Add(-time.Hour)

		_, err := env.invoices.CreateFromOrder(context.Background(), order.ID, &due)

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("only accepted orders can be invoiced", func(t *testing.T) {
		for _, status := range []models.OrderStatus{
			models.OrderStatusPending,
			models.OrderStatusInvoiced,
			models.OrderStatusPaid,
			models.OrderStatusCancelled,
		} {
			env := newTestEnv()
			customer := env.seedCustomer()
			order := env.seedOrder(customer.ID, status, 100.0)

			_, err := env.invoices.CreateFromOrder(context.Background(), order.ID, nil)

			assert.ErrorIs(t, err, apperrors.ErrInvalidState, "invoice from %s", status)
		}
	})

	t.Run("second invoice conflicts while one is live", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		order := env.seedOrder(customer.ID, models.OrderStatusAccepted, 100.0)

		first, err := env.invoices.CreateFromOrder(context.Background(), order.ID, nil)
		require.NoError(t, err)

		// Force the order back to accepted so the conflict check itself is
		// what refuses the second invoice.
		env.store.orders[order.ID].Status = string(models.OrderStatusAccepted)

		_, err = env.invoices.CreateFromOrder(context.Background(), order.ID, nil)

		assert.ErrorIs(t, err, apperrors.ErrConflict)

		live := 0
		for _, inv := range env.store.invoices {
			if inv.Status != string(models.InvoiceStatusCancelled) {
				live++
			}
		}
		assert.Equal(t, 1, live)
		assert.Equal(t, string(models.InvoiceStatusDraft), env.store.invoices[first.ID].Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.invoices.CreateFromOrder(context.Background(), "ord-missing", nil)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("order update failure rolls back the invoice", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		order := env.seedOrder(customer.ID, models.OrderStatusAccepted, 100.0)
		env.store.failOn["UpdateOrder"] = errors.New("connection reset")

		_, err := env.invoices.CreateFromOrder(context.Background(), order.ID, nil)

		assert.ErrorIs(t, err, apperrors.ErrPersistenceFailure)
		assert.Empty(t, env.store.invoices)
		assert.Equal(t, string(models.OrderStatusAccepted), env.store.orders[order.ID].Status)
	})
}

func TestInvoiceTransitions(t *testing.T) {
	t.Run("send issues a draft", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		order := env.seedOrder(customer.ID, models.OrderStatusInvoiced, 100.0)
		invoice := env.seedInvoice(order.ID, models.InvoiceStatusDraft, 100.0, testClock.Add(30*24*time.Hour))

		got, err := env.invoices.SendInvoice(context.Background(), invoice.ID)

		require.NoError(t, err)
		assert.Equal(t, string(models.InvoiceStatusIssued), got.Status)
	})

	t.Run("send is draft-only", func(t *testing.T) {
		for _, status := range []models.InvoiceStatus{
			models.InvoiceStatusIssued,
			models.InvoiceStatusPaid,
			models.InvoiceStatusOverdue,
			models.InvoiceStatusCancelled,
		} {
			env := newTestEnv()
			invoice := env.seedInvoice("ord-1", status, 100.0, testClock.Add(time.Hour))

			_, err := env.invoices.SendInvoice(context.Background(), invoice.ID)

			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "send from %s", status)
		}
	})

	t.Run("cancel from draft and issued", func(t *testing.T) {
		for _, status := range []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusIssued} {
			env := newTestEnv()
			invoice := env.seedInvoice("ord-1", status, 100.0, testClock.Add(time.Hour))

			got, err := env.invoices.CancelInvoice(context.Background(), invoice.ID)

			require.NoError(t, err)
			assert.Equal(t, string(models.InvoiceStatusCancelled), got.Status)
		}
	})

	t.Run("paid invoices cannot be cancelled", func(t *testing.T) {
		env := newTestEnv()
		invoice := env.seedInvoice("ord-1", models.InvoiceStatusPaid, 100.0, testClock.Add(time.Hour))

		_, err := env.invoices.CancelInvoice(context.Background(), invoice.ID)

		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})
}

func TestSweepOverdue(t *testing.T) {
	t.Run("marks issued invoices past due", func(t *testing.T) {
		env := newTestEnv()
		past := env.seedInvoice("ord-1", models.InvoiceStatusIssued, 100.0, testClock.Add(-24*time.Hour))
		future := env.seedInvoice("ord-2", models.InvoiceStatusIssued, 100.0, testClock.Add(24*time.Hour))
		draft := env.seedInvoice("ord-3", models.InvoiceStatusDraft, 100.0, testClock.Add(-24*time.Hour))

		count, err := env.invoices.SweepOverdue(context.Background(), testClock)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, string(models.InvoiceStatusOverdue), env.store.invoices[past.ID].Status)
		assert.Equal(t, string(models.InvoiceStatusIssued), env.store.invoices[future.ID].Status)
		assert.Equal(t, string(models.InvoiceStatusDraft), env.store.invoices[draft.ID].Status)
	})

	t.Run("is idempotent", func(t *testing.T) {
		env := newTestEnv()
		env.seedInvoice("ord-1", models.InvoiceStatusIssued, 100.0, testClock.Add(-24*time.Hour))

		first, err := env.invoices.SweepOverdue(context.Background(), testClock)
		require.NoError(t, err)
		assert.Equal(t, int64(1), first)

		second, err := env.invoices.SweepOverdue(context.Background(), testClock)
		require.NoError(t, err)
		assert.Equal(t, int64(0), second)
	})

	t.Run("an overdue invoice can still be paid", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		order := env.seedOrder(customer.ID, models.OrderStatusInvoiced, 100.0)
		invoice := env.seedInvoice(order.ID, models.InvoiceStatusIssued, 100.0, testClock.Add(-24*time.Hour))

		_, err := env.invoices.SweepOverdue(context.Background(), testClock)
		require.NoError(t, err)

		payment, err := env.payments.CreatePayment(context.Background(), invoice.ID, 100.0, "bank_transfer")
		require.NoError(t, err)

		result, err := env.recon.AcceptPayment(context.Background(), payment.ID)

		require.NoError(t, err)
		assert.Equal(t, string(models.InvoiceStatusPaid), result.Invoice.Status)
	})
}
