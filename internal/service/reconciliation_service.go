package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/swinilab/orderflow/internal/models"
	apperrors "github.com/swinilab/orderflow/pkg/errors"
	"github.com/swinilab/orderflow/pkg/logger"
)

// AcceptPaymentResult is the snapshot of everything the acceptance cascade
// touched. Invoice and Order are the post-cascade states; Order is only
// non-nil when the invoice settled and the cascade reached it.
type AcceptPaymentResult struct {
	Payment *models.Payment `json:"payment"`
	Invoice *models.Invoice `json:"invoice"`
	Order   *models.Order   `json:"order,omitempty"`
}

// ReconciliationService runs the payment-acceptance cascade: completing a
// payment, re-evaluating the invoice's settled sum, and when the invoice
// clears, marking invoice and order paid in that fixed order, all inside
// one transaction.
type ReconciliationService struct {
	tx       TxRunner
	payments PaymentStore
	invoices InvoiceStore
	orders   OrderStore
	outbox   OutboxStore
	logger   logger.Logger
	now      func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(tx TxRunner, payments PaymentStore, invoices InvoiceStore, orders OrderStore, outbox OutboxStore, logger logger.Logger) *ReconciliationService {
	return &ReconciliationService{
		tx:       tx,
		payments: payments,
		invoices: invoices,
		orders:   orders,
		outbox:   outbox,
		logger:   logger,
		now:      models.GetCurrentTime,
	}
}

// AcceptPayment completes a pending payment and cascades the consequences.
// The invoice row lock serializes concurrent acceptances per invoice, so the
// overpayment check always sees the current completed sum. Any failure rolls
// the whole call back: the payment stays pending and nothing downstream
// moves. Re-running after a transient failure is safe because a non-pending
// payment is refused up front.
func (s *ReconciliationService) AcceptPayment(ctx context.Context, paymentID string) (*AcceptPaymentResult, error) {
	var result *AcceptPaymentResult

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		payment, err := s.payments.GetByIDForUpdateInTx(tx, paymentID)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("payment %s not found", paymentID))
		}

		if payment.Status != string(models.PaymentStatusPending) {
			return apperrors.NewInvalidTransitionError("payment", payment.Status, string(models.PaymentStatusCompleted))
		}

		invoice, err := s.invoices.GetByIDForUpdateInTx(tx, payment.InvoiceID)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("invoice %s not found", payment.InvoiceID))
		}

		completedSum, err := s.payments.SumCompletedInTx(tx, invoice.ID)
		if err != nil {
			return err
		}

		settledCents := toCents(completedSum) + toCents(payment.Amount)
		if settledCents > toCents(invoice.Amount) {
			return apperrors.NewOverpaymentError(payment.Amount, invoice.Amount-completedSum)
		}

		now := s.now()

		payment.Status = string(models.PaymentStatusCompleted)
		payment.ProcessedDate = &now
		payment.UpdatedAt = now

		if err := s.payments.UpdateInTx(tx, payment); err != nil {
			return err
		}

		payMsg, err := models.NewPaymentStatusChangedEvent(payment, string(models.PaymentStatusPending), now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, payMsg); err != nil {
			return err
		}

		result = &AcceptPaymentResult{Payment: payment, Invoice: invoice}

		if settledCents < toCents(invoice.Amount) {
			return nil
		}

		// The sum now matches the invoice amount. Settle invoice first, then
		// order, so a reader observing a paid order can trust the invoice
		// and payment behind it.
		invoiceFrom := invoice.Status
		if !models.CanInvoiceTransition(models.InvoiceStatus(invoice.Status), models.InvoiceStatusPaid) {
			return apperrors.NewInvalidTransitionError("invoice", invoice.Status, string(models.InvoiceStatusPaid))
		}

		invoice.Status = string(models.InvoiceStatusPaid)
		invoice.PaidDate = &now
		invoice.UpdatedAt = now

		if err := s.invoices.UpdateInTx(tx, invoice); err != nil {
			return err
		}

		invMsg, err := models.NewInvoiceStatusChangedEvent(invoice, invoiceFrom, now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, invMsg); err != nil {
			return err
		}

		order, err := s.orders.GetByIDForUpdateInTx(tx, invoice.OrderID)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("order %s not found", invoice.OrderID))
		}

		orderFrom := order.Status
		if !models.CanOrderTransition(models.OrderStatus(order.Status), models.OrderStatusPaid) {
			return apperrors.NewInvalidTransitionError("order", order.Status, string(models.OrderStatusPaid))
		}

		order.MarkStatus(models.OrderStatusPaid, now)

		if err := s.orders.UpdateInTx(tx, order); err != nil {
			return err
		}

		ordMsg, err := models.NewOrderStatusChangedEvent(order, orderFrom, now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, ordMsg); err != nil {
			return err
		}

		result.Order = order
		return nil
	})

	if err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Payment accepted",
		"paymentID", result.Payment.ID,
		"invoiceID", result.Invoice.ID,
		"invoiceStatus", result.Invoice.Status,
	)
	return result, nil
}
