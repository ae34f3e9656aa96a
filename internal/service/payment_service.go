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

// PaymentService records payment attempts against invoices and governs the
// payment lifecycle up to acceptance, which the ReconciliationService owns.
type PaymentService struct {
	tx       TxRunner
	payments PaymentStore
	invoices InvoiceStore
	outbox   OutboxStore
	logger   logger.Logger
	now      func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(tx TxRunner, payments PaymentStore, invoices InvoiceStore, outbox OutboxStore, logger logger.Logger) *PaymentService {
	return &PaymentService{
		tx:       tx,
		payments: payments,
		invoices: invoices,
		outbox:   outbox,
		logger:   logger,
		now:      models.GetCurrentTime,
	}
}

// CreatePayment records a pending payment against an invoice. The amount is
// checked optimistically here against the invoice total; the authoritative
// overpayment check happens at acceptance, against the sum of completed
// payments at that moment.
func (s *PaymentService) CreatePayment(ctx context.Context, invoiceID string, amount float64, method string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, apperrors.NewInvalidAmountError("payment amount must be positive", amount)
	}

	var payment *models.Payment

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		invoice, err := s.invoices.GetByIDInTx(tx, invoiceID)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("invoice %s not found", invoiceID))
		}

		switch models.InvoiceStatus(invoice.Status) {
		case models.InvoiceStatusPaid, models.InvoiceStatusCancelled:
			return apperrors.NewInvalidStateError(fmt.Sprintf("invoice %s is %s and accepts no further payments", invoiceID, invoice.Status))
		}

		if toCents(amount) > toCents(invoice.Amount) {
			return apperrors.NewInvalidAmountError(fmt.Sprintf("payment amount exceeds invoice amount of %.2f", invoice.Amount), amount)
		}

		now := s.now()
		p := models.NewPayment(invoice.ID, amount, method, now)

		if err := s.payments.CreateInTx(tx, p); err != nil {
			return err
		}

		msg, err := models.NewPaymentCreatedEvent(p, now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, msg); err != nil {
			return err
		}

		payment = p
		return nil
	})

	if err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Payment created", "paymentID", payment.ID, "invoiceID", invoiceID, "amount", amount)
	return payment, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, finishTx(notFoundOr(err, fmt.Sprintf("payment %s not found", id)))
	}
	return payment, nil
}

// ListPaymentsByInvoice retrieves all payments recorded against an invoice.
func (s *PaymentService) ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]*models.Payment, error) {
	payments, err := s.payments.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, finishTx(err)
	}
	return payments, nil
}

// CancelPayment cancels a pending or processing payment. Completed and
// failed payments are terminal.
func (s *PaymentService) CancelPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment *models.Payment

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		p, err := s.payments.GetByIDForUpdateInTx(tx, id)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("payment %s not found", id))
		}

		from := models.PaymentStatus(p.Status)
		if !models.CanPaymentTransition(from, models.PaymentStatusCancelled) {
			return apperrors.NewInvalidTransitionError("payment", p.Status, string(models.PaymentStatusCancelled))
		}

		now := s.now()
		p.Status = string(models.PaymentStatusCancelled)
		p.UpdatedAt = now

		if err := s.payments.UpdateInTx(tx, p); err != nil {
			return err
		}

		msg, err := models.NewPaymentStatusChangedEvent(p, string(from), now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, msg); err != nil {
			return err
		}

		payment = p
		return nil
	})

	if err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Payment cancelled", "paymentID", payment.ID)
	return payment, nil
}
