package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/internal/repository"
	apperrors "github.com/swinilab/orderflow/pkg/errors"
	"github.com/swinilab/orderflow/pkg/logger"
)

// defaultPaymentTerm is applied when an invoice is created without an
// explicit due date.
const defaultPaymentTerm = 30 * 24 * time.Hour

// InvoiceService derives invoices from accepted orders and governs the
// invoice lifecycle through issuance, overdue detection and cancellation.
// Settlement is handled by the ReconciliationService.
type InvoiceService struct {
	tx       TxRunner
	invoices InvoiceStore
	orders   OrderStore
	outbox   OutboxStore
	logger   logger.Logger
	now      func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(tx TxRunner, invoices InvoiceStore, orders OrderStore, outbox OutboxStore, logger logger.Logger) *InvoiceService {
	return &InvoiceService{
		tx:       tx,
		invoices: invoices,
		orders:   orders,
		outbox:   outbox,
		logger:   logger,
		now:      models.GetCurrentTime,
	}
}

// CreateFromOrder creates a draft invoice for an accepted order, copying the
// order total as the invoice amount. The order moves to invoiced in the same
// transaction. A nil due date gets the default payment term.
func (s *InvoiceService) CreateFromOrder(ctx context.Context, orderID string, dueDate *time.Time) (*models.Invoice, error) {
	var invoice *models.Invoice

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		order, err := s.orders.GetByIDForUpdateInTx(tx, orderID)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("order %s not found", orderID))
		}

		if order.Status != string(models.OrderStatusAccepted) {
			return apperrors.NewInvalidStateError(fmt.Sprintf("order %s is %s, only accepted orders can be invoiced", orderID, order.Status))
		}

		existing, err := s.invoices.GetActiveByOrderIDInTx(tx, orderID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil {
			return apperrors.NewConflictError(fmt.Sprintf("order %s already has invoice %s", orderID, existing.ID))
		}

		now := s.now()

		due := now.Add(defaultPaymentTerm)
		if dueDate != nil {
			if dueDate.Before(now) {
				return apperrors.NewInvalidStateError("due date cannot be before the issue date")
			}
			due = *dueDate
		}

		inv := models.NewInvoice(order.ID, order.TotalAmount, due, now)

		if err := s.invoices.CreateInTx(tx, inv); err != nil {
			return err
		}

		order.MarkStatus(models.OrderStatusInvoiced, now)
		order.InvoiceID = &inv.ID

		if err := s.orders.UpdateInTx(tx, order); err != nil {
			return err
		}

		invMsg, err := models.NewInvoiceCreatedEvent(inv, now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, invMsg); err != nil {
			return err
		}

		ordMsg, err := models.NewOrderStatusChangedEvent(order, string(models.OrderStatusAccepted), now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, ordMsg); err != nil {
			return err
		}

		invoice = inv
		return nil
	})

	if err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Invoice created", "invoiceID", invoice.ID, "orderID", orderID, "amount", invoice.Amount)
	return invoice, nil
}

// GetInvoice retrieves an invoice by ID.
func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, finishTx(notFoundOr(err, fmt.Sprintf("invoice %s not found", id)))
	}
	return invoice, nil
}

// ListInvoices retrieves invoices, newest first.
func (s *InvoiceService) ListInvoices(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	invoices, err := s.invoices.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, finishTx(err)
	}
	return invoices, nil
}

// SendInvoice issues a draft invoice. Only issued invoices accrue overdue
// status and count toward settlement.
func (s *InvoiceService) SendInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	return s.transition(ctx, id, models.InvoiceStatusIssued)
}

// CancelInvoice cancels a draft or issued invoice. Paid invoices cannot be
// cancelled. The order keeps its invoiced status and invoice link for
// history.
func (s *InvoiceService) CancelInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	return s.transition(ctx, id, models.InvoiceStatusCancelled)
}

func (s *InvoiceService) transition(ctx context.Context, id string, to models.InvoiceStatus) (*models.Invoice, error) {
	var invoice *models.Invoice

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		inv, err := s.invoices.GetByIDForUpdateInTx(tx, id)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("invoice %s not found", id))
		}

		from := models.InvoiceStatus(inv.Status)
		if !models.CanInvoiceTransition(from, to) {
			return apperrors.NewInvalidTransitionError("invoice", inv.Status, string(to))
		}

		now := s.now()
		inv.Status = string(to)
		inv.UpdatedAt = now

		if err := s.invoices.UpdateInTx(tx, inv); err != nil {
			return err
		}

		msg, err := models.NewInvoiceStatusChangedEvent(inv, string(from), now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, msg); err != nil {
			return err
		}

		invoice = inv
		return nil
	})

	if err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Invoice status changed", "invoiceID", invoice.ID, "status", invoice.Status)
	return invoice, nil
}

// SweepOverdue marks every issued invoice whose due date has passed as
// overdue. The sweep is a single idempotent statement, safe to run
// concurrently with request traffic.
func (s *InvoiceService) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.invoices.MarkIssuedOverdue(ctx, now)
	if err != nil {
		return 0, finishTx(err)
	}

	if count > 0 {
		s.logger.Info("Marked invoices overdue", "count", count)
	}

	return count, nil
}
