package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/internal/repository"
	apperrors "github.com/swinilab/orderflow/pkg/errors"
	"github.com/swinilab/orderflow/pkg/logger"
)

// OrderItemInput is a single line of an order-creation request.
type OrderItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderService governs the order lifecycle: creation with stock reservation
// and price snapshotting, the forward-only status transitions, and
// cancellation with stock restoration.
type OrderService struct {
	tx        TxRunner
	orders    OrderStore
	products  ProductStore
	customers CustomerStore
	outbox    OutboxStore
	logger    logger.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(tx TxRunner, orders OrderStore, products ProductStore, customers CustomerStore, outbox OutboxStore, logger logger.Logger) *OrderService {
	return &OrderService{
		tx:        tx,
		orders:    orders,
		products:  products,
		customers: customers,
		outbox:    outbox,
		logger:    logger,
		now:       models.GetCurrentTime,
	}
}

// CreateOrder creates a pending order for a customer, snapshotting unit
// prices and decrementing stock per item. The whole creation is one
// transaction: if any product is missing or short on stock, nothing is
// persisted and no stock moves.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, items []OrderItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperrors.NewInvalidStateError("order must contain at least one item")
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperrors.NewInvalidStateError(fmt.Sprintf("quantity for product %s must be positive", item.ProductID))
		}
	}

	// Products are locked in id order so two concurrent creations touching
	// the same products cannot deadlock.
	sorted := make([]OrderItemInput, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	var order *models.Order

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.customers.GetByIDInTx(tx, customerID); err != nil {
			return notFoundOr(err, fmt.Sprintf("customer %s not found", customerID))
		}

		now := s.now()
		o := models.NewOrder(customerID, now)

		var total float64
		orderItems := make([]models.OrderItem, 0, len(items))

		for _, input := range sorted {
			product, err := s.products.GetByIDForUpdateInTx(tx, input.ProductID)
			if err != nil {
				return notFoundOr(err, fmt.Sprintf("product %s not found", input.ProductID))
			}

			if product.StockQuantity < input.Quantity {
				return apperrors.NewInsufficientStockError(product.ID, input.Quantity, product.StockQuantity)
			}

			if err := s.products.UpdateStockInTx(tx, product.ID, product.StockQuantity-input.Quantity, now); err != nil {
				return err
			}

			item := models.NewOrderItem(o.ID, product.ID, input.Quantity, product.UnitPrice, now)
			orderItems = append(orderItems, *item)
			total += product.UnitPrice * float64(input.Quantity)
		}

		o.TotalAmount = total

		if err := s.orders.CreateInTx(tx, o); err != nil {
			return err
		}

		for i := range orderItems {
			if err := s.orders.CreateItemInTx(tx, &orderItems[i]); err != nil {
				return err
			}
		}

		msg, err := models.NewOrderCreatedEvent(o, now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, msg); err != nil {
			return err
		}

		o.Items = orderItems
		order = o
		return nil
	})

	if err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Order created", "orderID", order.ID, "customerID", customerID, "total", order.TotalAmount)
	return order, nil
}

// GetOrder retrieves an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, finishTx(notFoundOr(err, fmt.Sprintf("order %s not found", id)))
	}
	return order, nil
}

// ListOrders retrieves orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	orders, err := s.orders.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, finishTx(err)
	}
	return orders, nil
}

// AcceptOrder moves an order from pending to accepted.
func (s *OrderService) AcceptOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderStatusAccepted)
}

// ShipOrder moves an order from paid to shipped.
func (s *OrderService) ShipOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderStatusShipped)
}

// CompleteOrder moves an order from shipped to completed.
func (s *OrderService) CompleteOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderStatusCompleted)
}

func (s *OrderService) transition(ctx context.Context, id string, to models.OrderStatus) (*models.Order, error) {
	var order *models.Order

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		o, err := s.orders.GetByIDForUpdateInTx(tx, id)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("order %s not found", id))
		}

		from := models.OrderStatus(o.Status)
		if !models.CanOrderTransition(from, to) {
			return apperrors.NewInvalidTransitionError("order", o.Status, string(to))
		}

		now := s.now()
		o.MarkStatus(to, now)

		if err := s.orders.UpdateInTx(tx, o); err != nil {
			return err
		}

		msg, err := models.NewOrderStatusChangedEvent(o, string(from), now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, msg); err != nil {
			return err
		}

		order = o
		return nil
	})

	if err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Order status changed", "orderID", order.ID, "status", order.Status)
	return order, nil
}

// CancelOrder cancels an order and restores the stock its items reserved.
// Only pending and accepted orders can be cancelled; once invoiced, the
// order is on its way to settlement and must run to completion.
func (s *OrderService) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	var order *models.Order

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		o, err := s.orders.GetByIDForUpdateInTx(tx, id)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("order %s not found", id))
		}

		from := models.OrderStatus(o.Status)
		if !models.CanOrderTransition(from, models.OrderStatusCancelled) {
			return apperrors.NewInvalidTransitionError("order", o.Status, string(models.OrderStatusCancelled))
		}

		items, err := s.orders.GetItemsInTx(tx, o.ID)
		if err != nil {
			return err
		}

		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		now := s.now()

		for _, item := range items {
			product, err := s.products.GetByIDForUpdateInTx(tx, item.ProductID)
			if err != nil {
				// The product reference is weak; a product removed after the
				// order was placed just has no stock to restore.
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return err
			}

			if err := s.products.UpdateStockInTx(tx, product.ID, product.StockQuantity+item.Quantity, now); err != nil {
				return err
			}
		}

		o.MarkStatus(models.OrderStatusCancelled, now)

		if err := s.orders.UpdateInTx(tx, o); err != nil {
			return err
		}

		msg, err := models.NewOrderStatusChangedEvent(o, string(from), now)
		if err != nil {
			return err
		}
		if err := s.outbox.CreateInTx(tx, msg); err != nil {
			return err
		}

		order = o
		return nil
	})

	if err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Order cancelled", "orderID", order.ID)
	return order, nil
}
