package models

import (
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusInvoiced  OrderStatus = "invoiced"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order status moves strictly forward through this graph; cancelled is the
// only escape and is reachable from pending and accepted alone.
var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending: {
		OrderStatusAccepted:  true,
		OrderStatusCancelled: true,
	},
	OrderStatusAccepted: {
		OrderStatusInvoiced:  true,
		OrderStatusCancelled: true,
	},
	OrderStatusInvoiced: {
		OrderStatusPaid: true,
	},
	OrderStatusPaid: {
		OrderStatusShipped: true,
	},
	OrderStatusShipped: {
		OrderStatusCompleted: true,
	},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// CanOrderTransition reports whether an order may move from one status to another.
func CanOrderTransition(from, to OrderStatus) bool {
	return orderTransitions[from][to]
}

// OrderItem belongs to exactly one order and freezes the product's unit
// price at order-creation time. The product reference is weak: the product
// may later change or disappear without invalidating the historical item.
type OrderItem struct {
	ID        string    `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	ProductID string    `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UnitPrice float64   `db:"unit_price" json:"unit_price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order represents an order in the system. TotalAmount is fixed at creation
// as the sum of item unit price times quantity and never recomputed.
type Order struct {
	ID          string      `db:"id" json:"id"`
	CustomerID  string      `db:"customer_id" json:"customer_id"`
	TotalAmount float64     `db:"total_amount" json:"total_amount"`
	Status      string      `db:"status" json:"status"`
	InvoiceID   *string     `db:"invoice_id" json:"invoice_id,omitempty"`
	AcceptedAt  *time.Time  `db:"accepted_at" json:"accepted_at,omitempty"`
	InvoicedAt  *time.Time  `db:"invoiced_at" json:"invoiced_at,omitempty"`
	PaidAt      *time.Time  `db:"paid_at" json:"paid_at,omitempty"`
	ShippedAt   *time.Time  `db:"shipped_at" json:"shipped_at,omitempty"`
	CompletedAt *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt *time.Time  `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
	Items       []OrderItem `db:"-" json:"items,omitempty"`
}

// NewOrder creates a new order in pending status. Items and total are filled
// in by the order lifecycle once prices are snapshotted.
func NewOrder(customerID string, now time.Time) *Order {
	return &Order{
		ID:         GenerateID("ord"),
		CustomerID: customerID,
		Status:     string(OrderStatusPending),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewOrderItem creates an order item with the unit price frozen from the
// product at order-creation time.
func NewOrderItem(orderID, productID string, quantity int, unitPrice float64, now time.Time) *OrderItem {
	return &OrderItem{
		ID:        GenerateID("itm"),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		CreatedAt: now,
	}
}

// MarkStatus applies a transition timestamp alongside the status change.
func (o *Order) MarkStatus(to OrderStatus, now time.Time) {
	o.Status = string(to)
	o.UpdatedAt = now

	switch to {
	case OrderStatusAccepted:
		o.AcceptedAt = &now
	case OrderStatusInvoiced:
		o.InvoicedAt = &now
	case OrderStatusPaid:
		o.PaidAt = &now
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusCompleted:
		o.CompletedAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
	}
}
