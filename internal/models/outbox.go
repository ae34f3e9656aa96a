package models

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Fulfillment event types recorded in the outbox. Entity writes and their
// events commit in the same transaction; the relay publishes them afterwards.
const (
	EventOrderCreated         = "order_created"
	EventOrderStatusChanged   = "order_status_changed"
	EventInvoiceCreated       = "invoice_created"
	EventInvoiceStatusChanged = "invoice_status_changed"
	EventPaymentCreated       = "payment_created"
	EventPaymentStatusChanged = "payment_status_changed"
)

// OutboxMessage represents a fulfillment event awaiting publication.
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent is the envelope serialized into the message payload.
type OutboxMessageEvent struct {
	EventType   string      `json:"event_type"`
	EventID     string      `json:"event_id"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

func newOutboxMessage(aggregateType, aggregateID, eventType string, data interface{}, now time.Time) (*OutboxMessage, error) {
	event := OutboxMessageEvent{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: aggregateID,
		OccurredAt:  now,
		Data:        data,
	}

	payload, err := json.Marshal(event)

	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType:      aggregateType,
		AggregateID:        aggregateID,
		EventType:          eventType,
		Payload:            payload,
		CreatedAt:          now,
		ProcessingAttempts: 0,
		Status:             OutboxStatusPending,
	}, nil
}

// NewOrderCreatedEvent records the creation of an order.
func NewOrderCreatedEvent(order *Order, now time.Time) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventOrderCreated, order, now)
}

// NewOrderStatusChangedEvent records an order status transition.
func NewOrderStatusChangedEvent(order *Order, oldStatus string, now time.Time) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventOrderStatusChanged, map[string]interface{}{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"old_status":  oldStatus,
		"new_status":  order.Status,
	}, now)
}

// NewInvoiceCreatedEvent records the creation of an invoice.
func NewInvoiceCreatedEvent(invoice *Invoice, now time.Time) (*OutboxMessage, error) {
	return newOutboxMessage("invoice", invoice.ID, EventInvoiceCreated, invoice, now)
}

// NewInvoiceStatusChangedEvent records an invoice status transition.
func NewInvoiceStatusChangedEvent(invoice *Invoice, oldStatus string, now time.Time) (*OutboxMessage, error) {
	return newOutboxMessage("invoice", invoice.ID, EventInvoiceStatusChanged, map[string]interface{}{
		"invoice_id": invoice.ID,
		"order_id":   invoice.OrderID,
		"old_status": oldStatus,
		"new_status": invoice.Status,
	}, now)
}

// NewPaymentCreatedEvent records the creation of a payment.
func NewPaymentCreatedEvent(payment *Payment, now time.Time) (*OutboxMessage, error) {
	return newOutboxMessage("payment", payment.ID, EventPaymentCreated, payment, now)
}

// NewPaymentStatusChangedEvent records a payment status transition.
func NewPaymentStatusChangedEvent(payment *Payment, oldStatus string, now time.Time) (*OutboxMessage, error) {
	return newOutboxMessage("payment", payment.ID, EventPaymentStatusChanged, map[string]interface{}{
		"payment_id": payment.ID,
		"invoice_id": payment.InvoiceID,
		"old_status": oldStatus,
		"new_status": payment.Status,
	}, now)
}
