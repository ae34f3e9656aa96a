package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/pkg/logger"
)

// FulfillmentEventsHandler consumes fulfillment events back off the events
// topic. It is the integration point for downstream reactions: customer
// notification on settlement, warehouse notification on shipment.
type FulfillmentEventsHandler struct {
	logger logger.Logger
}

// NewFulfillmentEventsHandler creates a new FulfillmentEventsHandler
func NewFulfillmentEventsHandler(logger logger.Logger) *FulfillmentEventsHandler {
	return &FulfillmentEventsHandler{
		logger: logger,
	}
}

// HandleMessage handles an incoming fulfillment event from Kafka
func (h *FulfillmentEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.OutboxMessageEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("Failed to unmarshal event", "error", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	h.logger.Info("Handling fulfillment event",
		"eventType", event.EventType,
		"eventID", event.EventID,
		"aggregateID", event.AggregateID,
		"occurredAt", event.OccurredAt,
	)

	switch event.EventType {
	case models.EventOrderCreated, models.EventInvoiceCreated, models.EventPaymentCreated:
		return h.handleCreated(event)
	case models.EventOrderStatusChanged, models.EventInvoiceStatusChanged, models.EventPaymentStatusChanged:
		return h.handleStatusChanged(event)
	default:
		h.logger.Warn("Unknown event type", "eventType", event.EventType)
		return nil
	}
}

func (h *FulfillmentEventsHandler) handleCreated(event models.OutboxMessageEvent) error {
	h.logger.Info("Entity created",
		"eventType", event.EventType,
		"aggregateID", event.AggregateID,
		"eventID", event.EventID,
	)
	return nil
}

func (h *FulfillmentEventsHandler) handleStatusChanged(event models.OutboxMessageEvent) error {
	data, ok := event.Data.(map[string]interface{})

	if !ok {
		h.logger.Error("Invalid event data format", "eventID", event.EventID)
		return fmt.Errorf("invalid event data format")
	}

	oldStatus, _ := data["old_status"].(string)
	newStatus, _ := data["new_status"].(string)

	h.logger.Info("Status changed",
		"eventType", event.EventType,
		"aggregateID", event.AggregateID,
		"oldStatus", oldStatus,
		"newStatus", newStatus)

	return nil
}
