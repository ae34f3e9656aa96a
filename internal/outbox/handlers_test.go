package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/pkg/logger"
)

func TestLoggingHandler(t *testing.T) {
	handler := NewLoggingHandler(logger.NewLogger("error"))
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("handles a fulfillment event", func(t *testing.T) {
		order := models.NewOrder("cus-1", now)
		msg, err := models.NewOrderCreatedEvent(order, now)
		require.NoError(t, err)

		assert.NoError(t, handler.HandleMessage(context.Background(), msg))
	})

	t.Run("rejects a malformed payload", func(t *testing.T) {
		msg := &models.OutboxMessage{
			AggregateType: "order",
			AggregateID:   "ord-1",
			EventType:     models.EventOrderCreated,
			Payload:       []byte("not json"),
			CreatedAt:     now,
			Status:        models.OutboxStatusPending,
		}

		assert.Error(t, handler.HandleMessage(context.Background(), msg))
	})
}
