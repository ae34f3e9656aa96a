package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swinilab/orderflow/internal/models"
	apperrors "github.com/swinilab/orderflow/pkg/errors"
)

func TestCreateOrder(t *testing.T) {
	t.Run("snapshots prices and decrements stock", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		product := env.seedProduct(10.0, 5)

		order, err := env.orders.CreateOrder(context.Background(), customer.ID, []OrderItemInput{
			{ProductID: product.ID, Quantity: 2},
		})

		require.NoError(t, err)
		assert.Equal(t, string(models.OrderStatusPending), order.Status)
		assert.Equal(t, 20.0, order.TotalAmount)
		require.Len(t, order.Items, 1)
		assert.Equal(t, 10.0, order.Items[0].UnitPrice)
		assert.Equal(t, 3, env.store.products[product.ID].StockQuantity)
		assert.Equal(t, []string{models.EventOrderCreated}, env.outboxEventTypes())
	})

	t.Run("total equals sum of item price times quantity", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		cheap := env.seedProduct(2.5, 100)
		dear := env.seedProduct(99.99, 100)

		order, err := env.orders.CreateOrder(context.Background(), customer.ID, []OrderItemInput{
			{ProductID: cheap.ID, Quantity: 4},
			{ProductID: dear.ID, Quantity: 1},
		})

		require.NoError(t, err)
		var want float64
		for _, item := range order.Items {
			want += item.UnitPrice * float64(item.Quantity)
		}
		assert.Equal(t, want, order.TotalAmount)

		// A later product price change never touches the stored order.
		env.store.products[cheap.ID].UnitPrice = 50.0
		stored, err := env.orders.GetOrder(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, want, stored.TotalAmount)
	})

	t.Run("unknown customer", func(t *testing.T) {
		env := newTestEnv()
		product := env.seedProduct(10.0, 5)

		_, err := env.orders.CreateOrder(context.Background(), "cus-missing", []OrderItemInput{
			{ProductID: product.ID, Quantity: 1},
		})

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("unknown product", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()

		_, err := env.orders.CreateOrder(context.Background(), customer.ID, []OrderItemInput{
			{ProductID: "prd-missing", Quantity: 1},
		})

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("insufficient stock rolls everything back", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		plentiful := env.seedProduct(5.0, 50)
		scarce := env.seedProduct(10.0, 1)

		_, err := env.orders.CreateOrder(context.Background(), customer.ID, []OrderItemInput{
			{ProductID: plentiful.ID, Quantity: 10},
			{ProductID: scarce.ID, Quantity: 2},
		})

		assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
		assert.Equal(t, 50, env.store.products[plentiful.ID].StockQuantity)
		assert.Equal(t, 1, env.store.products[scarce.ID].StockQuantity)
		assert.Empty(t, env.store.orders)
		assert.Empty(t, env.store.outbox)
	})

	t.Run("persistence failure rolls back stock", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		product := env.seedProduct(10.0, 5)
		env.store.failOn["CreateOrder"] = errors.New("connection reset")

		_, err := env.orders.CreateOrder(context.Background(), customer.ID, []OrderItemInput{
			{ProductID: product.ID, Quantity: 2},
		})

		assert.ErrorIs(t, err, apperrors.ErrPersistenceFailure)
		assert.True(t, apperrors.IsRetryable(err))
		assert.Equal(t, 5, env.store.products[product.ID].StockQuantity)
	})

	t.Run("rejects empty and non-positive items", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		product := env.seedProduct(10.0, 5)

		_, err := env.orders.CreateOrder(context.Background(), customer.ID, nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)

		_, err = env.orders.CreateOrder(context.Background(), customer.ID, []OrderItemInput{
			{ProductID: product.ID, Quantity: 0},
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})
}

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    models.OrderStatus
		call    func(env *testEnv, id string) (*models.Order, error)
		want    models.OrderStatus
		wantErr error
	}{
		{
			name: "accept from pending",
			from: models.OrderStatusPending,
			call: func(env *testEnv, id string) (*models.Order, error) {
				return env.orders.AcceptOrder(context.Background(), id)
			},
			want: models.OrderStatusAccepted,
		},
		{
			name: "accept from accepted fails",
			from: models.OrderStatusAccepted,
			call: func(env *testEnv, id string) (*models.Order, error) {
				return env.orders.AcceptOrder(context.Background(), id)
			},
			wantErr: apperrors.ErrInvalidTransition,
		},
		{
			name: "ship from paid",
			from: models.OrderStatusPaid,
			call: func(env *testEnv, id string) (*models.Order, error) {
				return env.orders.ShipOrder(context.Background(), id)
			},
			want: models.OrderStatusShipped,
		},
		{
			name: "ship before payment fails",
			from: models.OrderStatusInvoiced,
			call: func(env *testEnv, id string) (*models.Order, error) {
				return env.orders.ShipOrder(context.Background(), id)
			},
			wantErr: apperrors.ErrInvalidTransition,
		},
		{
			name: "complete from shipped",
			from: models.OrderStatusShipped,
			call: func(env *testEnv, id string) (*models.Order, error) {
				return env.orders.CompleteOrder(context.Background(), id)
			},
			want: models.OrderStatusCompleted,
		},
		{
			name: "complete from paid fails",
			from: models.OrderStatusPaid,
			call: func(env *testEnv, id string) (*models.Order, error) {
				return env.orders.CompleteOrder(context.Background(), id)
			},
			wantErr: apperrors.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			customer := env.seedCustomer()
			order := env.seedOrder(customer.ID, tt.from, 100.0)

			got, err := tt.call(env, order.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, string(tt.from), env.store.orders[order.ID].Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, string(tt.want), got.Status)
			assert.Equal(t, string(tt.want), env.store.orders[order.ID].Status)
			assert.Equal(t, []string{models.EventOrderStatusChanged}, env.outboxEventTypes())
		})
	}

	t.Run("unknown order", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.orders.AcceptOrder(context.Background(), "ord-missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("transition records its timestamp", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		order := env.seedOrder(customer.ID, models.OrderStatusPending, 100.0)

		got, err := env.orders.AcceptOrder(context.Background(), order.ID)

		require.NoError(t, err)
		require.NotNil(t, got.AcceptedAt)
		assert.Equal(t, testClock, *got.AcceptedAt)
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("restores stock from pending", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		product := env.seedProduct(10.0, 5)

		order, err := env.orders.CreateOrder(context.Background(), customer.ID, []OrderItemInput{
			{ProductID: product.ID, Quantity: 3},
		})
		require.NoError(t, err)
		require.Equal(t, 2, env.store.products[product.ID].StockQuantity)

		got, err := env.orders.CancelOrder(context.Background(), order.ID)

		require.NoError(t, err)
		assert.Equal(t, string(models.OrderStatusCancelled), got.Status)
		assert.Equal(t, 5, env.store.products[product.ID].StockQuantity)
		require.NotNil(t, got.CancelledAt)
	})

	t.Run("allowed from accepted", func(t *testing.T) {
		env := newTestEnv()
		customer := env.seedCustomer()
		order := env.seedOrder(customer.ID, models.OrderStatusAccepted, 100.0)

		got, err := env.orders.CancelOrder(context.Background(), order.ID)

		require.NoError(t, err)
		assert.Equal(t, string(models.OrderStatusCancelled), got.Status)
	})

	t.Run("refused after invoicing", func(t *testing.T) {
		for _, status := range []models.OrderStatus{
			models.OrderStatusInvoiced,
			models.OrderStatusPaid,
			models.OrderStatusShipped,
			models.OrderStatusCompleted,
			models.OrderStatusCancelled,
		} {
			env := newTestEnv()
			customer := env.seedCustomer()
			order := env.seedOrder(customer.ID, status, 100.0)

			_, err := env.orders.CancelOrder(context.Background(), order.ID)

			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "cancel from %s", status)
			assert.Equal(t, string(status), env.store.orders[order.ID].Status)
		}
	})
}
