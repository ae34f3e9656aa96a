package service

import (
	"time"

	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/pkg/logger"
)

var testClock = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

// testEnv wires every service against one shared fakeStore with a fixed
// clock, so tests control time and observe cross-service effects.
type testEnv struct {
	store    *fakeStore
	orders   *OrderService
	invoices *InvoiceService
	payments *PaymentService
	recon    *ReconciliationService
	catalog  *CatalogService
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	log := logger.NewLogger("error")

	customers := customerStoreAdapter{f: store}
	products := productStoreAdapter{f: store}
	orders := orderStoreAdapter{f: store}
	invoices := invoiceStoreAdapter{f: store}
	payments := paymentStoreAdapter{f: store}
	outbox := outboxStoreAdapter{f: store}

	env := &testEnv{
		store:    store,
		orders:   NewOrderService(store, orders, products, customers, outbox, log),
		invoices: NewInvoiceService(store, invoices, orders, outbox, log),
		payments: NewPaymentService(store, payments, invoices, outbox, log),
		recon:    NewReconciliationService(store, payments, invoices, orders, outbox, log),
		catalog:  NewCatalogService(customers, products, log),
	}

	clock := func() time.Time { return testClock }
	env.orders.now = clock
	env.invoices.now = clock
	env.payments.now = clock
	env.recon.now = clock
	env.catalog.now = clock

	return env
}

func (e *testEnv) seedCustomer() *models.Customer {
	c := models.NewCustomer("Ada Lovelace", "ada@example.com", "555-0100", "12 Analytical Way", nil, testClock)
	e.store.customers[c.ID] = c
	return c
}

func (e *testEnv) seedProduct(price float64, stock int) *models.Product {
	p := models.NewProduct("Widget", "A widget", price, stock, testClock)
	e.store.products[p.ID] = p
	return p
}

func (e *testEnv) seedOrder(customerID string, status models.OrderStatus, total float64) *models.Order {
	o := models.NewOrder(customerID, testClock)
	o.Status = string(status)
	o.TotalAmount = total
	e.store.orders[o.ID] = o
	return o
}

func (e *testEnv) seedInvoice(orderID string, status models.InvoiceStatus, amount float64, dueDate time.Time) *models.Invoice {
	inv := models.NewInvoice(orderID, amount, dueDate, testClock)
	inv.Status = string(status)
	e.store.invoices[inv.ID] = inv
	return inv
}

func (e *testEnv) seedPayment(invoiceID string, status models.PaymentStatus, amount float64) *models.Payment {
	p := models.NewPayment(invoiceID, amount, "bank_transfer", testClock)
	p.Status = string(status)
	e.store.payments[p.ID] = p
	return p
}

func (e *testEnv) outboxEventTypes() []string {
	types := make([]string, 0, len(e.store.outbox))
	for _, m := range e.store.outbox {
		types = append(types, m.EventType)
	}
	return types
}
