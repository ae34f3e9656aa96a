package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/internal/repository"
)

// fakeStore is an in-memory stand-in for the repository layer. RunInTx
// snapshots all state before running the unit of work and restores it on
// error, mirroring transactional rollback. failOn forces a named method to
// fail so atomicity can be exercised.
type fakeStore struct {
	customers map[string]*models.Customer
	products  map[string]*models.Product
	orders    map[string]*models.Order
	items     map[string][]models.OrderItem
	invoices  map[string]*models.Invoice
	payments  map[string]*models.Payment
	outbox    []*models.OutboxMessage
	failOn    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: make(map[string]*models.Customer),
		products:  make(map[string]*models.Product),
		orders:    make(map[string]*models.Order),
		items:     make(map[string][]models.OrderItem),
		invoices:  make(map[string]*models.Invoice),
		payments:  make(map[string]*models.Payment),
		failOn:    make(map[string]error),
	}
}

func (f *fakeStore) fail(method string) error {
	if err, ok := f.failOn[method]; ok {
		return err
	}
	return nil
}

type storeSnapshot struct {
	customers map[string]*models.Customer
	products  map[string]*models.Product
	orders    map[string]*models.Order
	items     map[string][]models.OrderItem
	invoices  map[string]*models.Invoice
	payments  map[string]*models.Payment
	outbox    []*models.OutboxMessage
}

func (f *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		customers: make(map[string]*models.Customer, len(f.customers)),
		products:  make(map[string]*models.Product, len(f.products)),
		orders:    make(map[string]*models.Order, len(f.orders)),
		items:     make(map[string][]models.OrderItem, len(f.items)),
		invoices:  make(map[string]*models.Invoice, len(f.invoices)),
		payments:  make(map[string]*models.Payment, len(f.payments)),
		outbox:    append([]*models.OutboxMessage(nil), f.outbox...),
	}
	for k, v := range f.customers {
		c := *v
		snap.customers[k] = &c
	}
	for k, v := range f.products {
		p := *v
		snap.products[k] = &p
	}
	for k, v := range f.orders {
		o := *v
		snap.orders[k] = &o
	}
	for k, v := range f.items {
		snap.items[k] = append([]models.OrderItem(nil), v...)
	}
	for k, v := range f.invoices {
		i := *v
		snap.invoices[k] = &i
	}
	for k, v := range f.payments {
		p := *v
		snap.payments[k] = &p
	}
	return snap
}

func (f *fakeStore) restore(snap storeSnapshot) {
	f.customers = snap.customers
	f.products = snap.products
	f.orders = snap.orders
	f.items = snap.items
	f.invoices = snap.invoices
	f.payments = snap.payments
	f.outbox = snap.outbox
}

// RunInTx implements TxRunner. The fake repositories ignore the tx handle,
// so passing nil is safe.
func (f *fakeStore) RunInTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	snap := f.snapshot()
	if err := fn(nil); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

// Per-entity adapters narrow fakeStore to the store interfaces so the
// method names of different entities do not collide on one receiver.

// Customers

type customerStoreAdapter struct{ f *fakeStore }

func (a customerStoreAdapter) Create(_ context.Context, customer *models.Customer) error {
	if err := a.f.fail("CreateCustomer"); err != nil {
		return err
	}
	c := *customer
	a.f.customers[c.ID] = &c
	return nil
}

func (a customerStoreAdapter) GetByID(_ context.Context, id string) (*models.Customer, error) {
	return a.f.getCustomer(id)
}

func (a customerStoreAdapter) GetByIDInTx(_ *sqlx.Tx, id string) (*models.Customer, error) {
	return a.f.getCustomer(id)
}

func (f *fakeStore) getCustomer(id string) (*models.Customer, error) {
	if err := f.fail("GetCustomer"); err != nil {
		return nil, err
	}
	stored, ok := f.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *stored
	return &c, nil
}

func (a customerStoreAdapter) UpdateContact(_ context.Context, customer *models.Customer) error {
	if err := a.f.fail("UpdateContact"); err != nil {
		return err
	}
	if _, ok := a.f.customers[customer.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *customer
	a.f.customers[c.ID] = &c
	return nil
}

// Products

type productStoreAdapter struct{ f *fakeStore }

func (a productStoreAdapter) Create(_ context.Context, product *models.Product) error {
	if err := a.f.fail("CreateProduct"); err != nil {
		return err
	}
	p := *product
	a.f.products[p.ID] = &p
	return nil
}

func (a productStoreAdapter) GetByID(_ context.Context, id string) (*models.Product, error) {
	return a.f.getProduct(id)
}

func (a productStoreAdapter) GetAll(_ context.Context, limit, offset int) ([]*models.Product, error) {
	out := make([]*models.Product, 0, len(a.f.products))
	for _, v := range a.f.products {
		p := *v
		out = append(out, &p)
	}
	return out, nil
}

func (a productStoreAdapter) GetByIDForUpdateInTx(_ *sqlx.Tx, id string) (*models.Product, error) {
	return a.f.getProduct(id)
}

func (f *fakeStore) getProduct(id string) (*models.Product, error) {
	if err := f.fail("GetProduct"); err != nil {
		return nil, err
	}
	stored, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := *stored
	return &p, nil
}

func (a productStoreAdapter) UpdateStockInTx(_ *sqlx.Tx, id string, stockQuantity int, updatedAt time.Time) error {
	if err := a.f.fail("UpdateStock"); err != nil {
		return err
	}
	stored, ok := a.f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.StockQuantity = stockQuantity
	stored.UpdatedAt = updatedAt
	return nil
}

// Orders

type orderStoreAdapter struct{ f *fakeStore }

func (a orderStoreAdapter) CreateInTx(_ *sqlx.Tx, order *models.Order) error {
	if err := a.f.fail("CreateOrder"); err != nil {
		return err
	}
	o := *order
	o.Items = nil
	a.f.orders[o.ID] = &o
	return nil
}

func (a orderStoreAdapter) CreateItemInTx(_ *sqlx.Tx, item *models.OrderItem) error {
	if err := a.f.fail("CreateOrderItem"); err != nil {
		return err
	}
	a.f.items[item.OrderID] = append(a.f.items[item.OrderID], *item)
	return nil
}

func (a orderStoreAdapter) GetByID(_ context.Context, id string) (*models.Order, error) {
	order, err := a.f.getOrder(id)
	if err != nil {
		return nil, err
	}
	order.Items = append([]models.OrderItem(nil), a.f.items[id]...)
	return order, nil
}

func (a orderStoreAdapter) GetByIDForUpdateInTx(_ *sqlx.Tx, id string) (*models.Order, error) {
	return a.f.getOrder(id)
}

func (f *fakeStore) getOrder(id string) (*models.Order, error) {
	if err := f.fail("GetOrder"); err != nil {
		return nil, err
	}
	stored, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o := *stored
	return &o, nil
}

func (a orderStoreAdapter) GetItemsInTx(_ *sqlx.Tx, orderID string) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), a.f.items[orderID]...), nil
}

func (a orderStoreAdapter) GetAll(_ context.Context, limit, offset int) ([]*models.Order, error) {
	out := make([]*models.Order, 0, len(a.f.orders))
	for _, v := range a.f.orders {
		o := *v
		out = append(out, &o)
	}
	return out, nil
}

func (a orderStoreAdapter) UpdateInTx(_ *sqlx.Tx, order *models.Order) error {
	if err := a.f.fail("UpdateOrder"); err != nil {
		return err
	}
	if _, ok := a.f.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	o := *order
	o.Items = nil
	a.f.orders[o.ID] = &o
	return nil
}

// Invoices

type invoiceStoreAdapter struct{ f *fakeStore }

func (a invoiceStoreAdapter) CreateInTx(_ *sqlx.Tx, invoice *models.Invoice) error {
	if err := a.f.fail("CreateInvoice"); err != nil {
		return err
	}
	i := *invoice
	a.f.invoices[i.ID] = &i
	return nil
}

func (a invoiceStoreAdapter) GetByID(_ context.Context, id string) (*models.Invoice, error) {
	return a.f.getInvoice(id)
}

func (a invoiceStoreAdapter) GetByIDInTx(_ *sqlx.Tx, id string) (*models.Invoice, error) {
	return a.f.getInvoice(id)
}

func (a invoiceStoreAdapter) GetByIDForUpdateInTx(_ *sqlx.Tx, id string) (*models.Invoice, error) {
	return a.f.getInvoice(id)
}

func (f *fakeStore) getInvoice(id string) (*models.Invoice, error) {
	if err := f.fail("GetInvoice"); err != nil {
		return nil, err
	}
	stored, ok := f.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	i := *stored
	return &i, nil
}

func (a invoiceStoreAdapter) GetActiveByOrderIDInTx(_ *sqlx.Tx, orderID string) (*models.Invoice, error) {
	for _, v := range a.f.invoices {
		if v.OrderID == orderID && v.Status != string(models.InvoiceStatusCancelled) {
			i := *v
			return &i, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (a invoiceStoreAdapter) GetAll(_ context.Context, limit, offset int) ([]*models.Invoice, error) {
	out := make([]*models.Invoice, 0, len(a.f.invoices))
	for _, v := range a.f.invoices {
		i := *v
		out = append(out, &i)
	}
	return out, nil
}

func (a invoiceStoreAdapter) UpdateInTx(_ *sqlx.Tx, invoice *models.Invoice) error {
	if err := a.f.fail("UpdateInvoice"); err != nil {
		return err
	}
	if _, ok := a.f.invoices[invoice.ID]; !ok {
		return repository.ErrNotFound
	}
	i := *invoice
	a.f.invoices[i.ID] = &i
	return nil
}

func (a invoiceStoreAdapter) MarkIssuedOverdue(_ context.Context, now time.Time) (int64, error) {
	if err := a.f.fail("MarkIssuedOverdue"); err != nil {
		return 0, err
	}
	var count int64
	for _, v := range a.f.invoices {
		if v.Status == string(models.InvoiceStatusIssued) && v.DueDate.Before(now) {
			v.Status = string(models.InvoiceStatusOverdue)
			v.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

// Payments

type paymentStoreAdapter struct{ f *fakeStore }

func (a paymentStoreAdapter) CreateInTx(_ *sqlx.Tx, payment *models.Payment) error {
	if err := a.f.fail("CreatePayment"); err != nil {
		return err
	}
	p := *payment
	a.f.payments[p.ID] = &p
	return nil
}

func (a paymentStoreAdapter) GetByID(_ context.Context, id string) (*models.Payment, error) {
	return a.f.getPayment(id)
}

func (a paymentStoreAdapter) GetByIDForUpdateInTx(_ *sqlx.Tx, id string) (*models.Payment, error) {
	return a.f.getPayment(id)
}

func (f *fakeStore) getPayment(id string) (*models.Payment, error) {
	if err := f.fail("GetPayment"); err != nil {
		return nil, err
	}
	stored, ok := f.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := *stored
	return &p, nil
}

func (a paymentStoreAdapter) GetByInvoiceID(_ context.Context, invoiceID string) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, v := range a.f.payments {
		if v.InvoiceID == invoiceID {
			p := *v
			out = append(out, &p)
		}
	}
	return out, nil
}

func (a paymentStoreAdapter) SumCompletedInTx(_ *sqlx.Tx, invoiceID string) (float64, error) {
	if err := a.f.fail("SumCompleted"); err != nil {
		return 0, err
	}
	var sum float64
	for _, v := range a.f.payments {
		if v.InvoiceID == invoiceID && v.Status == string(models.PaymentStatusCompleted) {
			sum += v.Amount
		}
	}
	return sum, nil
}

func (a paymentStoreAdapter) UpdateInTx(_ *sqlx.Tx, payment *models.Payment) error {
	if err := a.f.fail("UpdatePayment"); err != nil {
		return err
	}
	if _, ok := a.f.payments[payment.ID]; !ok {
		return repository.ErrNotFound
	}
	p := *payment
	a.f.payments[p.ID] = &p
	return nil
}

// Outbox

type outboxStoreAdapter struct{ f *fakeStore }

func (a outboxStoreAdapter) CreateInTx(_ *sqlx.Tx, message *models.OutboxMessage) error {
	if err := a.f.fail("CreateOutbox"); err != nil {
		return err
	}
	m := *message
	m.ID = int64(len(a.f.outbox) + 1)
	a.f.outbox = append(a.f.outbox, &m)
	message.ID = m.ID
	return nil
}
