package service

import (
	"context"
	"fmt"
	"time"

	"github.com/swinilab/orderflow/internal/models"
	apperrors "github.com/swinilab/orderflow/pkg/errors"
	"github.com/swinilab/orderflow/pkg/logger"
)

// CatalogService manages the reference data orders are built from:
// customers and products.
type CatalogService struct {
	customers CustomerStore
	products  ProductStore
	logger    logger.Logger
	now       func() time.Time
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(customers CustomerStore, products ProductStore, logger logger.Logger) *CatalogService {
	return &CatalogService{
		customers: customers,
		products:  products,
		logger:    logger,
		now:       models.GetCurrentTime,
	}
}

// CreateCustomer registers a new customer.
func (s *CatalogService) CreateCustomer(ctx context.Context, name, email, phone, address string, bankAccount *string) (*models.Customer, error) {
	if name == "" || email == "" {
		return nil, apperrors.NewInvalidStateError("customer name and email are required")
	}

	customer := models.NewCustomer(name, email, phone, address, bankAccount, s.now())

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Customer created", "customerID", customer.ID)
	return customer, nil
}

// GetCustomer retrieves a customer by ID.
func (s *CatalogService) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, finishTx(notFoundOr(err, fmt.Sprintf("customer %s not found", id)))
	}
	return customer, nil
}

// UpdateCustomerContact updates a customer's mutable contact fields. Name
// and banking reference are fixed after creation.
func (s *CatalogService) UpdateCustomerContact(ctx context.Context, id, email, phone, address string) (*models.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, finishTx(notFoundOr(err, fmt.Sprintf("customer %s not found", id)))
	}

	if email != "" {
		customer.Email = email
	}
	if phone != "" {
		customer.Phone = phone
	}
	if address != "" {
		customer.Address = address
	}
	customer.UpdatedAt = s.now()

	if err := s.customers.UpdateContact(ctx, customer); err != nil {
		return nil, finishTx(notFoundOr(err, fmt.Sprintf("customer %s not found", id)))
	}

	return customer, nil
}

// CreateProduct registers a new product.
func (s *CatalogService) CreateProduct(ctx context.Context, name, description string, unitPrice float64, stockQuantity int) (*models.Product, error) {
	if name == "" {
		return nil, apperrors.NewInvalidStateError("product name is required")
	}
	if unitPrice < 0 {
		return nil, apperrors.NewInvalidAmountError("unit price cannot be negative", unitPrice)
	}
	if stockQuantity < 0 {
		return nil, apperrors.NewInvalidStateError("stock quantity cannot be negative")
	}

	product := models.NewProduct(name, description, unitPrice, stockQuantity, s.now())

	if err := s.products.Create(ctx, product); err != nil {
		return nil, finishTx(err)
	}

	s.logger.Info("Product created", "productID", product.ID)
	return product, nil
}

// GetProduct retrieves a product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, finishTx(notFoundOr(err, fmt.Sprintf("product %s not found", id)))
	}
	return product, nil
}

// ListProducts retrieves products, newest first.
func (s *CatalogService) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	products, err := s.products.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, finishTx(err)
	}
	return products, nil
}
