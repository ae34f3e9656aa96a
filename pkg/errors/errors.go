package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by the fulfillment coordinator. Every fallible
// operation returns one of these, wrapped in an AppError carrying detail.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidState       = errors.New("invalid entity state")
	ErrConflict           = errors.New("resource conflict")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrOverpayment        = errors.New("overpayment")
	ErrPersistenceFailure = errors.New("persistence failure")
)

// AppError is a structured application error with HTTP mapping and retry hints.
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Retryable  bool
	Context    map[string]interface{}
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error kind
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new AppError with the given parameters
func NewAppError(err error, message string, statusCode int, retryable bool) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Context:    make(map[string]interface{}),
	}
}

// IsRetryable reports whether the caller may safely retry the failed call.
// Only persistence failures qualify; every multi-entity write is a single
// transaction, so a retried call either finds the commit applied (and is
// rejected by a status guard) or starts from clean state.
func IsRetryable(err error) bool {
	var appErr *AppError

	if errors.As(err, &appErr) {
		return appErr.Retryable
	}

	return errors.Is(err, ErrPersistenceFailure)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrNotFound, message, http.StatusNotFound, false)
}

// NewInvalidTransitionError reports a status change that is not legal from
// the entity's current status. The caller must re-fetch before retrying.
func NewInvalidTransitionError(entity, from, to string) *AppError {
	msg := fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to)
	return NewAppError(ErrInvalidTransition, msg, http.StatusConflict, false).
		WithContext("entity", entity).
		WithContext("from", from).
		WithContext("to", to)
}

// NewInvalidStateError creates an invalid state error
func NewInvalidStateError(message string) *AppError {
	return NewAppError(ErrInvalidState, message, http.StatusUnprocessableEntity, false)
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusConflict, false)
}

// NewInsufficientStockError reports a requested quantity exceeding stock.
func NewInsufficientStockError(productID string, requested, available int) *AppError {
	msg := fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", productID, requested, available)
	return NewAppError(ErrInsufficientStock, msg, http.StatusUnprocessableEntity, false).
		WithContext("product_id", productID).
		WithContext("requested", requested).
		WithContext("available", available)
}

// NewInvalidAmountError creates an invalid amount error
func NewInvalidAmountError(message string, amount float64) *AppError {
	return NewAppError(ErrInvalidAmount, message, http.StatusUnprocessableEntity, false).
		WithContext("amount", amount)
}

// NewOverpaymentError reports a payment that would push the completed sum
// past the invoice amount.
func NewOverpaymentError(amount, remaining float64) *AppError {
	msg := fmt.Sprintf("payment of %.2f exceeds remaining invoice balance of %.2f", amount, remaining)
	return NewAppError(ErrOverpayment, msg, http.StatusUnprocessableEntity, false).
		WithContext("amount", amount).
		WithContext("remaining", remaining)
}

// NewPersistenceError creates a persistence failure, the only retryable kind.
func NewPersistenceError(message string) *AppError {
	return NewAppError(ErrPersistenceFailure, message, http.StatusServiceUnavailable, true)
}
