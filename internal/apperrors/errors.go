// Package apperrors defines the error taxonomy shared by the service layer.
// Handlers translate these into HTTP status codes; everything else is
// treated as a storage failure.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ValidationError signals bad or missing input from the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidation builds a ValidationError with a formatted message.
func NewValidation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError signals that a resource is absent or not owned by the caller.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// NewNotFound builds a NotFoundError for the given resource and ID.
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// StockError signals that the requested quantity exceeds available inventory.
type StockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)",
		e.ProductName, e.Requested, e.Available)
}

// StateError signals an order status transition that is not permitted.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// NewState builds a StateError with a formatted message.
func NewState(format string, args ...interface{}) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

// ProviderError signals a failed payment-provider call. Unlike the other
// kinds it is potentially retryable.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProvider wraps a provider call failure.
func NewProvider(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}

// PersistenceError signals a failed store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store operation %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistence wraps a store operation failure.
func NewPersistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// StatusCode maps a core error to the HTTP status the boundary should emit.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		stock      *StockError
		state      *StateError
		provider   *ProviderError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &stock):
		return fiber.StatusConflict
	case errors.As(err, &state):
		return fiber.StatusConflict
	case errors.As(err, &provider):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
