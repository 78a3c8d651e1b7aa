package products

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError is returned when no product matches an id.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// InsertionError is returned when a product cannot be stored. Only Message is
// meant for clients; Err keeps the store failure for logs.
type InsertionError struct {
	Message string
	Err     error
}

func (e *InsertionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *InsertionError) Unwrap() error {
	return e.Err
}

func ErrNotFound(id uuid.UUID) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf("Product not found with filter: %s", id)}
}

func ErrInsertion(message string) *InsertionError {
	return &InsertionError{Message: message}
}
