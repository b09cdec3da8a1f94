package service

import (
	"errors"
	"fmt"
)

// Order validation failures. Every OrderError unwraps to one of these, so
// callers match with errors.Is.
var (
	ErrCustomerNotFound         = errors.New("customer not found")
	ErrSellerNotFound           = errors.New("seller not found")
	ErrProductNotFoundForSeller = errors.New("product not found for seller")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrPriceMismatch            = errors.New("price mismatch")
	ErrInvalidTransition        = errors.New("invalid status transition")
	ErrInvalidInput             = errors.New("invalid input")
)

// OrderError is a validation failure carrying a descriptive message
type OrderError struct {
	Kind    error
	Message string
}

func (e *OrderError) Error() string {
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Kind
}

func newOrderError(kind error, format string, args ...interface{}) *OrderError {
	return &OrderError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a domain validation failure
// rather than an unexpected store error.
func IsValidationError(err error) bool {
	var orderErr *OrderError
	return errors.As(err, &orderErr)
}
