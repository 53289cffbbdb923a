package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrInsufficientPoints = errors.New("insufficient reward points")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDuplicateOrderNum  = errors.New("order number already exists")
)

// ValidationError is a client mistake: bad input, empty cart, unmet coupon
// minimum. Its message is safe to show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
