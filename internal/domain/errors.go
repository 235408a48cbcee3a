package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrNoSession        = errors.New("no order session in progress")
	ErrSessionClosed    = errors.New("order session already submitted")
	ErrHydrating        = errors.New("order is still loading")
	ErrRemovalLocked    = errors.New("items cannot be removed from this order")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrStaleResponse    = errors.New("response superseded by a newer request")
	ErrMalformedPayload = errors.New("malformed payload")
)
