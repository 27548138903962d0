// Package apperrors defines the domain error categories shared by all
// services. Callers wrap these sentinels with operation detail and the
// HTTP layer maps them to status codes with errors.Is.
package apperrors

import "errors"

var (
	// ErrNotFound signals that a card, user or block request key did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists signals a duplicate card key or a second pending
	// block request for the same card.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument signals malformed input: an unknown lifecycle
	// action, a non-positive or sub-cent transfer amount, a self-transfer.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState signals an operation a card's current state forbids:
	// insufficient funds, transfer over a non-active card, expiring a card
	// that is still time-valid.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthorized signals that no authenticated actor is present.
	ErrUnauthorized = errors.New("unauthorized")
)
