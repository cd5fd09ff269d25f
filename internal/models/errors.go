package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested resource is not found.
	// It is also returned when the resource exists but belongs to another user.
	// Repositories prefix the entity: fmt.Errorf("order %w", ErrNotFound).
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when request data fails validation.
	// Callers wrap it with the detail: fmt.Errorf("%w: ...", ErrInvalidInput).
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a write would violate a uniqueness rule,
	// e.g. a duplicate customer email within the same account.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden is returned when an authenticated user lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrTrackingNumberTaken is returned by the shipment store when the tracking
	// number is already in use.
	ErrTrackingNumberTaken = fmt.Errorf("%w: tracking number is already in use", ErrConflict)
)
