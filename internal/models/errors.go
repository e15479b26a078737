package models

import "errors"

var (
	// ErrValidation marks malformed input that slipped past form validation.
	ErrValidation = errors.New("validation error")

	// ErrConstraintViolation marks a write the store refused: empty or
	// oversized message, unknown person, duplicate email.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotFound marks a lookup of a record that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotificationDelivery marks a transport failure. It never leaves the
	// notification service.
	ErrNotificationDelivery = errors.New("notification delivery failed")
)
