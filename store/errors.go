package store

import "errors"

var (
	// ErrNotFound is returned when a URN has no base record.
	ErrNotFound = errors.New("inventory: resource not found")

	// ErrIndexUnavailable is returned when a filter names neither
	// service+resource_type, account_id nor a URN.
	ErrIndexUnavailable = errors.New("inventory: no index available for filter")
)
