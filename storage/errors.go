package storage

import "errors"

// Storage errors for journal stores.
var (
	// ErrDuplicateKey is returned when a store rejects an append because an
	// equal trade is already recorded for the account.
	ErrDuplicateKey = errors.New("duplicate key: trade already in journal")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
