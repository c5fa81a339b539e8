package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound        = errors.New("quote not found")
	ErrConflict        = errors.New("quote already exists")
	ErrInvalidQuote    = errors.New("invalid quote")
	ErrInvalidProposal = errors.New("invalid proposal")
)
