package models

import "errors"

// Business-rule failures surfaced from transactional helpers. Controllers map
// these to HTTP status codes; anything else inside a transaction becomes a
// logged 500.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyReceived   = errors.New("item already fully received")
	ErrOrderNotDraft     = errors.New("order is not in draft status")
	ErrOrderClosed       = errors.New("order already completed or cancelled")
)
