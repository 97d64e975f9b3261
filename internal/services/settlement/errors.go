package settlement

import "errors"

// Service errors
var (
	ErrMissingReference = errors.New("gateway reference is required")
	ErrNotPayment       = errors.New("reference belongs to a non-payment transaction")
)
