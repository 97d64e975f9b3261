package refund

import "errors"

// Service errors
var (
	ErrNotRefundable = errors.New("transaction is not refundable")
)
