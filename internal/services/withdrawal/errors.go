package withdrawal

import "errors"

// Service errors
var (
	ErrPaymentMethodNotOwned = errors.New("payment method does not belong to user")
	ErrPaymentMethodNoPayout = errors.New("payment method cannot receive payouts")
	ErrNotWithdrawal         = errors.New("transaction is not a withdrawal")
	ErrAlreadyFinalized      = errors.New("withdrawal already finalized")
)
