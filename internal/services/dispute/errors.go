package dispute

import "errors"

// Service errors
var (
	ErrNotDisputable   = errors.New("transaction cannot be disputed")
	ErrAlreadyDisputed = errors.New("transaction already has an open dispute")
	ErrAlreadyResolved = errors.New("dispute already resolved")
	ErrInvalidOutcome  = errors.New("invalid dispute outcome")
)
