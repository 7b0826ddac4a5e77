package registry

import "errors"

// Registry errors.
var (
	ErrCapacityExceeded = errors.New("owner device capacity exceeded")
	ErrDuplicateKey     = errors.New("device key already registered")
	ErrNotFound         = errors.New("device not found")
)
