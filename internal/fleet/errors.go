package fleet

import "errors"

// Domain errors for the fleet package.
var (
	// ErrInvalidInput is returned when registration input fails validation.
	// Validation happens before any provider or store call.
	ErrInvalidInput = errors.New("fleet: invalid input")
)
