package classify

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the sentinel for malformed classifier input
var ErrInvalidInput = errors.New("invalid classifier input")

// InvalidInputError describes a feature vector the classifier cannot score
type InvalidInputError struct {
	Got    int    // Vector length received
	Want   int    // Vector length expected
	Reason string // Set for well-sized vectors with bad values
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
	}
	return fmt.Sprintf("%s: expected %d features, got %d", ErrInvalidInput, e.Want, e.Got)
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}
