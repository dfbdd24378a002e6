package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOptionKind is returned when an option kind other than call or put is requested.
	ErrUnsupportedOptionKind = errors.New("unsupported option kind")

	// ErrNotBeforeExpiry is matched by contract errors whose valuation date leaves
	// no business day before expiry.
	ErrNotBeforeExpiry = errors.New("valuation date is not before expiry")
)

// InvalidContractError reports a contract input that failed validation.
type InvalidContractError struct {
	Field  string
	Value  float64
	Reason string
	Err    error
}

func (e *InvalidContractError) Error() string {
	return fmt.Sprintf("invalid contract: %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidContractError) Unwrap() error {
	return e.Err
}
