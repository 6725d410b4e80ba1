package risk

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOutcome = errors.New("unknown outcome")

	errMissingField   = errors.New("required field missing")
	errUnknownValue   = errors.New("value not recognised")
	errOutOfRange     = errors.New("value out of range")
	errBadCalibration = errors.New("invalid calibration")
)

// ValidationError reports input that cannot be normalized.
type ValidationError struct {
	Field  string
	reason error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.reason)
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func missing(field string) error {
	return ValidationError{Field: field, reason: errMissingField}
}

func unknown(field, value string) error {
	return ValidationError{Field: field, reason: fmt.Errorf("%q %w", value, errUnknownValue)}
}

func outOfRange(field string, value interface{}) error {
	return ValidationError{Field: field, reason: fmt.Errorf("%v %w", value, errOutOfRange)}
}
