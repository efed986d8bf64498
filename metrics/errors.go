package metrics

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrInvalidSpec      = errors.New("metrics: invalid metric specification")
	ErrInvalidParam     = errors.New("metrics: invalid parameter")
	ErrShapeMismatch    = errors.New("metrics: inconsistent input shapes")
	ErrSingleClass      = errors.New("metrics: only one class present in y_true")
	ErrUnknownMetric    = errors.New("metrics: unknown metric")
	ErrUnsupportedInput = errors.New("metrics: unsupported input")
)

// InvalidSpecError describes a metric specification that cannot be
// dispatched.
type InvalidSpecError struct {
	Index  int
	Reason string
}

func (e *InvalidSpecError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("metrics: invalid metric specification: %s", e.Reason)
	}
	return fmt.Sprintf("metrics: invalid metric specification at position %d: %s", e.Index, e.Reason)
}

func (e *InvalidSpecError) Unwrap() error { return ErrInvalidSpec }

func invalidParam(name string, value any, legal ...string) error {
	if len(legal) == 0 {
		return fmt.Errorf("%w: %s=%v", ErrInvalidParam, name, value)
	}
	return fmt.Errorf("%w: %s=%v, expected one of %v", ErrInvalidParam, name, value, legal)
}
