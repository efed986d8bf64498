package resilience

import "errors"

var (
	// ErrSaturated is returned when every slot stays busy for longer than
	// the caller may wait.
	ErrSaturated = errors.New("resilience: all compute slots are busy")

	// ErrDeadline is returned when a computation does not finish in time.
	ErrDeadline = errors.New("resilience: computation deadline exceeded")
)
