package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a Config that breaks a simulation invariant.
	ErrInvalidConfig = errors.New("sim: invalid config")

	// ErrConsistency indicates realizations disagreed on the sample schedule.
	// It points at a logic defect and must not be recovered from.
	ErrConsistency = errors.New("sim: ensemble consistency violation")
)

// ConsistencyError describes which realization broke the shared schedule.
type ConsistencyError struct {
	Realization int
	Got         int
	Want        int
	Reason      string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%v: realization %d: %s (got %d, want %d)", ErrConsistency, e.Realization, e.Reason, e.Got, e.Want)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrConsistency
}
