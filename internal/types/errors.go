package types

import (
	"errors"
	"fmt"
)

// InputError marks a request rejected before any expensive work: empty
// script, no qualifying background clip. Never retried.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func Inputf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

func IsInput(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// CapabilityError wraps a failure of an external capability (synthesis,
// alignment, encoding tool invocation). Transient failures may be retried by
// the caller; permanent ones surface immediately.
type CapabilityError struct {
	Capability string
	Transient  bool
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a capability error worth retrying.
func IsTransient(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce) && ce.Transient
}

// CompositionError marks an encoding-toolchain failure. It is fatal for the
// reel and never retried automatically: the input is almost certainly the
// problem, not the weather.
type CompositionError struct {
	Err error
}

func (e *CompositionError) Error() string { return fmt.Sprintf("compose: %v", e.Err) }

func (e *CompositionError) Unwrap() error { return e.Err }

// StageFailure records which stage of which reel gave up, so a batch report
// can say more than "it broke".
type StageFailure struct {
	ReelID string
	Stage  string
	Err    error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("reel %s: %s: %v", e.ReelID, e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error { return e.Err }
