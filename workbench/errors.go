package workbench

import (
	"fmt"
	"time"
)

// LaunchError indicates the provider subprocess could not be started, or an
// Open was attempted from an invalid state. Launch failures are fatal to the
// session.
type LaunchError struct {
	Command string // Executable that failed to launch
	Err     error  // Underlying cause
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("workbench launch failed for %q: %v", e.Command, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *LaunchError) Unwrap() error { return e.Err }

// TimeoutError indicates a single tool call round-trip exceeded the declared
// response timeout. The call failed; the workbench itself remains usable.
type TimeoutError struct {
	Tool    string        // Tool name of the timed out call
	Timeout time.Duration // The bound that was exceeded
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("workbench call %q timed out after %s", e.Tool, e.Timeout)
}

// ProtocolError indicates the provider's response could not be parsed or
// matched to its request (malformed line, id mismatch, stream ended).
// Provider-reported tool failures are not protocol errors; they surface as
// plain call errors.
type ProtocolError struct {
	Tool   string // Tool name of the affected call
	Reason string // Short description of the violation
	Err    error  // Underlying cause, if any
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("workbench protocol error for %q: %s: %v", e.Tool, e.Reason, e.Err)
	}
	return fmt.Sprintf("workbench protocol error for %q: %s", e.Tool, e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ProtocolError) Unwrap() error { return e.Err }
