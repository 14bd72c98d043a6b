package participant

import "fmt"

// BackendError reports that the participant's model backend failed to
// produce a response. Unlike a failed tool call, which is fed back to the
// model as a result, a backend failure leaves the participant with nothing
// to say and ends its turn.
type BackendError struct {
	Participant string
	Err         error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("participant %q backend call failed: %v", e.Participant, e.Err)
}

// Unwrap exposes the underlying backend error.
func (e *BackendError) Unwrap() error { return e.Err }

// UnknownToolError reports that the model requested a tool the participant
// never declared. The declared tool set is fixed at construction, so this
// points at a wiring defect rather than a transient failure.
type UnknownToolError struct {
	Participant string
	Tool        string
}

// Error implements the error interface.
func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("participant %q requested unknown tool %q", e.Participant, e.Tool)
}
