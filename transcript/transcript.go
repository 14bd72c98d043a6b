// Package transcript persists conversation histories keyed by session id.
//
// The session manager writes the full history of every finished run here,
// whatever the outcome, so transcripts of failed conversations remain
// inspectable. Implementations must be safe for concurrent use.
package transcript

import (
	"context"

	"github.com/hupe1980/roundtable/core"
)

// Store reads and writes per-session transcripts.
type Store interface {
	// Append adds messages to the end of a session's transcript, creating
	// it if needed.
	Append(ctx context.Context, sessionID string, msgs ...core.Message) error

	// Messages returns the session's transcript in append order. A session
	// that was never written yields an empty slice, not an error.
	Messages(ctx context.Context, sessionID string) ([]core.Message, error)

	// Delete removes a session's transcript. Deleting an absent session is
	// a no-op.
	Delete(ctx context.Context, sessionID string) error
}
