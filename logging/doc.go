// Package logging defines the Logger interface the team, participants and
// workbenches log through, plus the built-in implementations: SlogAdapter
// over log/slog, RoundtableLogger with contextual scoping helpers, and
// NoOpLogger as the silent default.
//
// Typical setup:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mgr := session.NewManager(func(o *session.Options) { o.Logger = logger })
package logging
