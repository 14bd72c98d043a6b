// Package session owns one complete conversation run from task to outcome.
//
// The Manager implements scoped acquisition: every workbench subprocess is
// opened before the first participant is constructed, and every opened
// workbench plus every closable backend connection is released exactly once
// when the run ends, on every exit path including mid-run failure. The full
// history of each run is persisted to a transcript store under the run's
// session id, whatever the outcome, so failed conversations stay
// inspectable.
//
// Typical usage:
//
//	mgr := session.NewManager()
//	result, err := mgr.Run(ctx, session.Spec{
//		Task: "Triage the new bug reports.",
//		Participants: []session.ParticipantSpec{
//			{Name: "triager", Instructions: "...", Model: backend, Workbenches: []session.Resource{jira}},
//			{Name: "verifier", Instructions: "...", Model: backend},
//		},
//		Termination: team.TextMention("TESTING COMPLETE"),
//	})
package session
