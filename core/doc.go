// Package core holds the conversation domain types everything else builds
// on: Part and Content for message bodies, Message for one attributed
// conversational record, History for the append-only transcript of a run.
//
// The package depends on nothing above it, so participants, schedulers,
// stores and model adapters can all share these types without cycles.
package core
