// Package model defines the completion backend boundary: the Model
// interface, the normalized Request/Response shapes, and the tool
// declaration types shared by every provider adapter.
//
// Concrete adapters live in the openai and anthropic subpackages; Mock is
// the scripted in-memory backend for tests and offline runs. Participants
// depend only on this package, never on a vendor SDK.
package model
