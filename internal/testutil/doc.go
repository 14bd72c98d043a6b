// Package testutil holds the fluent message and history builders shared by
// tests across packages. Test-only; nothing here is part of the public API.
package testutil
