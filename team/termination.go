package team

import (
	"strings"

	"github.com/hupe1980/roundtable/core"
)

// Predicate decides whether a freshly produced message ends the
// conversation. Predicates are pure functions over a single message: they
// are evaluated once per message, in production order, never against the
// aggregate history, and must be free of side effects.
type Predicate func(msg core.Message) bool

// TextMention stops the conversation when the marker appears anywhere in a
// message's text. The match is case-sensitive and unanchored.
func TextMention(marker string) Predicate {
	return func(msg core.Message) bool {
		return strings.Contains(msg.Text(), marker)
	}
}

// MaxMessages stops the conversation once n messages have been produced
// after the seeding task. It keys off the message sequence index, so it
// stays pure while still giving callers a hard ceiling on run length.
func MaxMessages(n int) Predicate {
	return func(msg core.Message) bool {
		return msg.Seq >= n
	}
}

// Any combines predicates; the conversation stops when any of them matches.
func Any(preds ...Predicate) Predicate {
	return func(msg core.Message) bool {
		for _, p := range preds {
			if p(msg) {
				return true
			}
		}
		return false
	}
}
