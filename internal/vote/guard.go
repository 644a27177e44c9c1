// Package vote implements the cooldown guard and the ledger that records
// accepted votes.
package vote

import (
	"time"

	"zuraaa_list/internal/domain"
)

// CooldownWindow is the fixed period after an accepted vote during which the
// same user cannot vote again, on any bot.
const CooldownWindow = 8 * time.Hour

// Decision is the outcome of a cooldown check. The guard never mutates
// anything; when Terminate is set the caller must destroy the actor's
// session.
type Decision struct {
	Allowed   bool
	Terminate bool
	ResumeAt  time.Time
}

// Check evaluates whether the user may vote at the given instant. Banned
// users are denied unconditionally with Terminate set. Users whose stored
// cooldown lies strictly in the future are denied with the resume instant;
// everyone else is allowed.
func Check(user domain.User, now time.Time) Decision {
	if user.Banned {
		return Decision{Terminate: true}
	}

	if next := user.Dates.NextVote; next != nil && next.After(now) {
		return Decision{ResumeAt: *next}
	}

	return Decision{Allowed: true}
}
