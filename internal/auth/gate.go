// Package auth decides who may see or act on bot records that are pending
// review or owned by someone else. All predicates are pure functions over
// already-loaded documents; callers load the actor's stored record first.
package auth

import (
	"zuraaa_list/internal/domain"
)

// Resolution is the outcome of a visibility check on a bot-scoped read path.
type Resolution int

const (
	// NotFound hides the record; unauthorized actors must not learn that a
	// pending bot exists.
	NotFound Resolution = iota
	// Visible allows the read path to proceed.
	Visible
)

// CanAct reports whether the actor may view or mutate a bot record that is
// unapproved or not theirs. A nil actor (anonymous, or no stored record)
// never passes. Moderators and above always pass. Plain members pass only
// when allowOwnerBypass is set and they are the bot's primary owner;
// co-owners do not satisfy this gate.
func CanAct(actor *domain.User, bot domain.Bot, allowOwnerBypass bool) bool {
	if actor == nil {
		return false
	}
	if actor.Details.Role >= domain.RoleModerator {
		return true
	}

	return allowOwnerBypass && actor.ID == bot.Owner
}

// Resolve produces the view/404 decision for any bot-scoped read path.
// Approved bots are always visible; pending bots only to actors passing the
// gate with the owner bypass enabled.
func Resolve(actor *domain.User, bot domain.Bot) Resolution {
	if bot.IsApproved() {
		return Visible
	}
	if CanAct(actor, bot, true) {
		return Visible
	}

	return NotFound
}

// CanEdit is the stricter rule used only on the edit path: primary owner,
// any co-owner, or role Admin and above. Deliberately broader on ownership
// than CanAct, which recognizes the primary owner only; keep the two
// predicates separate.
func CanEdit(actor *domain.User, bot domain.Bot) bool {
	if actor == nil {
		return false
	}
	if actor.Details.Role >= domain.RoleAdmin {
		return true
	}
	if actor.ID == bot.Owner {
		return true
	}

	for _, owner := range bot.Details.OtherOwners {
		if owner == actor.ID {
			return true
		}
	}

	return false
}

// CanRemove guards the removal path: primary owner or role Admin and above.
// Removal with a stated reason by non-owners is a moderation action and runs
// through CanAct without the owner bypass.
func CanRemove(actor *domain.User, bot domain.Bot) bool {
	if actor == nil {
		return false
	}

	return actor.ID == bot.Owner || actor.Details.Role >= domain.RoleAdmin
}
