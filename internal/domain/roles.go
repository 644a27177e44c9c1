// Package domain defines shared domain types for the bot directory.
package domain

// Role is an ordinal permission tier. Higher values include the privileges
// of every tier below them, so authorization checks compare with >=.
type Role int

const (
	// RoleMember represents a standard user with no elevated privileges.
	RoleMember Role = iota
	// RoleModerator may review pending bots and see hidden entries.
	RoleModerator
	// RoleAdmin may edit and remove any bot.
	RoleAdmin
	// RoleOwner is reserved for the single configured site owner.
	RoleOwner
)

// String returns the lowercase tier name, or "unknown" outside the closed set.
func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleModerator:
		return "moderator"
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	default:
		return "unknown"
	}
}
