package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const cdnBase = "https://cdn.discordapp.com"

// User represents a directory member created on first identity-exchange login.
type User struct {
	ID            string      `bson:"_id" json:"id"`
	Username      string      `bson:"username" json:"username"`
	Discriminator string      `bson:"discriminator" json:"discriminator"`
	Avatar        string      `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Banned        bool        `bson:"banned,omitempty" json:"banned,omitempty"`
	Details       UserDetails `bson:"details" json:"details"`
	Dates         UserDates   `bson:"dates" json:"dates"`
}

// UserDetails holds moderation-relevant attributes.
type UserDetails struct {
	Role        Role   `bson:"role" json:"role"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// UserDates tracks lifecycle timestamps. NextVote is nil when the user has
// never voted or the cooldown has been cleared; nil means immediately
// eligible.
type UserDates struct {
	FirstSeen time.Time  `bson:"firstSeen,omitempty" json:"firstSeen,omitempty"`
	NextVote  *time.Time `bson:"nextVote,omitempty" json:"nextVote,omitempty"`
}

// DisplayName renders the user as username#discriminator.
func (u User) DisplayName() string {
	return u.Username + "#" + u.Discriminator
}

// AvatarURL resolves the CDN url for the user's avatar, falling back to the
// default embed avatar derived from the discriminator when none is set.
func (u User) AvatarURL() string {
	if strings.TrimSpace(u.Avatar) == "" {
		d, _ := strconv.Atoi(u.Discriminator)
		return fmt.Sprintf("%s/embed/avatars/%d.png", cdnBase, d%5)
	}

	ext := "png"
	if strings.HasPrefix(u.Avatar, "a_") {
		ext = "gif"
	}

	return fmt.Sprintf("%s/avatars/%s/%s.%s", cdnBase, u.ID, u.Avatar, ext)
}
