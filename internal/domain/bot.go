package domain

import (
	"strings"
	"time"
)

// Webhook delivery formats configured per bot.
const (
	// WebhookTypeEmbed posts a rich embed envelope without authentication.
	WebhookTypeEmbed = 1
	// WebhookTypeGeneric posts a bare vote event with an Authorization header.
	WebhookTypeGeneric = 2
)

// Bot represents a directory entry. The ID is owner-supplied at submission
// and immutable afterwards.
type Bot struct {
	ID            string     `bson:"_id" json:"id"`
	Username      string     `bson:"username" json:"username"`
	Discriminator string     `bson:"discriminator" json:"discriminator"`
	Avatar        string     `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Owner         string     `bson:"owner" json:"owner"`
	ApprovedBy    string     `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	Details       BotDetails `bson:"details" json:"details"`
	Votes         Votes      `bson:"votes" json:"votes"`
	Webhook       *Webhook   `bson:"webhook,omitempty" json:"webhook,omitempty"`
	Dates         BotDates   `bson:"dates" json:"dates"`
}

// BotDetails carries the listing attributes supplied on submission.
type BotDetails struct {
	Prefix           string   `bson:"prefix" json:"prefix"`
	Tags             []string `bson:"tags" json:"tags"`
	Library          string   `bson:"library" json:"library"`
	ShortDescription string   `bson:"shortDescription" json:"shortDescription"`
	LongDescription  string   `bson:"longDescription,omitempty" json:"longDescription,omitempty"`
	CustomURL        string   `bson:"customURL,omitempty" json:"customURL,omitempty"`
	CustomInviteLink string   `bson:"customInviteLink,omitempty" json:"customInviteLink,omitempty"`
	OtherOwners      []string `bson:"otherOwners,omitempty" json:"otherOwners,omitempty"`
	SupportServer    string   `bson:"supportServer,omitempty" json:"supportServer,omitempty"`
	Website          string   `bson:"website,omitempty" json:"website,omitempty"`
	Github           string   `bson:"github,omitempty" json:"github,omitempty"`
	Donate           string   `bson:"donate,omitempty" json:"donate,omitempty"`
	Guilds           int      `bson:"guilds,omitempty" json:"guilds,omitempty"`
}

// BotDates tracks lifecycle timestamps for a listing.
type BotDates struct {
	Sent time.Time `bson:"sent,omitempty" json:"sent,omitempty"`
}

// Votes is the vote aggregate. Current must equal the number of accepted
// ledger commits since creation; Voteslog is an append-only audit trail and
// may legitimately repeat a voter id across cooldown windows.
type Votes struct {
	Current  int64    `bson:"current" json:"current"`
	Voteslog []string `bson:"voteslog" json:"voteslog"`
}

// Webhook is an operator-configured outbound endpoint notified on every
// accepted vote. LastError reflects only the most recent delivery attempt.
type Webhook struct {
	URL           string `bson:"url" json:"url"`
	Type          int    `bson:"type" json:"type"`
	Authorization string `bson:"authorization,omitempty" json:"authorization,omitempty"`
	LastError     bool   `bson:"lastError,omitempty" json:"lastError,omitempty"`
}

// DisplayName renders the bot as username#discriminator.
func (b Bot) DisplayName() string {
	return b.Username + "#" + b.Discriminator
}

// IsApproved reports whether a moderator has approved the entry.
func (b Bot) IsApproved() bool {
	return strings.TrimSpace(b.ApprovedBy) != ""
}

// Slug is the path segment identifying the bot: the vanity url when
// configured, otherwise the id.
func (b Bot) Slug() string {
	if b.Details.CustomURL != "" {
		return b.Details.CustomURL
	}
	return b.ID
}
