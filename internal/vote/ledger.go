package vote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"zuraaa_list/internal/domain"
	"zuraaa_list/internal/logging"
)

type userStore interface {
	SetNextVote(ctx context.Context, userID string, at time.Time) error
	RestoreNextVote(ctx context.Context, userID string, prior *time.Time) error
}

type botStore interface {
	RecordVote(ctx context.Context, botID, voterID string) (domain.Bot, error)
}

// Notifier delivers vote audit lines to the operational log channel.
type Notifier interface {
	VoteRecorded(ctx context.Context, voter domain.User, bot domain.Bot, botURL string) error
}

// Receipt reports the outcome of an accepted vote for downstream dispatch.
type Receipt struct {
	Bot     domain.Bot
	Votes   int64
	Webhook *domain.Webhook
}

// Ledger records accepted votes: it advances the voter's cooldown, applies
// the atomic counter increment and log append on the bot, and emits the
// audit notification. Callers must have passed the cooldown guard and the
// visibility gate first.
type Ledger struct {
	users    userStore
	bots     botStore
	notifier Notifier
	siteRoot string
	logger   *logrus.Entry
}

// NewLedger constructs a Ledger. The notifier may be nil when no operational
// channel is configured.
func NewLedger(users userStore, bots botStore, notifier Notifier, siteRoot string, logger *logrus.Entry) *Ledger {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Ledger{
		users:    users,
		bots:     bots,
		notifier: notifier,
		siteRoot: strings.TrimSuffix(siteRoot, "/"),
		logger:   logger,
	}
}

// Commit applies one accepted vote at the given instant. The voter's cooldown
// advances to now + CooldownWindow regardless of its prior value; the bot's
// counter and vote log change in a single store update. When the bot update
// fails the cooldown advance is rolled back so the voter is not left waiting
// out a cooldown for a vote that never happened.
func (l *Ledger) Commit(ctx context.Context, user domain.User, bot domain.Bot, now time.Time) (Receipt, error) {
	if l == nil || l.users == nil || l.bots == nil {
		return Receipt{}, errors.New("ledger is not initialized")
	}
	if ctx == nil {
		return Receipt{}, errors.New("context is required")
	}

	prior := user.Dates.NextVote

	if err := l.users.SetNextVote(ctx, user.ID, now.Add(CooldownWindow)); err != nil {
		return Receipt{}, fmt.Errorf("advance cooldown: %w", err)
	}

	updated, err := l.bots.RecordVote(ctx, bot.ID, user.ID)
	if err != nil {
		if restoreErr := l.users.RestoreNextVote(ctx, user.ID, prior); restoreErr != nil {
			l.logger.WithError(restoreErr).WithFields(logging.Fields{
				"event":   "vote_cooldown_restore_failed",
				"user_id": user.ID,
				"bot_id":  bot.ID,
			}).Error("failed to roll back cooldown after vote error")
		}
		return Receipt{}, fmt.Errorf("record vote: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"event":   "vote_committed",
		"user_id": user.ID,
		"bot_id":  updated.ID,
		"votes":   updated.Votes.Current,
	}).Info("vote committed")

	if l.notifier != nil {
		if err := l.notifier.VoteRecorded(ctx, user, updated, l.BotURL(updated)); err != nil {
			l.logger.WithError(err).WithFields(logging.Fields{
				"event":  "vote_audit_failed",
				"bot_id": updated.ID,
			}).Warn("vote audit notification failed")
		}
	}

	return Receipt{
		Bot:     updated,
		Votes:   updated.Votes.Current,
		Webhook: updated.Webhook,
	}, nil
}

// BotURL builds the canonical public url for a bot listing.
func (l *Ledger) BotURL(bot domain.Bot) string {
	return l.siteRoot + "/bots/" + bot.Slug()
}
