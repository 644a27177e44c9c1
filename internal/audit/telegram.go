// Package audit posts vote audit lines to the operational log channel so
// moderators can follow voting activity in real time.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"zuraaa_list/internal/domain"
	"zuraaa_list/internal/logging"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// createBot is overridable for tests.
var createBot = func(token string, options ...bot.Option) (messageSender, error) {
	return bot.New(token, options...)
}

// Telegram delivers audit notifications to a configured Telegram channel.
type Telegram struct {
	sender messageSender
	chatID string
	logger *logrus.Entry
}

// NewTelegram constructs the channel notifier. Both the token and the chat
// id are required; deployments without an audit channel simply pass a nil
// Notifier to the ledger.
func NewTelegram(token, chatID string, logger *logrus.Entry) (*Telegram, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is required")
	}
	if strings.TrimSpace(chatID) == "" {
		return nil, errors.New("audit chat id is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	sender, err := createBot(token)
	if err != nil {
		return nil, fmt.Errorf("init audit bot client: %w", err)
	}

	return &Telegram{
		sender: sender,
		chatID: chatID,
		logger: logger,
	}, nil
}

// VoteRecorded posts one line per accepted vote: who voted, on which bot,
// and the bot's public url.
func (t *Telegram) VoteRecorded(ctx context.Context, voter domain.User, b domain.Bot, botURL string) error {
	if t == nil || t.sender == nil {
		return errors.New("audit notifier is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	text := fmt.Sprintf("%s (%s) votou no bot `%s`\n%s", voter.DisplayName(), voter.ID, b.DisplayName(), botURL)

	if _, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   text,
	}); err != nil {
		return fmt.Errorf("send audit message: %w", err)
	}

	t.logger.WithFields(logging.Fields{
		"event":  "audit_vote_sent",
		"bot_id": b.ID,
	}).Debug("audit notification delivered")

	return nil
}
