// Package webhook notifies operator-configured endpoints about accepted
// votes. Delivery is fire-and-forget: the voter's response never waits on it
// and never learns its outcome.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"zuraaa_list/internal/domain"
	"zuraaa_list/internal/logging"
)

const (
	deliveryTimeout    = 10 * time.Second
	statusWriteTimeout = 5 * time.Second

	embedTitle = "Voto no Zuraaa! List"
	embedColor = 16777088
)

type statusStore interface {
	SetWebhookError(ctx context.Context, botID string, failed bool) error
}

// Dispatcher posts vote notifications and records the delivery outcome on
// the bot record. One attempt per vote; no retries, no ordering guarantee.
type Dispatcher struct {
	client *http.Client
	bots   statusStore
	logger *logrus.Entry
	now    func() time.Time
}

// NewDispatcher constructs a Dispatcher with a bounded outbound timeout.
func NewDispatcher(bots statusStore, logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Dispatcher{
		client: &http.Client{Timeout: deliveryTimeout},
		bots:   bots,
		logger: logger,
		now:    time.Now,
	}
}

// Dispatch launches a detached delivery for the bot's configured webhook.
// Bots without a webhook, or with an unknown type, are skipped.
func (d *Dispatcher) Dispatch(bot domain.Bot, voter domain.User, votes int64) {
	if d == nil || bot.Webhook == nil || strings.TrimSpace(bot.Webhook.URL) == "" {
		return
	}

	go d.deliver(bot, voter, votes)
}

func (d *Dispatcher) deliver(bot domain.Bot, voter domain.User, votes int64) {
	hook := *bot.Webhook

	body, authorization, err := d.buildRequest(hook, bot, voter, votes)
	if err != nil {
		d.logger.WithError(err).WithFields(logging.Fields{
			"event":        "webhook_skipped",
			"bot_id":       bot.ID,
			"webhook_type": hook.Type,
		}).Warn("webhook not delivered")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	failed := d.post(ctx, hook.URL, authorization, body)
	cancel()

	// The delivery context may already be expired; the status write gets its
	// own deadline.
	statusCtx, cancelStatus := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancelStatus()

	if err := d.bots.SetWebhookError(statusCtx, bot.ID, failed); err != nil {
		d.logger.WithError(err).WithFields(logging.Fields{
			"event":  "webhook_status_write_failed",
			"bot_id": bot.ID,
		}).Error("failed to record webhook delivery status")
		return
	}

	d.logger.WithFields(logging.Fields{
		"event":        "webhook_delivered",
		"bot_id":       bot.ID,
		"webhook_type": hook.Type,
		"failed":       failed,
	}).Debug("webhook delivery recorded")
}

func (d *Dispatcher) buildRequest(hook domain.Webhook, bot domain.Bot, voter domain.User, votes int64) ([]byte, string, error) {
	switch hook.Type {
	case domain.WebhookTypeEmbed:
		body, err := json.Marshal(embedEnvelope{
			Embeds: []embed{{
				Title:       embedTitle,
				Description: fmt.Sprintf("**%s** votou no bot **%s**", voter.DisplayName(), bot.DisplayName()),
				Color:       embedColor,
				Footer:      embedFooter{Text: voter.ID},
				Timestamp:   d.now().UTC().Format(time.RFC3339),
				Thumbnail:   embedThumbnail{URL: voter.AvatarURL()},
			}},
		})
		return body, "", err
	case domain.WebhookTypeGeneric:
		body, err := json.Marshal(voteEvent{
			Type: "vote",
			Data: voteEventData{
				UserID: voter.ID,
				BotID:  bot.ID,
				Votes:  votes,
			},
		})
		return body, hook.Authorization, err
	default:
		return nil, "", fmt.Errorf("unknown webhook type %d", hook.Type)
	}
}

// post returns true when the delivery failed: transport error or any non-2xx
// status.
func (d *Dispatcher) post(ctx context.Context, url, authorization string, body []byte) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return true
	}

	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return true
	}
	defer resp.Body.Close()

	return resp.StatusCode < 200 || resp.StatusCode > 299
}

type embedEnvelope struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Footer      embedFooter    `json:"footer"`
	Timestamp   string         `json:"timestamp"`
	Thumbnail   embedThumbnail `json:"thumbnail"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embedThumbnail struct {
	URL string `json:"url"`
}

type voteEvent struct {
	Type string        `json:"type"`
	Data voteEventData `json:"data"`
}

type voteEventData struct {
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
	Votes  int64  `json:"votes"`
}
