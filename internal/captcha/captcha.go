// Package captcha verifies hCaptcha responses. The rest of the application
// consumes it as a plain "human-verified" predicate.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"zuraaa_list/internal/logging"
)

const (
	defaultEndpoint = "https://hcaptcha.com/siteverify"
	verifyTimeout   = 10 * time.Second
)

// Verifier checks captcha responses against the hCaptcha verification API.
// A disabled verifier accepts everything, which keeps local development and
// tests free of captcha round-trips.
type Verifier struct {
	client   *http.Client
	endpoint string
	secret   string
	enabled  bool
	logger   *logrus.Entry
}

// NewVerifier constructs a Verifier. The secret is required only when
// enabled.
func NewVerifier(secret string, enabled bool, logger *logrus.Entry) (*Verifier, error) {
	if enabled && strings.TrimSpace(secret) == "" {
		return nil, errors.New("captcha secret is required when verification is enabled")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	return &Verifier{
		client:   &http.Client{Timeout: verifyTimeout},
		endpoint: defaultEndpoint,
		secret:   secret,
		enabled:  enabled,
		logger:   logger,
	}, nil
}

// Verify reports whether the captcha response proves a human. Transport or
// decoding failures are returned as errors so callers can distinguish "not a
// human" from "could not check".
func (v *Verifier) Verify(ctx context.Context, response string) (bool, error) {
	if v == nil {
		return false, errors.New("captcha verifier is not initialized")
	}
	if !v.enabled {
		return true, nil
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {response},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify captcha: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode captcha response: %w", err)
	}

	if !result.Success {
		v.logger.WithField("event", "captcha_rejected").Debug("captcha verification failed")
	}

	return result.Success, nil
}
