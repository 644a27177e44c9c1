package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	sessionCookie = "zl_session"
	returnCookie  = "zl_return"

	sessionTTL = 7 * 24 * time.Hour
)

// SessionStore is the narrow session contract the handlers depend on. The
// identity exchange that issues sessions lives outside this service.
type SessionStore interface {
	// ActorID returns the authenticated actor's id, when present and valid.
	ActorID(r *http.Request) (string, bool)
	// Destroy terminates the actor's session.
	Destroy(w http.ResponseWriter)
	// RememberPath stores the path to return to after login.
	RememberPath(w http.ResponseWriter, path string)
}

// CookieSessions implements SessionStore with an HMAC-signed cookie carrying
// the actor id.
type CookieSessions struct {
	secret []byte
}

// NewCookieSessions constructs a CookieSessions keyed by the configured
// session secret.
func NewCookieSessions(secret string) (*CookieSessions, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}

	return &CookieSessions{secret: []byte(secret)}, nil
}

// Issue writes a signed session cookie for the actor. Called by the login
// callback after the identity exchange completes.
func (c *CookieSessions) Issue(w http.ResponseWriter, actorID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    actorID + "." + c.sign(actorID),
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ActorID validates the session cookie and returns the embedded actor id.
func (c *CookieSessions) ActorID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}

	parts := strings.SplitN(cookie.Value, ".", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", false
	}

	expected := c.sign(parts[0])
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return "", false
	}

	return parts[0], true
}

// Destroy expires the session cookie.
func (c *CookieSessions) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RememberPath stores the return path consumed by the login flow.
func (c *CookieSessions) RememberPath(w http.ResponseWriter, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     returnCookie,
		Value:    path,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *CookieSessions) sign(actorID string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(actorID))
	return hex.EncodeToString(mac.Sum(nil))
}
