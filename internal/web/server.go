// Package web hosts the public HTTP surface: bot pages and the vote flow.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"zuraaa_list/internal/domain"
	"zuraaa_list/internal/logging"
	"zuraaa_list/internal/vote"
)

const (
	requestTimeout    = 5 * time.Second
	readHeaderTimeout = 5 * time.Second

	loginPath = "/oauth2/login"
)

// UserFinder looks up stored user records for session actors.
type UserFinder interface {
	GetByID(ctx context.Context, userID string) (domain.User, error)
}

// BotFinder resolves bot records by id or vanity url.
type BotFinder interface {
	GetByIDOrURL(ctx context.Context, idOrURL string) (domain.Bot, error)
}

// VoteLedger records accepted votes.
type VoteLedger interface {
	Commit(ctx context.Context, user domain.User, bot domain.Bot, now time.Time) (vote.Receipt, error)
}

// VoteDispatcher forwards recorded votes to bot owner webhooks.
type VoteDispatcher interface {
	Dispatch(bot domain.Bot, voter domain.User, votes int64)
}

// CaptchaVerifier validates the captcha response submitted with a vote.
type CaptchaVerifier interface {
	Verify(ctx context.Context, response string) (bool, error)
}

// Deps bundles the collaborators the web server is wired with.
type Deps struct {
	Sessions   SessionStore
	Users      UserFinder
	Bots       BotFinder
	Ledger     VoteLedger
	Dispatcher VoteDispatcher
	Captcha    CaptchaVerifier
	Logger     *logrus.Entry
	Now        func() time.Time
}

// Server hosts the public endpoints and owns the underlying HTTP server.
type Server struct {
	server     *http.Server
	sessions   SessionStore
	users      UserFinder
	bots       BotFinder
	ledger     VoteLedger
	dispatcher VoteDispatcher
	captcha    CaptchaVerifier
	logger     *logrus.Entry
	now        func() time.Time
}

// NewServer constructs the web server listening on the provided port.
func NewServer(port int, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Logger()
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	srv := &Server{
		sessions:   deps.Sessions,
		users:      deps.Users,
		bots:       deps.Bots,
		ledger:     deps.Ledger,
		dispatcher: deps.Dispatcher,
		captcha:    deps.Captcha,
		logger:     logger,
		now:        now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /bots/{id}", srv.handleBotPage)
	mux.HandleFunc("GET /bots/{id}/votar", srv.handleVotePage)
	mux.HandleFunc("POST /bots/{id}/votar", srv.handleVoteSubmit)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe starts the web server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "web_listen",
		"addr":  s.server.Addr,
	}).Info("starting web server")

	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			s.logger.WithField("event", "web_stopped").Info("web server stopped")
			return nil
		}

		return fmt.Errorf("web server listen: %w", err)
	}

	s.logger.WithField("event", "web_stopped").Info("web server stopped")
	return nil
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

var messageTemplate = template.Must(template.New("message").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>{{.Title}} — Zuraaa! List</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .URL}}<p><a href="{{.URL}}">Continuar</a></p>{{end}}
</body>
</html>
`))

var votePageTemplate = template.Must(template.New("vote").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Votar em {{.Name}} — Zuraaa! List</title></head>
<body>
<h1>Votar em {{.Name}}</h1>
<img src="{{.Avatar}}" alt="{{.Name}}" width="128" height="128">
<form method="post">
<div class="h-captcha"></div>
<button type="submit">Votar</button>
</form>
</body>
</html>
`))

var botPageTemplate = template.Must(template.New("bot").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>{{.Name}} — Zuraaa! List</title></head>
<body>
<h1>{{.Name}}</h1>
<img src="{{.Avatar}}" alt="{{.Name}}" width="128" height="128">
<p>{{.Description}}</p>
<p>Votos: {{.Votes}}</p>
<p><a href="/bots/{{.Slug}}/votar">Votar</a></p>
</body>
</html>
`))

type messageData struct {
	Title   string
	Message string
	URL     string
}

func (s *Server) renderMessage(w http.ResponseWriter, status int, data messageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := messageTemplate.Execute(w, data); err != nil {
		s.logger.WithField("event", "render_failed").WithError(err).Error("failed to render message page")
	}
}
