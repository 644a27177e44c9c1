package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"zuraaa_list/internal/domain"
	"zuraaa_list/internal/vote"
)

type fakeSessions struct {
	actorID    string
	destroyed  bool
	remembered string
}

func (f *fakeSessions) ActorID(*http.Request) (string, bool) {
	return f.actorID, f.actorID != ""
}

func (f *fakeSessions) Destroy(http.ResponseWriter) {
	f.destroyed = true
}

func (f *fakeSessions) RememberPath(_ http.ResponseWriter, path string) {
	f.remembered = path
}

type stubUsers struct {
	user domain.User
	err  error
}

func (s *stubUsers) GetByID(context.Context, string) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	return s.user, nil
}

type stubBots struct {
	bot      domain.Bot
	err      error
	lastSlug string
}

func (s *stubBots) GetByIDOrURL(_ context.Context, idOrURL string) (domain.Bot, error) {
	s.lastSlug = idOrURL
	if s.err != nil {
		return domain.Bot{}, s.err
	}
	return s.bot, nil
}

type stubLedger struct {
	receipt vote.Receipt
	err     error
	called  bool
	gotUser domain.User
	gotBot  domain.Bot
}

func (s *stubLedger) Commit(_ context.Context, user domain.User, bot domain.Bot, _ time.Time) (vote.Receipt, error) {
	s.called = true
	s.gotUser = user
	s.gotBot = bot
	if s.err != nil {
		return vote.Receipt{}, s.err
	}
	return s.receipt, nil
}

type stubDispatcher struct {
	called bool
	bot    domain.Bot
	votes  int64
}

func (s *stubDispatcher) Dispatch(bot domain.Bot, _ domain.User, votes int64) {
	s.called = true
	s.bot = bot
	s.votes = votes
}

type stubCaptcha struct {
	passed bool
	err    error
}

func (s *stubCaptcha) Verify(context.Context, string) (bool, error) {
	return s.passed, s.err
}

var testNow = time.Date(2024, 8, 1, 12, 30, 0, 0, time.UTC)

func approvedBot() domain.Bot {
	return domain.Bot{
		ID:            "517752000939556864",
		Username:      "zuraaa",
		Discriminator: "3250",
		Owner:         "241978119436566528",
		ApprovedBy:    "135339910611927040",
		Details:       domain.BotDetails{ShortDescription: "Lista de bots"},
		Votes:         domain.Votes{Current: 41},
	}
}

func member(id string) domain.User {
	return domain.User{ID: id, Username: "zury", Discriminator: "0001"}
}

func newTestServer(deps Deps) *Server {
	hookLogger, _ := logtest.NewNullLogger()
	if deps.Logger == nil {
		deps.Logger = logrus.NewEntry(hookLogger)
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return testNow }
	}
	if deps.Captcha == nil {
		deps.Captcha = &stubCaptcha{passed: true}
	}
	if deps.Sessions == nil {
		deps.Sessions = &fakeSessions{}
	}
	if deps.Users == nil {
		deps.Users = &stubUsers{user: member("241978119436566528")}
	}
	if deps.Bots == nil {
		deps.Bots = &stubBots{bot: approvedBot()}
	}
	if deps.Ledger == nil {
		deps.Ledger = &stubLedger{receipt: vote.Receipt{Bot: approvedBot(), Votes: 42}}
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = &stubDispatcher{}
	}
	return NewServer(0, deps)
}

func submitVote(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(captchaField+"=tok"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func getPage(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestVoteSubmitRedirectsAnonymousToLogin(t *testing.T) {
	sessions := &fakeSessions{}
	srv := newTestServer(Deps{Sessions: sessions})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != loginPath {
		t.Fatalf("expected redirect to %q, got %q", loginPath, got)
	}
	if sessions.remembered != "/bots/517752000939556864/votar" {
		t.Fatalf("expected return path to be remembered, got %q", sessions.remembered)
	}
}

func TestVoteSubmitRejectsFailedCaptcha(t *testing.T) {
	srv := newTestServer(Deps{
		Sessions: &fakeSessions{actorID: "241978119436566528"},
		Captcha:  &stubCaptcha{passed: false},
	})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgCaptchaRequired) {
		t.Fatalf("expected captcha message in body:\n%s", rec.Body.String())
	}
}

func TestVoteSubmitCaptchaErrorIsInternal(t *testing.T) {
	ledger := &stubLedger{}
	srv := newTestServer(Deps{
		Sessions: &fakeSessions{actorID: "241978119436566528"},
		Captcha:  &stubCaptcha{err: errors.New("siteverify unreachable")},
		Ledger:   ledger,
	})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgInternalError) {
		t.Fatalf("expected apology in body:\n%s", rec.Body.String())
	}
	if ledger.called {
		t.Fatalf("expected no ledger commit")
	}
}

func TestVoteSubmitBannedUserDestroysSession(t *testing.T) {
	banned := member("241978119436566528")
	banned.Banned = true

	sessions := &fakeSessions{actorID: banned.ID}
	ledger := &stubLedger{}
	srv := newTestServer(Deps{
		Sessions: sessions,
		Users:    &stubUsers{user: banned},
		Ledger:   ledger,
	})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgBanned) {
		t.Fatalf("expected ban message in body:\n%s", rec.Body.String())
	}
	if !sessions.destroyed {
		t.Fatalf("expected session to be destroyed")
	}
	if ledger.called {
		t.Fatalf("expected no ledger commit")
	}
}

func TestVoteSubmitCooldownUsesLocalizedPhrase(t *testing.T) {
	user := member("241978119436566528")
	resume := testNow.Add(8 * time.Hour)
	user.Dates.NextVote = &resume

	ledger := &stubLedger{}
	srv := newTestServer(Deps{
		Sessions: &fakeSessions{actorID: user.ID},
		Users:    &stubUsers{user: user},
		Ledger:   ledger,
	})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	// 20:30 UTC is 17:30 in São Paulo, still the same calendar day.
	if !strings.Contains(rec.Body.String(), "hoje às 17:30") {
		t.Fatalf("expected localized resume phrase in body:\n%s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "horário de Brasília") {
		t.Fatalf("expected timezone note in body:\n%s", rec.Body.String())
	}
	if ledger.called {
		t.Fatalf("expected no ledger commit")
	}
}

func TestVoteSubmitUnknownBot(t *testing.T) {
	srv := newTestServer(Deps{
		Sessions: &fakeSessions{actorID: "241978119436566528"},
		Bots:     &stubBots{err: domain.ErrNotFound},
	})

	rec := submitVote(srv, "/bots/missing/votar")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestVoteSubmitPendingBotHiddenFromStrangers(t *testing.T) {
	pending := approvedBot()
	pending.ApprovedBy = ""

	ledger := &stubLedger{}
	srv := newTestServer(Deps{
		Sessions: &fakeSessions{actorID: "999999999999999999"},
		Users:    &stubUsers{user: member("999999999999999999")},
		Bots:     &stubBots{bot: pending},
		Ledger:   ledger,
	})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if ledger.called {
		t.Fatalf("expected no ledger commit")
	}
}

func TestVoteSubmitPendingBotVotableByOwner(t *testing.T) {
	pending := approvedBot()
	pending.ApprovedBy = ""

	ledger := &stubLedger{receipt: vote.Receipt{Bot: pending, Votes: 1}}
	srv := newTestServer(Deps{
		Sessions: &fakeSessions{actorID: pending.Owner},
		Users:    &stubUsers{user: member(pending.Owner)},
		Bots:     &stubBots{bot: pending},
		Ledger:   ledger,
	})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !ledger.called {
		t.Fatalf("expected ledger commit")
	}
}

func TestVoteSubmitSuccess(t *testing.T) {
	bot := approvedBot()
	user := member("241978119436566528")
	ledger := &stubLedger{receipt: vote.Receipt{Bot: bot, Votes: 42}}
	dispatcher := &stubDispatcher{}
	bots := &stubBots{bot: bot}

	srv := newTestServer(Deps{
		Sessions:   &fakeSessions{actorID: user.ID},
		Users:      &stubUsers{user: user},
		Bots:       bots,
		Ledger:     ledger,
		Dispatcher: dispatcher,
	})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Você votou em zuraaa com sucesso.") {
		t.Fatalf("expected success message in body:\n%s", rec.Body.String())
	}
	if bots.lastSlug != "517752000939556864" {
		t.Fatalf("expected lookup by path id, got %q", bots.lastSlug)
	}
	if !ledger.called {
		t.Fatalf("expected ledger commit")
	}
	if ledger.gotUser.ID != user.ID || ledger.gotBot.ID != bot.ID {
		t.Fatalf("ledger called with user %q bot %q", ledger.gotUser.ID, ledger.gotBot.ID)
	}
	if !dispatcher.called {
		t.Fatalf("expected webhook dispatch")
	}
	if dispatcher.votes != 42 {
		t.Fatalf("expected dispatched tally 42, got %d", dispatcher.votes)
	}
}

func TestVoteSubmitLedgerFailureIsInternal(t *testing.T) {
	dispatcher := &stubDispatcher{}
	srv := newTestServer(Deps{
		Sessions:   &fakeSessions{actorID: "241978119436566528"},
		Ledger:     &stubLedger{err: errors.New("write conflict")},
		Dispatcher: dispatcher,
	})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgInternalError) {
		t.Fatalf("expected apology in body:\n%s", rec.Body.String())
	}
	if dispatcher.called {
		t.Fatalf("expected no webhook dispatch after failed commit")
	}
}

func TestVoteSubmitMissingStoredUserForcesRelogin(t *testing.T) {
	sessions := &fakeSessions{actorID: "241978119436566528"}
	srv := newTestServer(Deps{
		Sessions: sessions,
		Users:    &stubUsers{err: domain.ErrNotFound},
	})

	rec := submitVote(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if !sessions.destroyed {
		t.Fatalf("expected stale session to be destroyed")
	}
}

func TestVotePageRedirectsAnonymousToLogin(t *testing.T) {
	sessions := &fakeSessions{}
	srv := newTestServer(Deps{Sessions: sessions})

	rec := getPage(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if sessions.remembered != "/bots/517752000939556864/votar" {
		t.Fatalf("expected return path to be remembered, got %q", sessions.remembered)
	}
}

func TestVotePageRendersForm(t *testing.T) {
	srv := newTestServer(Deps{Sessions: &fakeSessions{actorID: "241978119436566528"}})

	rec := getPage(srv, "/bots/517752000939556864/votar")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "h-captcha") {
		t.Fatalf("expected captcha widget in body:\n%s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Votar em zuraaa") {
		t.Fatalf("expected bot name in body:\n%s", rec.Body.String())
	}
}

func TestBotPageVisibleToAnonymous(t *testing.T) {
	srv := newTestServer(Deps{Sessions: &fakeSessions{}})

	rec := getPage(srv, "/bots/517752000939556864")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Votos: 41") {
		t.Fatalf("expected vote tally in body:\n%s", rec.Body.String())
	}
}

func TestBotPagePendingHiddenFromAnonymous(t *testing.T) {
	pending := approvedBot()
	pending.ApprovedBy = ""

	srv := newTestServer(Deps{
		Sessions: &fakeSessions{},
		Bots:     &stubBots{bot: pending},
	})

	rec := getPage(srv, "/bots/517752000939556864")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestBotPagePendingVisibleToModerator(t *testing.T) {
	pending := approvedBot()
	pending.ApprovedBy = ""

	moderator := member("135339910611927040")
	moderator.Details.Role = domain.RoleModerator

	srv := newTestServer(Deps{
		Sessions: &fakeSessions{actorID: moderator.ID},
		Users:    &stubUsers{user: moderator},
		Bots:     &stubBots{bot: pending},
	})

	rec := getPage(srv, "/bots/517752000939556864")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
