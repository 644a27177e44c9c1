package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"zuraaa_list/internal/auth"
	"zuraaa_list/internal/calendar"
	"zuraaa_list/internal/domain"
	"zuraaa_list/internal/vote"
)

const (
	captchaField = "h-captcha-response"

	msgCaptchaRequired = "O Captcha precisa ser validado."
	msgBanned          = "Você está banido! 🙂"
	msgInternalError   = "Ocorreu um erro interno enquanto processávamos sua solicitação, pedimos desculpas pela incoveniência."

	titleBanned = "BANIDO"
	titleError  = "Erro"
	titleVote   = "Votar"
)

func (s *Server) handleBotPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	bot, ok := s.resolveBot(ctx, w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := botPageTemplate.Execute(w, struct {
		Name        string
		Avatar      string
		Description string
		Votes       int64
		Slug        string
	}{
		Name:        bot.Username,
		Avatar:      botAvatarURL(bot),
		Description: bot.Details.ShortDescription,
		Votes:       bot.Votes.Current,
		Slug:        bot.Slug(),
	})
	if err != nil {
		s.logger.WithField("event", "render_failed").WithError(err).Error("failed to render bot page")
	}
}

func (s *Server) handleVotePage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.ActorID(r); !ok {
		s.redirectToLogin(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	bot, ok := s.resolveBot(ctx, w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := votePageTemplate.Execute(w, struct {
		Name   string
		Avatar string
	}{
		Name:   bot.Username,
		Avatar: botAvatarURL(bot),
	})
	if err != nil {
		s.logger.WithField("event", "render_failed").WithError(err).Error("failed to render vote page")
	}
}

func (s *Server) handleVoteSubmit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.sessions.ActorID(r)
	if !ok {
		s.redirectToLogin(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	passed, err := s.captcha.Verify(ctx, r.FormValue(captchaField))
	if err != nil {
		s.internalError(w, err, "captcha verification failed")
		return
	}
	if !passed {
		s.renderMessage(w, http.StatusBadRequest, messageData{
			Title:   titleVote,
			Message: msgCaptchaRequired,
			URL:     r.URL.Path,
		})
		return
	}

	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Session references an actor we never stored; force a fresh login.
			s.sessions.Destroy(w)
			s.redirectToLogin(w, r)
			return
		}

		s.internalError(w, err, "failed to load voter")
		return
	}

	now := s.now()
	decision := vote.Check(user, now)
	if decision.Terminate {
		s.sessions.Destroy(w)
		s.renderMessage(w, http.StatusForbidden, messageData{
			Title:   titleBanned,
			Message: msgBanned,
			URL:     "/",
		})
		return
	}
	if !decision.Allowed {
		s.renderMessage(w, http.StatusTooManyRequests, messageData{
			Title: titleVote,
			Message: fmt.Sprintf(
				"Você precisa esperar até %s (horário de Brasília) para poder votar novamente.",
				calendar.Phrase(decision.ResumeAt, now),
			),
			URL: botPath(r),
		})
		return
	}

	bot, err := s.bots.GetByIDOrURL(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}

		s.internalError(w, err, "failed to load bot")
		return
	}

	if auth.Resolve(&user, bot) != auth.Visible {
		http.NotFound(w, r)
		return
	}

	receipt, err := s.ledger.Commit(ctx, user, bot, now)
	if err != nil {
		s.internalError(w, err, "failed to record vote")
		return
	}

	s.dispatcher.Dispatch(receipt.Bot, user, receipt.Votes)

	s.renderMessage(w, http.StatusOK, messageData{
		Title:   titleVote,
		Message: fmt.Sprintf("Você votou em %s com sucesso.", receipt.Bot.Username),
		URL:     botPath(r),
	})
}

// resolveBot loads the bot named in the path and applies the visibility rule
// for the current actor. Pending bots stay indistinguishable from missing
// ones for actors outside the gate.
func (s *Server) resolveBot(ctx context.Context, w http.ResponseWriter, r *http.Request) (domain.Bot, bool) {
	bot, err := s.bots.GetByIDOrURL(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return domain.Bot{}, false
		}

		s.internalError(w, err, "failed to load bot")
		return domain.Bot{}, false
	}

	var actor *domain.User
	if actorID, ok := s.sessions.ActorID(r); ok {
		user, err := s.users.GetByID(ctx, actorID)
		switch {
		case err == nil:
			actor = &user
		case !errors.Is(err, domain.ErrNotFound):
			s.internalError(w, err, "failed to load actor")
			return domain.Bot{}, false
		}
	}

	if auth.Resolve(actor, bot) != auth.Visible {
		http.NotFound(w, r)
		return domain.Bot{}, false
	}

	return bot, true
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	s.sessions.RememberPath(w, r.URL.Path)
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func (s *Server) internalError(w http.ResponseWriter, err error, msg string) {
	s.logger.WithField("event", "request_failed").WithError(err).Error(msg)
	s.renderMessage(w, http.StatusInternalServerError, messageData{
		Title:   titleError,
		Message: msgInternalError,
	})
}

func botPath(r *http.Request) string {
	return "/bots/" + r.PathValue("id")
}

func botAvatarURL(bot domain.Bot) string {
	return domain.User{
		ID:            bot.ID,
		Avatar:        bot.Avatar,
		Discriminator: bot.Discriminator,
	}.AvatarURL()
}
