package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/tutorial_catalog/internal/events"
	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
	"github.com/Skotchmaster/tutorial_catalog/internal/mailer"
	"github.com/Skotchmaster/tutorial_catalog/internal/metrics"
	"github.com/Skotchmaster/tutorial_catalog/internal/repo"
	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

const ResetRequestedMessage = "If the email exists, a reset link has been sent."

type ResetRequestResult struct {
	Message string
	// Exposed is set when mail diagnostics may be shown to the caller.
	Exposed    bool
	Dispatched bool
	Transport  string
}

// RequestPasswordReset answers the same way whether or not the account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (res *ResetRequestResult, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.reset_request")
	defer func() { metrics.RecordAuth("reset_request", outcome(err)) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fail(ErrBadRequest, "email is required")
	}

	res = &ResetRequestResult{Message: ResetRequestedMessage}

	acc, err := s.Accounts.FindByUsername(ctx, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			l.Error("reset_lookup_failed", "error", err)
		}
		return res, nil
	}

	token, _, err := s.Tokens.IssueReset(acc.Username, s.resetTTL())
	if err != nil {
		l.Error("reset_token_failed", "user_id", acc.ID, "error", err)
		return res, nil
	}

	link := strings.TrimRight(s.Opts.FrontendURL, "/") + "/reset-password/" + token
	name := strings.TrimSpace(acc.FirstName + " " + acc.LastName)
	if name == "" {
		name = acc.Username
	}
	from := s.Opts.MailFrom
	if from == "" {
		from = "no-reply@localhost"
	}

	m := s.mailTransport()
	msg := mailer.ResetEmail(from, acc.Username, name, link, s.resetTTL())
	dispatched := true
	if err := m.Send(ctx, msg); err != nil {
		dispatched = false
		metrics.RecordSideEffectFailure("mail")
		l.Warn("reset_mail_failed", "user_id", acc.ID, "transport", m.Transport(), "error", err)
	}

	s.publish(ctx, events.PasswordResetRequested, acc)

	if s.Opts.ExposeMailStatus {
		res.Exposed = true
		res.Dispatched = dispatched
		res.Transport = m.Transport()
	}
	return res, nil
}

func (s *AuthService) mailTransport() Mailer {
	if s.Mailer == nil {
		return mailer.Log{}
	}
	return s.Mailer
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, password string) (err error) {
	l := logging.FromContext(ctx).With("svc", "auth.reset_confirm")
	defer func() { metrics.RecordAuth("reset_confirm", outcome(err)) }()

	token = strings.TrimSpace(token)
	if token == "" || password == "" {
		return fail(ErrBadRequest, "token and password are required")
	}

	uid, err := s.Tokens.VerifyReset(token)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			l.Warn("reset_confirm_failed", "status", 400, "reason", "expired token")
			return fail(ErrBadRequest, "expired token")
		}
		l.Warn("reset_confirm_failed", "status", 400, "reason", "invalid token", "error", err)
		return fail(ErrBadRequest, "invalid token")
	}

	acc, err := s.Accounts.FindByUsername(ctx, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(ErrNotFound, "User not found")
		}
		return internal("Internal error", err)
	}

	if err := s.setPassword(ctx, acc, password); err != nil {
		l.Error("reset_confirm_failed", "status", 500, "error", err)
		return err
	}

	s.publish(ctx, events.PasswordResetCompleted, acc)
	l.Info("password_reset", "user_id", acc.ID)
	return nil
}
