package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skotchmaster/tutorial_catalog/internal/directory"
	"github.com/Skotchmaster/tutorial_catalog/internal/events"
	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
	"github.com/Skotchmaster/tutorial_catalog/internal/metrics"
	"github.com/Skotchmaster/tutorial_catalog/internal/models"
	"github.com/Skotchmaster/tutorial_catalog/internal/repo"
	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
)

const (
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultResetTTL   = 30 * time.Minute

	MinPasswordLength = 6
)

type Options struct {
	RefreshTTL       time.Duration
	ResetTTL         time.Duration
	FrontendURL      string
	MailFrom         string
	ExposeMailStatus bool
	UserTopic        string
}

// AuthService runs the authentication flows. Accounts, RefreshTokens, Hasher and
// Tokens are required. Events, Directory and Search may be nil.
type AuthService struct {
	Accounts      CredentialStore
	RefreshTokens RefreshStore
	Hasher        PasswordHasher
	Tokens        TokenIssuer
	Mailer        Mailer
	Events        Publisher
	Directory     Indexer
	Search        Searcher
	Opts          Options
}

type UserSummary struct {
	ID        uint
	Username  string
	FirstName string
	LastName  string
}

type AuthResult struct {
	User         UserSummary
	Roles        []string
	Token        string
	RefreshToken string
	ExpiresIn    int
}

type Registration struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

func summary(acc *models.Account) UserSummary {
	return UserSummary{ID: acc.ID, Username: acc.Username, FirstName: acc.FirstName, LastName: acc.LastName}
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.Opts.RefreshTTL > 0 {
		return s.Opts.RefreshTTL
	}
	return DefaultRefreshTTL
}

func (s *AuthService) resetTTL() time.Duration {
	if s.Opts.ResetTTL > 0 {
		return s.Opts.ResetTTL
	}
	return DefaultResetTTL
}

func (s *AuthService) Login(ctx context.Context, username, password string) (res *AuthResult, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")
	defer func() { metrics.RecordAuth("login", outcome(err)) }()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fail(ErrBadRequest, "email and password are required")
	}

	acc, err := s.Accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user", "username", logging.RedactEmail(username))
			return nil, fail(ErrInvalidCredentials, "Invalid credentials")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, internal("Internal error", err)
	}

	ok, err := s.Hasher.Verify(ctx, acc.PasswordHash, password)
	if err != nil {
		return nil, internal("Internal error", err)
	}
	if !ok {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch", "user_id", acc.ID)
		return nil, fail(ErrInvalidCredentials, "Invalid credentials")
	}

	res, err = s.issue(ctx, acc)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, events.UserLoggedIn, acc)
	l.Info("login_successful", "user_id", acc.ID)
	return res, nil
}

func (s *AuthService) Register(ctx context.Context, in Registration) (res *AuthResult, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")
	defer func() { metrics.RecordAuth("register", outcome(err)) }()

	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, fail(ErrBadRequest, "email and password are required")
	}
	if !validEmail(username) {
		return nil, fail(ErrBadRequest, "A valid email is required")
	}

	exists, err := s.Accounts.ExistsByUsername(ctx, username)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, internal("Internal error", err)
	}
	if exists {
		l.Warn("register_error", "status", 409, "reason", "user already exist")
		return nil, fail(ErrConflict, "Email already exists")
	}

	pwHash, err := s.Hasher.Hash(ctx, in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, internal("Password hashing failed", err)
	}

	acc := &models.Account{
		Username:     username,
		PasswordHash: pwHash,
		Roles:        roles.Encode([]string{roles.User}),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	}
	if err := s.Accounts.Insert(ctx, acc); err != nil {
		if errors.Is(err, repo.ErrDuplicateUsername) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, fail(ErrConflict, "Email already exists")
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, internal("Internal error", err)
	}

	stored, err := s.Accounts.FindByUsername(ctx, username)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot reload account", "error", err)
		return nil, internal("Internal error", err)
	}

	res, err = s.issue(ctx, stored)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, events.UserRegistered, stored)
	s.index(ctx, stored)
	l.Info("register_successful", "user_id", stored.ID)
	return res, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1
}

func (s *AuthService) issue(ctx context.Context, acc *models.Account) (*AuthResult, error) {
	set := roles.Resolve(acc.Roles)

	token, _, err := s.Tokens.IssueSession(acc.Username, set)
	if err != nil {
		return nil, internal("Internal error", err)
	}
	refresh, _, err := s.RefreshTokens.IssueRefresh(ctx, acc.Username, s.refreshTTL())
	if err != nil {
		return nil, internal("Internal error", err)
	}

	return &AuthResult{
		User:         summary(acc),
		Roles:        set,
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int(s.Tokens.SessionTTL() / time.Second),
	}, nil
}

// ChangePassword authenticates with the raw Authorization header value.
func (s *AuthService) ChangePassword(ctx context.Context, authorization, current, next string) (err error) {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")
	defer func() { metrics.RecordAuth("change_password", outcome(err)) }()

	sess, err := s.sessionFromHeader(authorization)
	if err != nil {
		l.Warn("change_password_failed", "status", 401, "reason", Message(err))
		return err
	}

	if current == "" || next == "" {
		return fail(ErrBadRequest, "currentPassword and newPassword are required")
	}
	if utf8.RuneCountInString(next) < MinPasswordLength {
		return fail(ErrBadRequest, "newPassword must be at least 6 characters")
	}

	acc, err := s.Accounts.FindByUsername(ctx, sess.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(ErrNotFound, "User not found")
		}
		return internal("Internal error", err)
	}

	ok, err := s.Hasher.Verify(ctx, acc.PasswordHash, current)
	if err != nil {
		return internal("Internal error", err)
	}
	if !ok {
		l.Warn("change_password_failed", "status", 400, "reason", "current password mismatch", "user_id", acc.ID)
		return fail(ErrBadRequest, "Current password is incorrect")
	}

	if err := s.setPassword(ctx, acc, next); err != nil {
		l.Error("change_password_failed", "status", 500, "error", err)
		return err
	}

	s.publish(ctx, events.PasswordChanged, acc)
	l.Info("password_changed", "user_id", acc.ID)
	return nil
}

func (s *AuthService) sessionFromHeader(authorization string) (*Session, error) {
	token, ok := bearer(authorization)
	if !ok {
		return nil, fail(ErrUnauthorized, "Unauthorized")
	}
	return s.verifySession(token)
}

func (s *AuthService) setPassword(ctx context.Context, acc *models.Account, password string) error {
	pwHash, err := s.Hasher.Hash(ctx, password)
	if err != nil {
		return internal("Password hashing failed", err)
	}
	if err := s.Accounts.UpdatePasswordHash(ctx, acc.ID, pwHash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(ErrNotFound, "User not found")
		}
		return internal("Database update failed", err)
	}
	return nil
}

// ListUsers returns every account ordered by id. Only administrators may call it.
func (s *AuthService) ListUsers(ctx context.Context, sess *Session) (out []UserSummary, err error) {
	defer func() { metrics.RecordAuth("list_users", outcome(err)) }()

	if err := requireAdmin(sess); err != nil {
		logging.FromContext(ctx).With("svc", "auth.list_users").Warn("list_users_denied", "reason", Message(err))
		return nil, err
	}

	accounts, err := s.Accounts.ListAccounts(ctx)
	if err != nil {
		return nil, internal("Internal error", err)
	}

	out = make([]UserSummary, 0, len(accounts))
	for i := range accounts {
		out = append(out, summary(&accounts[i]))
	}
	return out, nil
}

func requireAdmin(sess *Session) error {
	if sess == nil {
		return fail(ErrUnauthorized, "Unauthorized")
	}
	if !sess.HasRole(roles.Admin) {
		return fail(ErrForbidden, "Forbidden")
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, typ string, acc *models.Account) {
	if s.Events == nil {
		return
	}
	ev := events.NewUserEvent(typ, acc.ID, acc.Username)
	if err := s.Events.Publish(ctx, s.Opts.UserTopic, acc.Username, ev); err != nil {
		metrics.RecordSideEffectFailure("event")
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}

func (s *AuthService) index(ctx context.Context, acc *models.Account) {
	if s.Directory == nil {
		return
	}
	entry := directory.Entry{ID: acc.ID, Username: acc.Username, FirstName: acc.FirstName, LastName: acc.LastName}
	if err := s.Directory.IndexAccount(ctx, entry); err != nil {
		metrics.RecordSideEffectFailure("index")
		logging.FromContext(ctx).Warn("directory_index_failed", "user_id", acc.ID, "error", err)
	}
}
