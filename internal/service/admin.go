package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/tutorial_catalog/internal/directory"
	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
	"github.com/Skotchmaster/tutorial_catalog/internal/models"
	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
)

type SearchResult struct {
	Total int64
	Page  int
	Size  int
	Users []UserSummary
}

func (s *AuthService) SearchEnabled() bool { return s.Search != nil }

func (s *AuthService) SearchUsers(ctx context.Context, sess *Session, query string, page, size int) (*SearchResult, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if s.Search == nil {
		return nil, fail(ErrNotFound, "Not found")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fail(ErrBadRequest, "q is required")
	}

	window := directory.NewPage(page, size)
	total, entries, err := s.Search.Search(ctx, query, window.From, window.Size)
	if err != nil {
		logging.FromContext(ctx).With("svc", "auth.search").Error("search_failed", "error", err)
		return nil, internal("Search failed", err)
	}

	out := &SearchResult{Total: total, Page: window.Number, Size: window.Size, Users: make([]UserSummary, 0, len(entries))}
	for _, e := range entries {
		out.Users = append(out.Users, UserSummary{ID: e.ID, Username: e.Username, FirstName: e.FirstName, LastName: e.LastName})
	}
	return out, nil
}

// SeedAdmin creates the first administrator, but only while no account exists.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "auth.seed_admin")

	count, err := s.Accounts.CountAccounts(ctx)
	if err != nil {
		return false, internal("Internal error", err)
	}
	if count > 0 {
		l.Info("seed_skipped", "reason", "users table not empty", "count", count)
		return false, nil
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false, fail(ErrBadRequest, "admin email and password are required")
	}

	pwHash, err := s.Hasher.Hash(ctx, password)
	if err != nil {
		return false, internal("Password hashing failed", err)
	}

	acc := &models.Account{
		Username:     email,
		PasswordHash: pwHash,
		Roles:        roles.Encode([]string{roles.Admin}),
		FirstName:    "Admin",
		LastName:     "User",
	}
	if err := s.Accounts.Insert(ctx, acc); err != nil {
		return false, internal("Internal error", err)
	}

	s.index(ctx, acc)
	l.Info("admin_seeded", "user_id", acc.ID, "username", logging.RedactEmail(email))
	return true, nil
}
