package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/tutorial_catalog/internal/directory"
	"github.com/Skotchmaster/tutorial_catalog/internal/mailer"
	"github.com/Skotchmaster/tutorial_catalog/internal/models"
	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, acc *models.Account) error
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
	ListAccounts(ctx context.Context) ([]models.Account, error)
	CountAccounts(ctx context.Context) (int64, error)
}

type RefreshStore interface {
	IssueRefresh(ctx context.Context, username string, ttl time.Duration) (string, time.Time, error)
	RotateRefresh(ctx context.Context, token string, ttl time.Duration) (string, string, time.Time, error)
	RevokeRefresh(ctx context.Context, token string) error
}

type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, hash, password string) (bool, error)
}

type TokenIssuer interface {
	IssueSession(subject string, roles []string) (string, time.Time, error)
	IssueReset(username string, ttl time.Duration) (string, time.Time, error)
	VerifySession(token string) (*tokens.Session, error)
	VerifyReset(token string) (string, error)
	SessionTTL() time.Duration
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
	Transport() string
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

type Indexer interface {
	IndexAccount(ctx context.Context, e directory.Entry) error
}

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []directory.Entry, error)
}
