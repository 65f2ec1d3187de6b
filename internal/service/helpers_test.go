package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tutorial_catalog/internal/directory"
	"github.com/Skotchmaster/tutorial_catalog/internal/events"
	"github.com/Skotchmaster/tutorial_catalog/internal/hash"
	"github.com/Skotchmaster/tutorial_catalog/internal/mailer"
	"github.com/Skotchmaster/tutorial_catalog/internal/models"
	"github.com/Skotchmaster/tutorial_catalog/internal/repo"
	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
	"github.com/Skotchmaster/tutorial_catalog/internal/testdb"
	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) Transport() string { return "fake" }

func (f *fakeMailer) Sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.sent...)
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	types  []string
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, topic, _ string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	if ev, ok := event.(events.UserEvent); ok {
		f.types = append(f.types, ev.Type)
	}
	return f.err
}

func (f *fakePublisher) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.types...)
}

type fakeDirectory struct {
	mu      sync.Mutex
	indexed []directory.Entry
	hits    []directory.Entry
	err     error
	lastQ   string
	lastPos [2]int
}

func (f *fakeDirectory) IndexAccount(_ context.Context, e directory.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, e)
	return f.err
}

func (f *fakeDirectory) Search(_ context.Context, q string, from, size int) (int64, []directory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQ, f.lastPos = q, [2]int{from, size}
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.hits)), f.hits, nil
}

// faultyStore wraps a real store and fails selected operations.
type faultyStore struct {
	CredentialStore
	findErr   error
	updateErr error
}

func (f *faultyStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.CredentialStore.FindByUsername(ctx, username)
}

func (f *faultyStore) UpdatePasswordHash(ctx context.Context, id uint, h string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.CredentialStore.UpdatePasswordHash(ctx, id, h)
}

type failingHasher struct {
	PasswordHasher
}

func (failingHasher) Hash(context.Context, string) (string, error) {
	return "", errors.New("hasher exploded")
}

type testEnv struct {
	svc    *AuthService
	repo   *repo.GormRepo
	issuer *tokens.Issuer
	clock  *testClock
	mail   *fakeMailer
	pub    *fakePublisher
	dir    *fakeDirectory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.NewGormRepo(testdb.InitTestDB(t))
	keys, err := tokens.HMACKeys([]byte("test-jwt-secret"))
	require.NoError(t, err)
	clock := &testClock{t: time.Now().UTC()}
	issuer := tokens.NewIssuer(keys, tokens.WithClock(clock.Now))

	env := &testEnv{
		repo:   r,
		issuer: issuer,
		clock:  clock,
		mail:   &fakeMailer{},
		pub:    &fakePublisher{},
		dir:    &fakeDirectory{},
	}
	env.svc = &AuthService{
		Accounts:      r,
		RefreshTokens: r,
		Hasher:        hash.NewBounded(hash.NewAuto(hash.Bcrypt{Cost: 4}), 4),
		Tokens:        issuer,
		Mailer:        env.mail,
		Events:        env.pub,
		Directory:     env.dir,
		Search:        env.dir,
		Opts: Options{
			RefreshTTL:  time.Hour,
			ResetTTL:    30 * time.Minute,
			FrontendURL: "http://localhost:4200/",
			MailFrom:    "no-reply@tutorials.test",
			UserTopic:   "user_events",
		},
	}
	return env
}

func (e *testEnv) register(t *testing.T, username, password string) *AuthResult {
	t.Helper()
	res, err := e.svc.Register(context.Background(), Registration{Username: username, Password: password})
	require.NoError(t, err)
	return res
}

func (e *testEnv) seedAccount(t *testing.T, username, password string, set ...string) *models.Account {
	t.Helper()
	h, err := hash.Bcrypt{Cost: 4}.Hash(password)
	require.NoError(t, err)
	acc := &models.Account{Username: username, PasswordHash: h, Roles: roles.Encode(set)}
	require.NoError(t, e.repo.Insert(context.Background(), acc))
	return acc
}

func (e *testEnv) bearer(t *testing.T, username string, set ...string) string {
	t.Helper()
	tok, _, err := e.issuer.IssueSession(username, set)
	require.NoError(t, err)
	return "Bearer " + tok
}
