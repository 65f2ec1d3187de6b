package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tutorial_catalog/internal/directory"
	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
)

func TestAuthService_SearchUsers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.dir.hits = []directory.Entry{{ID: 7, Username: "sam@x.io", FirstName: "Sam"}}

	admin := &Session{Subject: "root@x.io", Roles: []string{roles.Admin}}
	user := &Session{Subject: "sam@x.io", Roles: []string{roles.User}}

	_, err := env.svc.SearchUsers(ctx, user, "sam", 1, 10)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.SearchUsers(ctx, admin, "  ", 1, 10)
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Equal(t, "q is required", Message(err))

	res, err := env.svc.SearchUsers(ctx, admin, " sam ", 3, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	assert.Equal(t, 3, res.Page)
	assert.Equal(t, 20, res.Size)
	require.Len(t, res.Users, 1)
	assert.Equal(t, UserSummary{ID: 7, Username: "sam@x.io", FirstName: "Sam"}, res.Users[0])
	assert.Equal(t, "sam", env.dir.lastQ)
	assert.Equal(t, [2]int{40, 20}, env.dir.lastPos)

	res, err = env.svc.SearchUsers(ctx, admin, "sam", 2, 1000)
	require.NoError(t, err)
	assert.Equal(t, directory.MaxPageSize, res.Size)
	assert.Equal(t, [2]int{directory.MaxPageSize, directory.MaxPageSize}, env.dir.lastPos)

	env.dir.err = errors.New("cluster red")
	_, err = env.svc.SearchUsers(ctx, admin, "sam", 1, 10)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "Search failed", Message(err))
}

func TestAuthService_SearchUsers_Disabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.svc.Search = nil
	assert.False(t, env.svc.SearchEnabled())

	_, err := env.svc.SearchUsers(context.Background(), &Session{Subject: "root@x.io", Roles: []string{roles.Admin}}, "x", 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthService_SeedAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SeedAdmin(ctx, "", "pw")
	assert.ErrorIs(t, err, ErrBadRequest)

	created, err := env.svc.SeedAdmin(ctx, "admin@x.io", "admin-pw")
	require.NoError(t, err)
	assert.True(t, created)

	acc, err := env.repo.FindByUsername(ctx, "admin@x.io")
	require.NoError(t, err)
	assert.Equal(t, `["ROLE_ADMIN"]`, acc.Roles)
	assert.Equal(t, "Admin", acc.FirstName)
	assert.Equal(t, "User", acc.LastName)

	res, err := env.svc.Login(ctx, "admin@x.io", "admin-pw")
	require.NoError(t, err)
	assert.Equal(t, []string{roles.Admin}, res.Roles)

	created, err = env.svc.SeedAdmin(ctx, "second@x.io", "pw")
	require.NoError(t, err)
	assert.False(t, created)

	count, err := env.repo.CountAccounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, env.dir.indexed, 1)
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sess *Session
		want error
	}{
		{name: "nil session", sess: nil, want: ErrUnauthorized},
		{name: "user", sess: &Session{Subject: "u", Roles: []string{roles.User}}, want: ErrForbidden},
		{name: "admin", sess: &Session{Subject: "a", Roles: []string{roles.User, roles.Admin}}, want: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := requireAdmin(tt.sess)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "conflict", outcome(fail(ErrConflict, "x")))
	assert.Equal(t, "internal", outcome(errors.New("boom")))
	assert.Equal(t, "internal", outcome(internal("x", errors.New("boom"))))
	assert.Equal(t, "Internal error", Message(errors.New("boom")))
}
