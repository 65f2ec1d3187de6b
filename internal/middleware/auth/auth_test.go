package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
	"github.com/Skotchmaster/tutorial_catalog/internal/service"
	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

func newIssuer(t *testing.T) *tokens.Issuer {
	t.Helper()
	keys, err := tokens.HMACKeys([]byte("middleware-secret"))
	require.NoError(t, err)
	return tokens.NewIssuer(keys)
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()

	issuer := newIssuer(t)
	svc := &service.AuthService{Tokens: issuer}
	mw := NewBearerAuth(svc)

	userTok, _, err := issuer.IssueSession("ann@x.io", nil)
	require.NoError(t, err)
	adminTok, _, err := issuer.IssueSession("root@x.io", []string{roles.Admin})
	require.NoError(t, err)

	tests := []struct {
		name       string
		admin      bool
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "user ok", header: "Bearer " + userTok, wantStatus: http.StatusOK, wantUser: "ann@x.io"},
		{name: "admin route as user", admin: true, header: "Bearer " + userTok, wantStatus: http.StatusForbidden},
		{name: "admin route as admin", admin: true, header: "bearer " + adminTok, wantStatus: http.StatusOK, wantUser: "root@x.io"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen string
			next := func(c echo.Context) error {
				if s := SessionFrom(c); s != nil {
					seen = s.Subject
				}
				return c.NoContent(http.StatusOK)
			}

			h := mw.RequireAuth(next)
			if tt.admin {
				h = mw.RequireAdmin(next)
			}

			err := h(c)
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, tt.wantUser, seen)
				return
			}
			require.Error(t, err)
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, he.Code)
			assert.Empty(t, seen)
		})
	}
}

func TestSessionFrom_Empty(t *testing.T) {
	t.Parallel()

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, SessionFrom(c))
}
