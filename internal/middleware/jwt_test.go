package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-lending/internal/utils"
)

const testSecret = "unit-test-secret"

// stubChecker marks a fixed set of token ids as revoked.
type stubChecker struct {
	revoked map[string]bool
	err     error
}

func (s *stubChecker) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

func runJWT(t *testing.T, authHeader string, checker RevocationChecker) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret, checker)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, true, 5)
	require.NoError(t, err)

	rec, c := runJWT(t, "Bearer "+tok.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), c.Get("user_id"))
	assert.Equal(t, true, c.Get("is_admin"))
	assert.Equal(t, tok.ID, c.Get("jti"))
	exp, ok := c.Get("token_exp").(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, tok.Exp, exp, time.Second)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := runJWT(t, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsGarbageToken(t *testing.T) {
	rec, _ := runJWT(t, "Bearer not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("some-other-secret", 42, false, 5)
	require.NoError(t, err)

	rec, _ := runJWT(t, "Bearer "+tok.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsRevokedToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, false, 5)
	require.NoError(t, err)

	checker := &stubChecker{revoked: map[string]bool{tok.ID: true}}
	rec, _ := runJWT(t, "Bearer "+tok.Token, checker)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "revoked")
}

func TestJWTAuthAllowsUnrevokedToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, false, 5)
	require.NoError(t, err)

	checker := &stubChecker{revoked: map[string]bool{"other-jti": true}}
	rec, _ := runJWT(t, "Bearer "+tok.Token, checker)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		name     string
		isAdmin  any
		wantCode int
	}{
		{"admin passes", true, http.StatusOK},
		{"non-admin refused", false, http.StatusForbidden},
		{"missing flag refused", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/v1/admin/borrows", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.isAdmin != nil {
				c.Set("is_admin", tc.isAdmin)
			}

			h := RequireAdmin()(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			require.NoError(t, h(c))
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}
