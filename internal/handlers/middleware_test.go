package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/watchtower-api/internal/middleware"
	"github.com/yukikurage/watchtower-api/internal/testutil"
)

func createUserWithToken(t *testing.T, env *testEnv, username string) string {
	t.Helper()
	user := testutil.CreateUser(t, env.db, username)
	_, raw, err := env.tokenService.Issue(context.Background(), user.ID, "tests", nil)
	require.NoError(t, err)
	return raw
}

func TestBearerAuth_Rejections(t *testing.T) {
	env := setupTestEnv(t)

	cases := map[string]string{
		"no credentials": "",
		"unknown secret": "Bearer not-a-real-secret",
		"wrong scheme":   "Basic " + env.token,
		"missing secret": "Bearer ",
		"scheme only":    "Bearer",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.doWith(t, http.MethodGet, "/api/shifts/current", nil, header)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHORIZED", decode[errorBody](t, w).Code)
			if header != "" {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestBearerAuth_UniformMessage(t *testing.T) {
	env := setupTestEnv(t)

	ctx := context.Background()
	revoked, revokedRaw, err := env.tokenService.Issue(ctx, env.user.ID, "revoked", nil)
	require.NoError(t, err)
	_, err = env.tokenService.Revoke(ctx, revoked.ID)
	require.NoError(t, err)

	unknown := env.doWith(t, http.MethodGet, "/api/statuses", nil, "Bearer nope")
	dead := env.doWith(t, http.MethodGet, "/api/statuses", nil, "Bearer "+revokedRaw)

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, dead.Code)
	assert.Equal(t, unknown.Body.String(), dead.Body.String())
}

func TestBearerAuth_SchemeIsCaseInsensitive(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doWith(t, http.MethodGet, "/api/statuses", nil, "bearer "+env.token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doWith(t, http.MethodGet, "/health", nil, "")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestBearerRateLimit(t *testing.T) {
	env := setupTestEnv(t, withRateLimit(2))

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodGet, "/api/statuses", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/statuses", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", decode[errorBody](t, w).Code)

	// session and anonymous traffic is not throttled
	w = env.doWith(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.doWith(t, http.MethodGet, "/api/statuses", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
