package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/watchtower-api/internal/dto"
)

func TestTokenHandler_IssueListRevoke(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/tokens", map[string]any{"label": "deploy", "ttl_hours": 24})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	issued := decode[dto.IssuedTokenDTO](t, w)
	assert.NotEmpty(t, issued.Token)
	assert.True(t, issued.IsActive)
	require.NotNil(t, issued.ExpiresAt)
	assert.True(t, issued.ExpiresAt.Equal(env.clock.Now().Add(24*time.Hour)))

	w = env.do(t, http.MethodGet, "/api/tokens", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), issued.Token)
	listed := decode[struct {
		Tokens []dto.TokenDTO `json:"tokens"`
	}](t, w)
	assert.Len(t, listed.Tokens, 2)

	w = env.doWith(t, http.MethodGet, "/api/statuses", nil, "Bearer "+issued.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/tokens/%d/revoke", issued.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	revoked := decode[dto.TokenDTO](t, w)
	assert.False(t, revoked.IsActive)
	assert.NotNil(t, revoked.RevokedAt)

	w = env.doWith(t, http.MethodGet, "/api/statuses", nil, "Bearer "+issued.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenHandler_Rotate(t *testing.T) {
	env := setupTestEnv(t)

	token, oldRaw, err := env.tokenService.Issue(context.Background(), env.user.ID, "ci", nil)
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/tokens/%d/rotate", token.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decode[dto.IssuedTokenDTO](t, w)
	assert.Equal(t, token.ID, rotated.ID)
	assert.NotEqual(t, oldRaw, rotated.Token)

	w = env.doWith(t, http.MethodGet, "/api/statuses", nil, "Bearer "+oldRaw)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doWith(t, http.MethodGet, "/api/statuses", nil, "Bearer "+rotated.Token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenHandler_OtherUsersTokensAreHidden(t *testing.T) {
	env := setupTestEnv(t)

	stranger := createUserWithToken(t, env, "stranger")

	w := env.doWith(t, http.MethodPost, "/api/tokens/1/revoke", nil, "Bearer "+stranger)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.doWith(t, http.MethodPost, "/api/tokens/1/rotate", nil, "Bearer "+stranger)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/statuses", nil)
	assert.Equal(t, http.StatusOK, w.Code, "the owner's token must still work")
}

func TestTokenHandler_Validation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/tokens", map[string]any{"label": "x", "ttl_hours": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/tokens", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/tokens/abc/revoke", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
