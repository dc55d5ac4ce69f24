package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/watchtower-api/internal/constants"
	"github.com/yukikurage/watchtower-api/internal/dto"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/services"
	"github.com/yukikurage/watchtower-api/internal/testutil"
)

func TestAuthHandler_Signup(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doWith(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "newuser",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	response := decode[dto.UserDTO](t, w)
	require.Equal(t, "newuser", response.Username)

	w = env.doWith(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "newuser",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.doWith(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "shortpw",
		"password": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_LoginSession(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.authService.Signup(context.Background(), services.SignupInput{
		Username: "existing",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.doWith(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "existing",
		"password": "wrong-password",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doWith(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "existing",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	env.router.ServeHTTP(me, req)

	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "existing", decode[dto.UserDTO](t, me).Username)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewAuthHandler(env.authService, testutil.NullLogger())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	c.Set(constants.ContextKeyUserID, env.user.ID)

	handler.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, env.user.Username, response.Username)
}

func TestAuthHandler_Logout(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doWith(t, http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", bytes.NewReader(nil))
	me := httptest.NewRecorder()
	env.router.ServeHTTP(me, req)
	require.Equal(t, http.StatusUnauthorized, me.Code)
}

// login signs up username and returns the session cookies of a fresh login
func login(t *testing.T, env *testEnv, username, password string) []*http.Cookie {
	t.Helper()

	_, err := env.authService.Signup(context.Background(), services.SignupInput{
		Username: username,
		Password: password,
	})
	require.NoError(t, err)

	w := env.doWith(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

// doSession sends a JSON request carrying the given session cookies
func doSession(t *testing.T, env *testEnv, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_DeletedUserSessionRejected(t *testing.T) {
	env := setupTestEnv(t)
	cookies := login(t, env, "leaver", "supersecret")

	w := doSession(t, env, http.MethodGet, "/api/auth/me", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[dto.UserDTO](t, w)

	require.NoError(t, env.authService.DeleteUser(context.Background(), user.ID))

	w = doSession(t, env, http.MethodPost, "/api/tokens", map[string]string{"label": "after-delete"}, cookies)
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	w = doSession(t, env, http.MethodGet, "/api/auth/me", nil, cookies)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.PersonalAccessToken{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthHandler_OrphanedTokenRejected(t *testing.T) {
	env := setupTestEnv(t)

	_, raw, err := env.tokenService.Issue(context.Background(), env.user.ID+100, "orphan", nil)
	require.NoError(t, err)

	w := env.doWith(t, http.MethodGet, "/api/auth/me", nil, "Bearer "+raw)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", decode[errorBody](t, w).Message)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env := setupTestEnv(t)
	cookies := login(t, env, "rotator", "supersecret")

	w := doSession(t, env, http.MethodPost, "/api/auth/password", map[string]string{
		"old_password": "wrong-password",
		"new_password": "brand-new-secret",
	}, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "current password is incorrect", decode[errorBody](t, w).Message)

	w = doSession(t, env, http.MethodPost, "/api/auth/password", map[string]string{
		"old_password": "supersecret",
		"new_password": "short",
	}, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doSession(t, env, http.MethodPost, "/api/auth/password", map[string]string{
		"old_password": "supersecret",
		"new_password": "brand-new-secret",
	}, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The session that changed the password stays logged in
	w = doSession(t, env, http.MethodGet, "/api/auth/me", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doWith(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "rotator",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doWith(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "rotator",
		"password": "brand-new-secret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_ChangePasswordRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doWith(t, http.MethodPost, "/api/auth/password", map[string]string{
		"old_password": "supersecret",
		"new_password": "brand-new-secret",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
