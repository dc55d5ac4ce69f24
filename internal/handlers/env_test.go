package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/watchtower-api/internal/clock"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/repository"
	"github.com/yukikurage/watchtower-api/internal/services"
	"github.com/yukikurage/watchtower-api/internal/testutil"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	clock  *clock.Mock
	router *gin.Engine

	authService       *services.AuthService
	tokenService      *services.TokenService
	shiftService      *services.ShiftService
	controllerService *services.ControllerService
	engine            *services.StatusEngine

	user  *models.User
	token string
}

type envOption func(*RouterDeps)

func withRateLimit(perMinute int) envOption {
	return func(d *RouterDeps) { d.RateLimitPerMinute = perMinute }
}

func setupTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	clk := clock.NewMock(testutil.Epoch)
	log, _ := testutil.NewLogger()

	controllerRepo := repository.NewControllerRepository(db)
	env := &testEnv{
		db:                db,
		clock:             clk,
		authService:       services.NewAuthService(repository.NewUserRepository(db)),
		tokenService:      services.NewTokenService(repository.NewTokenRepository(db), clk, log),
		shiftService:      services.NewShiftService(repository.NewShiftRepository(db), controllerRepo, clk, log),
		controllerService: services.NewControllerService(controllerRepo, models.BoardModeShift, log),
		engine: services.NewStatusEngine(repository.NewStatusRepository(db), clk, services.StatusEngineOptions{
			Logger: log,
		}),
	}

	deps := RouterDeps{
		AuthService:       env.authService,
		TokenService:      env.tokenService,
		ShiftService:      env.shiftService,
		ControllerService: env.controllerService,
		StatusEngine:      env.engine,
		SessionStore:      cookie.NewStore([]byte("secret")),
		Clock:             clk,
		Logger:            log,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.router = SetupRouter(deps)

	env.user = testutil.CreateUser(t, db, "operator")
	_, raw, err := env.tokenService.Issue(context.Background(), env.user.ID, "tests", nil)
	require.NoError(t, err)
	env.token = raw

	return env
}

// do sends a request authenticated with the env's bearer token
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWith(t, method, path, body, "Bearer "+e.token)
}

// doWith sends a request with the given Authorization header, or none when empty
func (e *testEnv) doWith(t *testing.T, method, path string, body any, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}
