package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/watchtower-api/internal/constants"
)

func TestParseBearer(t *testing.T) {
	cases := []struct {
		header string
		raw    string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
	}

	for _, tc := range cases {
		raw, ok := parseBearer(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.raw, raw, tc.header)
	}
}

func TestGetUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set(constants.ContextKeyUserID, uint64(7))
	id, ok := GetUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)

	c.Set(constants.ContextKeyUserID, -1)
	_, ok = GetUserID(c)
	assert.False(t, ok)

	c.Set(constants.ContextKeyUserID, "7")
	_, ok = GetUserID(c)
	assert.False(t, ok)
}

func TestRateLimiterMap_PerIP(t *testing.T) {
	limiters := newRateLimiterMap(1)

	assert.True(t, limiters.getLimiter("10.0.0.1").Allow())
	assert.False(t, limiters.getLimiter("10.0.0.1").Allow())
	assert.True(t, limiters.getLimiter("10.0.0.2").Allow())
	assert.Len(t, limiters.limiters, 2)
}

func TestBearerRateLimit_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BearerRateLimit(0))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer x")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}
