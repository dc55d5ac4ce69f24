package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	first, err := GenerateSecret(32)
	require.NoError(t, err)
	second, err := GenerateSecret(32)
	require.NoError(t, err)

	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "=")
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
}

func TestHashSecret(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashSecret("abc"))
	assert.Equal(t, HashSecret("x"), HashSecret("x"))
	assert.NotEqual(t, HashSecret("x"), HashSecret("y"))
}

func testContext(rawQuery string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func TestGetLogLimit(t *testing.T) {
	cases := map[string]int{
		"":          5,
		"limit=3":   3,
		"limit=0":   5,
		"limit=-4":  5,
		"limit=abc": 5,
		"limit=200": 200,
		"limit=999": 200,
	}
	for query, want := range cases {
		assert.Equal(t, want, GetLogLimit(testContext(query), 5, 200), query)
	}
}

func TestGetPaginationParams(t *testing.T) {
	params := GetPaginationParams(testContext("page=3&limit=10"))
	assert.Equal(t, PaginationParams{Page: 3, Limit: 10, Offset: 20}, params)

	params = GetPaginationParams(testContext("page=0&limit=1000"))
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20, Offset: 0}, params)
}
