package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestLimiterRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewLimiter(2, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiterSweepsIdleKeys(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(time.Hour)
	l.Allow("b")
	assert.Len(t, l.m, 1)
}

func TestRateLimitOnlyGuardsPost(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(NewLimiter(1, 0)))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/", ok)
	e.POST("/predict", ok)

	do := func(method string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/predict", nil)
		if method == http.MethodGet {
			req = httptest.NewRequest(method, "/", nil)
		}
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost))
	assert.Equal(t, http.StatusOK, do(http.MethodGet))
	assert.Equal(t, http.StatusOK, do(http.MethodGet))
}

func TestRateLimitSetsRetryAfter(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(NewLimiter(1, 0.25)))
	e.POST("/predict", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	var rec *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", nil))
	}
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("Retry-After"))
}

func TestNewLimiterRoundsCapacityUp(t *testing.T) {
	l := NewLimiter(0.5, 1)
	assert.Equal(t, 1, l.burst)
	assert.Equal(t, 3, NewLimiter(2.2, 1).burst)
}
