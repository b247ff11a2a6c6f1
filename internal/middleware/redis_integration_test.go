//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-enrollment/internal/config"
	"github.com/iliyamo/course-enrollment/internal/testutil/containers"
)

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestResponseCacheWithRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	cache := NewResponseCache(config.CacheConfig{
		Enabled:      true,
		TTL:          time.Minute,
		Prefix:       "courses-cache",
		MaxBodyBytes: 1 << 20,
	}, rc.Client)

	var calls atomic.Int32
	e := echo.New()
	e.GET("/v1/courses", func(c echo.Context) error {
		calls.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"courses": []string{"Go 101"}})
	}, cache.Middleware())

	first := get(e, "/v1/courses")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get(e, "/v1/courses")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), calls.Load())

	// a different query string is a different entry
	assert.Equal(t, "MISS", get(e, "/v1/courses?available=true").Header().Get("X-Cache"))

	require.NoError(t, cache.Purge(ctx))
	keys, err := rc.Client.Keys(ctx, "courses-cache:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.Equal(t, "MISS", get(e, "/v1/courses").Header().Get("X-Cache"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTokenBucketWithRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)

	limiter := NewTokenBucket(config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}, rc.Client)

	e := echo.New()
	e.POST("/v1/courses/:id/enroll", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, limiter)

	post := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/courses/7/enroll", nil))
		return rec
	}

	assert.Equal(t, http.StatusCreated, post().Code)
	second := post()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := post()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}
