package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wedbook/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled:                 true,
		WindowDuration:          time.Minute,
		DefaultRequests:         60,
		PublicRequests:          100,
		BookingRequests:         30,
		BookingCriticalRequests: 10,
		AdminRequests:           200,
		HealthRequests:          300,
		WhitelistedIPs:          []string{"10.0.0.1"},
	}
}

func TestGetRateLimitType(t *testing.T) {
	cases := []struct {
		method, path string
		want         RateLimitType
	}{
		{http.MethodGet, "/health", RateLimitTypeHealth},
		{http.MethodPost, "/api/v1/drafts/:id/pay", RateLimitTypeBookingCritical},
		{http.MethodPost, "/api/v1/payments/callback", RateLimitTypeBookingCritical},
		{http.MethodPost, "/api/v1/drafts/:id/next", RateLimitTypeBooking},
		{http.MethodGet, "/api/v1/bookings/:id", RateLimitTypeBooking},
		{http.MethodGet, "/api/v1/listings/:id/availability", RateLimitTypePublic},
		{http.MethodPost, "/api/v1/escrow/:id/release", RateLimitTypeAdmin},
		{http.MethodGet, "/unknown", RateLimitTypeDefault},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, getRateLimitType(tc.method, tc.path))
		})
	}
}

func TestIsAllowed_WhitelistedSkipsRedis(t *testing.T) {
	// nil client: any redis call would panic
	rl := NewRateLimiter(nil, testConfig())

	res, err := rl.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeBookingCritical)

	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 10, res.Limit)
}

func TestIsAllowed_DisabledSkipsRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	rl := NewRateLimiter(nil, cfg)

	res, err := rl.IsAllowed(context.Background(), "192.168.1.5", RateLimitTypePublic)

	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 100, res.Remaining)
}

func TestMiddleware_SetsHeadersWhenAllowed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.Enabled = false

	r := gin.New()
	r.Use(Middleware(NewRateLimiter(nil, cfg), logger.GetDefault()))
	r.GET("/api/v1/listings/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/abc", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
}
