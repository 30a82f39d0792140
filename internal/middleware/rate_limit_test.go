package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		if !rl.Allow("auth0|u1") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow("auth0|u1") {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentUsers(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("u1") {
			t.Errorf("u1 request %d should be allowed", i+1)
		}
	}

	if rl.Allow("u1") {
		t.Error("u1 should be rate limited")
	}

	// u2 still has its full burst
	for i := 0; i < 3; i++ {
		if !rl.Allow("u2") {
			t.Errorf("u2 request %d should be allowed", i+1)
		}
	}
}

func newRateLimitContext(e *echo.Echo, method, userID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/api/v1/transactions", nil)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimitMiddleware_SkipsReads(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	for i := 0; i < 5; i++ {
		c, rec := newRateLimitContext(e, http.MethodGet, "u1")
		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimitMiddleware_SkipsAnonymous(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	handlerCalled := 0
	handler := func(c echo.Context) error {
		handlerCalled++
		return c.NoContent(http.StatusOK)
	}

	for i := 0; i < 3; i++ {
		c, _ := newRateLimitContext(e, http.MethodPost, "")
		_ = RateLimitMiddleware(rl)(handler)(c)
	}
	if handlerCalled != 3 {
		t.Errorf("Expected handler to be called 3 times, got %d", handlerCalled)
	}
}

func TestRateLimitMiddleware_LimitsMutations(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusCreated, "OK")
	}

	for i := 0; i < 2; i++ {
		c, rec := newRateLimitContext(e, http.MethodPost, "u1")
		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("Request %d: Expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusCreated {
			t.Errorf("Request %d: Expected status 201, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "10" {
			t.Errorf("Request %d: Expected X-RateLimit-Limit 10, got %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	c, rec := newRateLimitContext(e, http.MethodPost, "u1")
	if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

func TestRateLimiter_CheckReportsRetryAfter(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 1) // one token per second
	defer rl.Stop()

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	first := rl.Check("u1", now)
	if !first.Allowed {
		t.Fatal("First request should be allowed")
	}

	second := rl.Check("u1", now)
	if second.Allowed {
		t.Fatal("Second request should be limited")
	}
	if second.RetryAfter <= 0 || second.RetryAfter > time.Second {
		t.Errorf("Expected retry within a second, got %v", second.RetryAfter)
	}

	if !rl.Check("u1", now.Add(time.Second)).Allowed {
		t.Error("Token should refill after a second")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 1)
	defer rl.Stop()

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	rl.Check("idle", now)
	rl.Check("active", now.Add(9*time.Minute))

	if dropped := rl.Sweep(now.Add(11 * time.Minute)); dropped != 1 {
		t.Errorf("Expected 1 bucket dropped, got %d", dropped)
	}
	if !rl.Check("idle", now.Add(11*time.Minute)).Allowed {
		t.Error("A swept user starts with a fresh bucket")
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter()
	rl.Stop()
	rl.Stop()
}
