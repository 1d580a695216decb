package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newClockedLimiter(rps float64, burst int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(rps, burst)
	l.now = clock.now
	return l, clock
}

func TestRequestsWithinBurstAreAllowed(t *testing.T) {
	burst := 5
	limiter, _ := newClockedLimiter(1, burst)

	for i := 0; i < burst; i++ {
		if !limiter.allow("192.168.1.1") {
			t.Errorf("request %d within burst of %d should be allowed", i+1, burst)
		}
	}
	if limiter.allow("192.168.1.1") {
		t.Error("request exceeding burst should be denied")
	}
}

func TestTokensReplenishOverTime(t *testing.T) {
	limiter, clock := newClockedLimiter(10, 2)

	limiter.allow("192.168.1.1")
	limiter.allow("192.168.1.1")
	if limiter.allow("192.168.1.1") {
		t.Fatal("expected request to be denied after exhausting burst")
	}

	clock.t = clock.t.Add(150 * time.Millisecond)

	if !limiter.allow("192.168.1.1") {
		t.Error("expected request to be allowed after token replenishment")
	}
}

func TestTokensDoNotExceedBurst(t *testing.T) {
	burst := 3
	limiter, clock := newClockedLimiter(100, burst)

	limiter.allow("192.168.1.1")
	clock.t = clock.t.Add(time.Minute)

	allowed := 0
	for i := 0; i < burst+2; i++ {
		if limiter.allow("192.168.1.1") {
			allowed++
		}
	}
	if allowed != burst {
		t.Errorf("expected %d requests allowed, got %d", burst, allowed)
	}
}

func TestDifferentKeysHaveIndependentLimits(t *testing.T) {
	limiter, _ := newClockedLimiter(1, 1)

	limiter.allow("10.0.0.1")
	if limiter.allow("10.0.0.1") {
		t.Error("expected second request from first IP to be denied")
	}
	if !limiter.allow("10.0.0.2") {
		t.Error("expected first request from second IP to be allowed")
	}
}

func TestSweepDropsIdleVisitors(t *testing.T) {
	limiter, clock := newClockedLimiter(1, 1)

	limiter.allow("10.0.0.1")
	clock.t = clock.t.Add(idleTTL + time.Second)
	limiter.allow("10.0.0.2")

	limiter.sweep()

	if _, ok := limiter.visitors["10.0.0.1"]; ok {
		t.Error("expected idle visitor to be removed")
	}
	if _, ok := limiter.visitors["10.0.0.2"]; !ok {
		t.Error("expected recent visitor to be kept")
	}
}

func TestStartCleanupLoopStopsWithContext(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	limiter.StartCleanupLoop(ctx, time.Millisecond)
	cancel()
}

func TestMiddlewareReturns429WhenRateLimited(t *testing.T) {
	limiter, _ := newClockedLimiter(1, 1)
	nextCalls := 0
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalls++
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") != "2" {
		t.Errorf("expected Retry-After 2, got %q", second.Header().Get("Retry-After"))
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(second.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "too many requests" {
		t.Errorf("unexpected body: %v", body)
	}
	if nextCalls != 1 {
		t.Errorf("expected next handler once, got %d", nextCalls)
	}
}

func TestMiddlewareKeysOnFirstForwardedHop(t *testing.T) {
	limiter, _ := newClockedLimiter(1, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.5, 10.0.0.1"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := send("203.0.113.5, 10.0.0.2"); code != http.StatusTooManyRequests {
		t.Errorf("expected same client through another proxy to be limited, got %d", code)
	}
	if code := send("198.51.100.7"); code != http.StatusOK {
		t.Errorf("expected different client to pass, got %d", code)
	}
}

func TestClientKeyStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:54321"
	if got := clientKey(req); got != "192.0.2.1" {
		t.Errorf("expected 192.0.2.1, got %q", got)
	}
}
