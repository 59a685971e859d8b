package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientKey_IgnoresForwardingHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")

	if got := clientKey(r); got != "203.0.113.7" {
		t.Fatalf("expected peer IP 203.0.113.7, got %q", got)
	}
}

func TestRateLimiter_EnforcesLimitPerKey(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		if !rl.allow("a") {
			t.Fatalf("request %d for key a should be allowed", i+1)
		}
	}
	if rl.allow("a") {
		t.Fatal("request over the limit should be rejected")
	}
	if !rl.allow("b") {
		t.Fatal("a different key has its own window")
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	if !rl.allow("a") {
		t.Fatal("first request should be allowed")
	}
	if rl.allow("a") {
		t.Fatal("second request inside the window should be rejected")
	}

	rl.mu.Lock()
	rl.visitors["a"].resetTime = time.Now().Add(-time.Second)
	rl.mu.Unlock()

	if !rl.allow("a") {
		t.Fatal("request after the window elapsed should be allowed")
	}
}

func TestRateLimiter_MiddlewareRejectsWith429(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "203.0.113.7:54321"
		rw := httptest.NewRecorder()
		handler.ServeHTTP(rw, r)
		return rw.Code
	}

	if code := do(); code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", code)
	}
}
