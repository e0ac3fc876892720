package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterPerClientBurst(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerSecond: 0.001, Burst: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst was rejected", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("request beyond burst should be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("other clients have their own bucket")
	}

	m := rl.GetMetrics()
	if m.TotalHits != 1 || m.ClientCount != 2 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestLimiterGlobalBucket(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerSecond: 100, Burst: 100, GlobalRequestsPerSecond: 0.001, GlobalBurst: 2})
	defer rl.Stop()

	if !rl.Allow("a") || !rl.Allow("b") {
		t.Fatal("first two requests should pass the global bucket")
	}
	if rl.Allow("c") {
		t.Fatal("global bucket should be exhausted")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl := NewLimiter(Config{IdleTTL: time.Minute})
	defer rl.Stop()

	rl.Allow("old")
	rl.cleanupStaleEntries(time.Now().Add(2 * time.Minute))
	if n := rl.GetMetrics().ClientCount; n != 0 {
		t.Fatalf("stale client not removed, %d left", n)
	}
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerSecond: 0.001, Burst: 1})
	defer rl.Stop()

	h := rl.Middleware(func(r *http.Request) string { return "ip" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("second request status = %d, Retry-After = %q", rec.Code, rec.Header().Get("Retry-After"))
	}
}
