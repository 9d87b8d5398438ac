package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestLimiter_BudgetPerKey(t *testing.T) {
	l := New(Config{Requests: 3, Window: time.Hour})
	defer l.Stop()

	for i := range 3 {
		if !l.Allow("a") {
			t.Fatalf("request %d denied within budget", i+1)
		}
	}
	if l.Allow("a") {
		t.Error("fourth request allowed")
	}
	if !l.Allow("b") {
		t.Error("other key should have its own budget")
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
}

func TestLimiter_Defaults(t *testing.T) {
	l := New(Config{})
	defer l.Stop()
	if l.config.Requests != 100 || l.config.Window != 15*time.Minute {
		t.Errorf("config = %+v", l.config)
	}
	if l.RetryAfter() != 9*time.Second {
		t.Errorf("RetryAfter = %v, want 9s", l.RetryAfter())
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l := New(Config{Requests: 1, Window: time.Hour, CleanupInterval: time.Nanosecond})
	defer l.Stop()
	l.Allow("a")
	time.Sleep(time.Millisecond)
	l.Cleanup()
	if l.Len() != 0 {
		t.Errorf("Len = %d after cleanup", l.Len())
	}
}

func TestProperty_NeverExceedsBudget(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		budget := rapid.IntRange(1, 50).Draw(rt, "budget")
		attempts := rapid.IntRange(0, 120).Draw(rt, "attempts")
		l := New(Config{Requests: budget, Window: time.Hour})
		defer l.Stop()

		allowed := 0
		for range attempts {
			if l.Allow("k") {
				allowed++
			}
		}
		if allowed > budget {
			rt.Fatalf("allowed %d of budget %d", allowed, budget)
		}
		if attempts <= budget && allowed != attempts {
			rt.Fatalf("allowed %d of %d within budget %d", allowed, attempts, budget)
		}
	})
}

func TestMiddleware(t *testing.T) {
	l := New(Config{Requests: 2, Window: time.Minute})
	defer l.Stop()
	h := Middleware(l, ClientIP)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	if first.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", first.Code)
	}
	if first.Header().Get("RateLimit-Limit") != "2" || first.Header().Get("RateLimit-Remaining") != "1" {
		t.Errorf("headers = %v", first.Header())
	}
	do()
	third := do()
	if third.Code != http.StatusTooManyRequests {
		t.Fatalf("third status = %d, want 429", third.Code)
	}
	if third.Header().Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q, want 30", third.Header().Get("Retry-After"))
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	if got := ClientIP(req); got != "192.0.2.7" {
		t.Errorf("ClientIP = %q", got)
	}
	req.RemoteAddr = "192.0.2.7"
	if got := ClientIP(req); got != "192.0.2.7" {
		t.Errorf("ClientIP without port = %q", got)
	}
}
