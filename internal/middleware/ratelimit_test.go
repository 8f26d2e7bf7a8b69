package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

func TestRateLimiterBurstPerKey(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if ok, _ := rl.take("session:a"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, wait := rl.take("session:a")
	if ok {
		t.Fatal("4th request should be limited")
	}
	if wait < 59*time.Minute || wait > time.Hour {
		t.Errorf("wait = %v, want about an hour", wait)
	}
	if ok, _ := rl.take("session:b"); !ok {
		t.Error("another session has its own bucket")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(2), 1)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	if ok, _ := rl.take("ip:1"); !ok {
		t.Fatal("first request should be allowed")
	}
	ok, wait := rl.take("ip:1")
	if ok || wait != 500*time.Millisecond {
		t.Fatalf("take = %v, %v; want limited for 500ms", ok, wait)
	}

	// A rejected request does not consume the next token.
	now = now.Add(500 * time.Millisecond)
	if ok, _ := rl.take("ip:1"); !ok {
		t.Error("token should have refilled")
	}
}

func TestRateLimiterMiddlewareRetryAfter(t *testing.T) {
	rl := NewRateLimiter(rate.Every(90*time.Second), 1)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/cron/sms-sequences/process", nil)
		req.RemoteAddr = "203.0.113.7:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := send(); rr.Code != http.StatusNoContent {
		t.Fatalf("first: got %d", rr.Code)
	}
	rr := send()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second: got %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "90" {
		t.Errorf("Retry-After = %q, want 90", got)
	}
	if got := rr.Body.String(); got != "{\"error\":\"Too many requests.\"}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestBySession(t *testing.T) {
	key := BySession("sid")

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/abc/sections/x/image", nil)
	req.RemoteAddr = "203.0.113.7:1"
	if got := key(req); got != "ip:203.0.113.7" {
		t.Errorf("without route params: %q", got)
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("sid", "abc")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	if got := key(req); got != "session:abc" {
		t.Errorf("with sid: %q", got)
	}
}

func TestRateLimiterWithKey(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 1, WithKey(BySession("sid")))
	defer rl.Stop()

	r := chi.NewRouter()
	r.With(rl.Middleware).Post("/sessions/{sid}/upload", func(w http.ResponseWriter, r *http.Request) {})

	codes := map[string]int{}
	for _, path := range []string{"/sessions/a/upload", "/sessions/a/upload", "/sessions/b/upload"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		codes[path] = rr.Code
	}
	if codes["/sessions/a/upload"] != http.StatusTooManyRequests {
		t.Errorf("second upload in session a: %d", codes["/sessions/a/upload"])
	}
	if codes["/sessions/b/upload"] != http.StatusOK {
		t.Errorf("session b: %d", codes["/sessions/b/upload"])
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name, xff, xri, remoteAddr, want string
	}{
		{name: "forwarded by private proxy", xff: "198.51.100.4", remoteAddr: "10.0.0.2:1234", want: "198.51.100.4"},
		{name: "first of chain", xff: "198.51.100.4, 172.16.0.1", remoteAddr: "127.0.0.1:1234", want: "198.51.100.4"},
		{name: "real ip header", xri: "198.51.100.5", remoteAddr: "192.168.1.1:1234", want: "198.51.100.5"},
		{name: "public peer headers ignored", xff: "10.0.0.1", xri: "10.0.0.1", remoteAddr: "203.0.113.7:1234", want: "203.0.113.7"},
		{name: "peer only", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "peer without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(10), 10, WithIdle(time.Minute))
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.take("stale")
	now = now.Add(2 * time.Minute)
	rl.take("fresh")
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["stale"]; ok {
		t.Error("stale bucket should be dropped")
	}
	if len(rl.buckets) != 1 {
		t.Errorf("buckets = %d, want 1", len(rl.buckets))
	}
}

func TestRateLimiterStopTwice(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1, WithIdle(-time.Second))
	if rl.idle != 10*time.Minute {
		t.Errorf("non-positive idle should keep default, got %v", rl.idle)
	}
	rl.Stop()
	rl.Stop()
}
