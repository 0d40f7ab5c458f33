package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"X-Forwarded-For", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8"}, "9.9.9.9:1234", "1.2.3.4"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "5.6.7.8"}, "9.9.9.9:1234", "5.6.7.8"},
		{"RemoteAddr", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"IPv6 RemoteAddr", nil, "[::1]:8080", "::1"},
		{"RemoteAddr without port", nil, "[::1]", "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tt.remote
			if got := getClientIP(req); got != tt.expected {
				t.Errorf("getClientIP() = %q; want %q", got, tt.expected)
			}
		})
	}
}

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time { return c.t }

func TestRateLimiterBurstAndRefill(t *testing.T) {
	t.Parallel()
	clock := &manualClock{t: time.Unix(0, 0)}
	rl := newRateLimiterAt(RateLimiterConfig{RequestsPerMinute: 60, Burst: 3}, clock.now)

	for i := range 3 {
		if ok, _ := rl.Allow("a"); !ok {
			t.Fatalf("request %d within burst was denied", i)
		}
	}
	ok, wait := rl.Allow("a")
	if ok {
		t.Fatal("request over burst was allowed")
	}
	if wait <= 0 || wait > time.Second {
		t.Errorf("wait = %v, want (0, 1s]", wait)
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Error("clients must not share a bucket")
	}

	clock.t = clock.t.Add(time.Second)
	if ok, _ := rl.Allow("a"); !ok {
		t.Error("one token should refill after one second at 60/min")
	}
	if ok, _ := rl.Allow("a"); ok {
		t.Error("only one token should have refilled")
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	t.Parallel()
	clock := &manualClock{t: time.Unix(0, 0)}
	rl := newRateLimiterAt(RateLimiterConfig{RequestsPerMinute: 60, IdleTTL: time.Minute}, clock.now)
	rl.Allow("a")
	rl.Allow("b")
	if n := rl.clients(); n != 2 {
		t.Fatalf("clients = %d, want 2", n)
	}
	clock.t = clock.t.Add(2 * time.Minute)
	rl.Allow("c")
	if n := rl.clients(); n != 1 {
		t.Errorf("clients after sweep = %d, want 1", n)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 1, Burst: 1})
	handler := RateLimitMiddleware(rl, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/pi", http.NoBody)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestSecurityMiddleware(t *testing.T) {
	t.Parallel()
	called := false
	next := func(w http.ResponseWriter, _ *http.Request) { called = true }

	tests := []struct {
		name       string
		cfg        SecurityConfig
		method     string
		origin     string
		wantOrigin string
		wantNext   bool
	}{
		{"Wildcard", DefaultSecurityConfig(), http.MethodGet, "http://x", "*", true},
		{"Preflight", DefaultSecurityConfig(), http.MethodOptions, "http://x", "*", false},
		{"Listed origin", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"http://ok"}}, http.MethodGet, "http://ok", "http://ok", true},
		{"Unlisted origin", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"http://ok"}}, http.MethodGet, "http://evil", "", true},
		{"CORS disabled", SecurityConfig{}, http.MethodOptions, "http://x", "", true},
	}
	for _, tt := range tests {
		called = false
		req := httptest.NewRequest(tt.method, "/pi", http.NoBody)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		SecurityMiddleware(tt.cfg, next)(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
			t.Errorf("%s: allow-origin = %q, want %q", tt.name, got, tt.wantOrigin)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: nosniff header missing", tt.name)
		}
		if called != tt.wantNext {
			t.Errorf("%s: next called = %v, want %v", tt.name, called, tt.wantNext)
		}
	}
}
