package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, zerolog.Nop())
	now := time.Date(2026, 1, 1, 12, 0, 10, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if allowed, _, _ := rl.CheckAndIncrement("ip:1.2.3.4"); !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	allowed, remaining, resetAt := rl.CheckAndIncrement("ip:1.2.3.4")
	if allowed {
		t.Fatal("third request should be limited")
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", remaining)
	}
	if want := time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC); !resetAt.Equal(want) {
		t.Fatalf("expected reset at %v, got %v", want, resetAt)
	}

	if allowed, _, _ := rl.CheckAndIncrement("ip:5.6.7.8"); !allowed {
		t.Fatal("other IPs have their own counter")
	}

	now = now.Add(time.Minute)
	if allowed, _, _ := rl.CheckAndIncrement("ip:1.2.3.4"); !allowed {
		t.Fatal("a new window should reset the counter")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, zerolog.Nop())
	h := rl.Middleware(okHandler)

	send := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/rooms", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(http.MethodPost); rec.Code != http.StatusOK {
		t.Fatalf("first POST: expected 200, got %d", rec.Code)
	}
	rec := send(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if rec := send(http.MethodGet); rec.Code != http.StatusOK {
		t.Fatalf("GET should not be limited, got %d", rec.Code)
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if ip := RealIP(req); ip != "192.0.2.1" {
		t.Fatalf("expected remote addr host, got %q", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if ip := RealIP(req); ip != "203.0.113.9" {
		t.Fatalf("expected first forwarded address, got %q", ip)
	}
}

func TestValidateRequest(t *testing.T) {
	h := ValidateRequest(okHandler)

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		contentType string
		want        int
	}{
		{"json body", http.MethodPost, "/rooms", `{"name":"a"}`, "application/json", http.StatusOK},
		{"empty join", http.MethodPost, "/rooms/r1/join", "", "", http.StatusOK},
		{"form body", http.MethodPost, "/rooms", "name=a", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"traversal", http.MethodGet, "/rooms/../etc", "", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			req.URL.Path = tt.path
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/rooms":           "/rooms",
		"/rooms/":          "/rooms/",
		"/rooms/abc":       "/rooms/:id",
		"/rooms/abc/join":  "/rooms/:id/join",
		"/rooms/abc/notes": "/rooms/:id/notes",
		"/health":          "/health",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
