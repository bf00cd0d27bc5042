package mw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/mysa/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"mysa.local", "mysa.local", true},
		{"api.mysa.local", "*.mysa.local", true},
		{"mysa.local", "*.mysa.local", false},
		{"evil.com", "mysa.local", false},
		{"evilmysa.local", "*.mysa.local", false},
		{".mysa.local", "*.mysa.local", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{" Mysa.Local ", "*.mysa.lan"}, logger.Nop())(okHandler())

	tests := []struct {
		host string
		want int
	}{
		{"mysa.local", http.StatusOK},
		{"MYSA.LOCAL:8080", http.StatusOK},
		{"api.mysa.lan:443", http.StatusOK},
		{"mysa.lan", http.StatusMisdirectedRequest},
		{"attacker.example", http.StatusMisdirectedRequest},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tt.want {
			t.Errorf("host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
		}
		if tt.want != http.StatusOK && !strings.Contains(rec.Body.String(), `"error"`) {
			t.Errorf("host %q: body = %q, want a JSON error", tt.host, rec.Body.String())
		}
	}
}

func TestEnforceHostEmptyIsPassthrough(t *testing.T) {
	h := EnforceHost([]string{"", "  "}, logger.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "anything.example"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAllowCIDRs(t *testing.T) {
	h := AllowCIDRs([]string{"10.0.0.0/8", "192.168.1.7"}, true, logger.Nop())(okHandler())

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       int
	}{
		{"inside range", "10.1.2.3:5000", "", http.StatusOK},
		{"single address", "192.168.1.7:5000", "", http.StatusOK},
		{"outside", "203.0.113.9:5000", "", http.StatusForbidden},
		{"forwarded client inside", "203.0.113.9:5000", "10.0.0.5, 203.0.113.9", http.StatusOK},
		{"forwarded client outside", "10.0.0.1:5000", "198.51.100.4", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/infra", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAccessLogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	status := func(code int) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})
	}

	tests := []struct {
		path  string
		code  int
		level zapcore.Level
	}{
		{"/healthz", http.StatusOK, zapcore.DebugLevel},
		{"/api/entries", http.StatusOK, zapcore.InfoLevel},
		{"/api/entries", http.StatusNotFound, zapcore.WarnLevel},
		{"/api/entries", http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		h := AccessLog(log, false)(status(tt.code))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("%s %d: %d log lines, want 1", tt.path, tt.code, len(entries))
		}
		if entries[0].Level != tt.level {
			t.Errorf("%s %d: level = %v, want %v", tt.path, tt.code, entries[0].Level, tt.level)
		}
		if got := entries[0].ContextMap()["status"]; got != int64(tt.code) {
			t.Errorf("%s %d: status field = %v", tt.path, tt.code, got)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS()(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/entries", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("preflight should list allowed methods")
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	h := CORS("http://mysa.local")(okHandler())

	tests := []struct {
		origin string
		want   string
	}{
		{"http://mysa.local", "http://mysa.local"},
		{"http://evil.example", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("origin %s: status = %d, want 200", tt.origin, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestLimiterPerIP(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 60})
	now := time.Now()

	for i := 0; i < 2; i++ {
		if ok, _, _ := l.allow("10.0.0.1", now); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, _, retry := l.allow("10.0.0.1", now)
	if ok {
		t.Fatal("third request in the same instant should be denied")
	}
	if retry <= 0 || retry > time.Second {
		t.Errorf("retry = %v, want (0, 1s]", retry)
	}

	if ok, _, _ := l.allow("10.0.0.2", now); !ok {
		t.Error("another IP has its own bucket")
	}

	if ok, _, _ := l.allow("10.0.0.1", now.Add(time.Second)); !ok {
		t.Error("one token should refill after a second at 60/min")
	}
}

func TestLimiterSweepsIdleVisitors(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, IdleTTL: time.Minute, SweepInterval: time.Minute})
	now := time.Now()

	l.allow("10.0.0.1", now)
	l.allow("10.0.0.2", now.Add(2*time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Error("idle visitor should have been swept")
	}
	if len(l.visitors) != 1 {
		t.Errorf("visitors = %d, want 1", len(l.visitors))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1})(okHandler())

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %q", first.Header().Get("X-RateLimit-Limit"))
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}
