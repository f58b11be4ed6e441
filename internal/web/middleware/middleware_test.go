package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORSAllowsLocalhost(t *testing.T) {
	rr := serveWithCORS(t, "http://localhost:3000")

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q; want the localhost origin echoed", got)
	}
}

func TestCORSBlocksUnknownOrigin(t *testing.T) {
	rr := serveWithCORS(t, "http://evil.example.com")

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q; want no header for an unknown origin", got)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://app.example.com, https://other.example.com")

	rr := serveWithCORS(t, "https://app.example.com")

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q; want the configured origin echoed", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	handler := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/match", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d; want 200 for preflight", rr.Code)
	}
	if called {
		t.Error("preflight request should not reach the next handler")
	}
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	t.Setenv("WEB_RATE_LIMIT", "1")
	t.Setenv("WEB_RATE_BURST", "2")

	handler := NewRateLimiter().Handler(okHandler())

	for i := 0; i < 2; i++ {
		if code := hit(handler, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d status = %d; want 200 within burst", i+1, code)
		}
	}
	if code := hit(handler, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d; want 429 after the burst is spent", code)
	}
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	t.Setenv("WEB_RATE_LIMIT", "1")
	t.Setenv("WEB_RATE_BURST", "1")

	handler := NewRateLimiter().Handler(okHandler())

	if code := hit(handler, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first client status = %d; want 200", code)
	}
	if code := hit(handler, "10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("second client status = %d; want 200, limits are per client", code)
	}
	if code := hit(handler, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("first client again status = %d; want 429", code)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	t.Setenv("WEB_RATE_LIMIT", "0")

	handler := NewRateLimiter().Handler(okHandler())

	for i := 0; i < 50; i++ {
		if code := hit(handler, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d status = %d; want throttling disabled", i+1, code)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"method=GET", "path=/api/v1/config", "status=418"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func serveWithCORS(t *testing.T, origin string) *httptest.ResponseRecorder {
	t.Helper()
	handler := CORS()(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", origin)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(handler http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr.Code
}
