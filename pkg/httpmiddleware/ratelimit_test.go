package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedHandler(cfg RateLimitConfig) http.Handler {
	return RateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(t *testing.T, h http.Handler, remoteAddr string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/order", nil)
	req.RemoteAddr = remoteAddr
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimitAllowsWithinWindow(t *testing.T) {
	h := limitedHandler(RateLimitConfig{Max: 5, Window: time.Minute})

	for i := 0; i < 5; i++ {
		w := hit(t, h, "192.0.2.1:12345", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimitRejectsWithEnvelope(t *testing.T) {
	h := limitedHandler(RateLimitConfig{Max: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, hit(t, h, "198.51.100.7:9999", nil).Code)
	}

	w := hit(t, h, "198.51.100.7:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.Equal(t, "rate limit exceeded", body.Message)
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	h := limitedHandler(RateLimitConfig{Max: 1, Window: time.Minute})

	assert.Equal(t, http.StatusOK, hit(t, h, "198.51.100.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, hit(t, h, "198.51.100.2:1234", nil).Code)

	// Same client from a different source port is still the same key.
	assert.Equal(t, http.StatusTooManyRequests, hit(t, h, "198.51.100.1:5678", nil).Code)
}

func TestRateLimitCustomKeyFunc(t *testing.T) {
	h := limitedHandler(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-Api-Key")
		},
	})

	assert.Equal(t, http.StatusOK, hit(t, h, "203.0.113.1:1", http.Header{"X-Api-Key": {"key-a"}}).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(t, h, "203.0.113.2:2", http.Header{"X-Api-Key": {"key-a"}}).Code)
	assert.Equal(t, http.StatusOK, hit(t, h, "203.0.113.3:3", http.Header{"X-Api-Key": {"key-b"}}).Code)
}

func TestRateLimitUsesForwardedFor(t *testing.T) {
	h := limitedHandler(RateLimitConfig{Max: 1, Window: time.Minute})

	fwd := http.Header{"X-Forwarded-For": {"203.0.113.50, 70.41.3.18"}}
	assert.Equal(t, http.StatusOK, hit(t, h, "192.0.2.1:4444", fwd).Code)

	// Different socket peer, same first forwarded hop: one key.
	assert.Equal(t, http.StatusTooManyRequests, hit(t, h, "192.0.2.2:5555", fwd).Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		header     http.Header
		want       string
	}{
		{"socket peer", "192.0.2.9:1234", nil, "192.0.2.9"},
		{"x-real-ip", "192.0.2.9:1234", http.Header{"X-Real-Ip": {"203.0.113.9"}}, "203.0.113.9"},
		{"forwarded single", "192.0.2.9:1234", http.Header{"X-Forwarded-For": {"203.0.113.1"}}, "203.0.113.1"},
		{"forwarded chain", "192.0.2.9:1234", http.Header{"X-Forwarded-For": {"203.0.113.1, 10.0.0.1"}}, "203.0.113.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, vs := range tt.header {
				for _, v := range vs {
					req.Header.Add(k, v)
				}
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
