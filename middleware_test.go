package main

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// okHandler is the handler wrapped by middleware under test
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"message":"success"}`))
})

// --- API Key Authentication Middleware Tests ---

func TestAPIKeyAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		wantCode   int
		wantErrMsg string
	}{
		{"Valid key", mockAPIKey, http.StatusOK, ""},
		{"Missing key", "", http.StatusUnauthorized, ErrMsgMissingAPIKey},
		{"Invalid key", "wrong", http.StatusUnauthorized, ErrMsgInvalidAPIKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup a fresh tracker
			originalTracker := authTracker
			authTracker = newAuthAttemptTracker()
			defer func() { authTracker = originalTracker }()

			handler := apiKeyAuthMiddleware(mockAPIKey)(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.key != "" {
				req.Header.Set(HeaderAPIKey, tt.key)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantErrMsg != "" {
				assert.Equal(t, tt.wantErrMsg, decodeResponse(t, rr).Error)
			} else {
				assert.Contains(t, rr.Body.String(), "success")
			}
		})
	}
}

func TestAPIKeyAuthMiddleware_SuccessClearsFailures(t *testing.T) {
	originalTracker := authTracker
	authTracker = newAuthAttemptTracker()
	defer func() { authTracker = originalTracker }()

	handler := apiKeyAuthMiddleware(mockAPIKey)(okHandler)
	send := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.7:4242"
		req.Header.Set(HeaderAPIKey, key)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < MaxFailedAuthAttempts-1; i++ {
		require.Equal(t, http.StatusUnauthorized, send("wrong"))
	}
	require.Equal(t, http.StatusOK, send(mockAPIKey))
	// The counter restarted, so one more failure does not lock out
	assert.Equal(t, http.StatusUnauthorized, send("wrong"))
	assert.Zero(t, authTracker.getRemainingLockout("10.0.0.7:4242"))
}

// --- Auth Attempt Tracker Tests ---

func TestAuthAttemptTracker(t *testing.T) {
	t.Run("Locks after max failures", func(t *testing.T) {
		at := newAuthAttemptTracker()
		for i := 0; i < MaxFailedAuthAttempts; i++ {
			at.recordFailure("1.2.3.4")
		}
		assert.Positive(t, at.getRemainingLockout("1.2.3.4"))
		assert.Zero(t, at.getRemainingLockout("5.6.7.8"))
		assert.Greater(t, at.getRemainingLockout("1.2.3.4"), AuthLockoutDuration-time.Minute)
		assert.Zero(t, at.getRemainingLockout("5.6.7.8"))
	})

	t.Run("Failures outside the window restart the count", func(t *testing.T) {
		at := newAuthAttemptTracker()
		at.recordFailure("1.2.3.4")
		at.attempts["1.2.3.4"].failedCount = MaxFailedAuthAttempts - 1
		at.attempts["1.2.3.4"].firstFailed = time.Now().Add(-2 * AuthAttemptWindow)

		at.recordFailure("1.2.3.4")
		assert.Zero(t, at.getRemainingLockout("1.2.3.4"))
		assert.Equal(t, 1, at.attempts["1.2.3.4"].failedCount)
	})

	t.Run("Cleanup drops expired entries", func(t *testing.T) {
		at := newAuthAttemptTracker()
		at.recordFailure("stale")
		at.recordFailure("fresh")
		at.attempts["stale"].firstFailed = time.Now().Add(-2 * AuthAttemptWindow)

		at.cleanup()
		assert.NotContains(t, at.attempts, "stale")
		assert.Contains(t, at.attempts, "fresh")
	})

	t.Run("Start and stop are idempotent", func(t *testing.T) {
		at := newAuthAttemptTracker()
		at.cleanupInterval = 5 * time.Millisecond
		at.StartCleanup()
		at.StartCleanup()
		at.StopCleanup()
		assert.NotPanics(t, at.StopCleanup)
	})
}

// --- Rate Limiter Tests ---

func TestSweeper_StopIsFinal(t *testing.T) {
	var runs atomic.Int32
	s := &sweeper{}
	s.start(5*time.Millisecond, func() { runs.Add(1) })
	s.start(time.Hour, func() { t.Error("second start must not run") })

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, time.Second, 5*time.Millisecond)
	s.stop()
	s.stop()

	s.start(5*time.Millisecond, func() { runs.Add(1) })
	time.Sleep(20 * time.Millisecond)
	settled := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, runs.Load(), "no run after stop, restart ignored")
}

func TestRateLimiter(t *testing.T) {
	t.Run("Allows up to rate per window", func(t *testing.T) {
		rl := newRateLimiter(3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("1.1.1.1"))
		}
		assert.False(t, rl.Allow("1.1.1.1"))
		assert.True(t, rl.Allow("2.2.2.2"), "buckets are per IP")
	})

	t.Run("Window reset refills tokens", func(t *testing.T) {
		rl := newRateLimiter(1, 10*time.Millisecond)
		assert.True(t, rl.Allow("1.1.1.1"))
		assert.False(t, rl.Allow("1.1.1.1"))
		time.Sleep(15 * time.Millisecond)
		assert.True(t, rl.Allow("1.1.1.1"))
	})

	t.Run("Rejects new IPs at capacity", func(t *testing.T) {
		rl := newRateLimiter(1, time.Minute)
		for i := 0; i < MaxRateLimiterEntries; i++ {
			rl.requests[itoa(int64(i))] = &tokenBucket{tokens: 1, lastReset: time.Now()}
		}
		assert.False(t, rl.Allow("new-ip"))
	})

	t.Run("Cleanup removes idle buckets", func(t *testing.T) {
		rl := newRateLimiter(1, time.Minute)
		rl.requests["idle"] = &tokenBucket{lastReset: time.Now().Add(-3 * time.Minute)}
		rl.requests["busy"] = &tokenBucket{lastReset: time.Now()}
		rl.cleanup()
		assert.NotContains(t, rl.requests, "idle")
		assert.Contains(t, rl.requests, "busy")
	})

	t.Run("Background cleanup stops", func(t *testing.T) {
		rl := newRateLimiter(1, time.Millisecond)
		rl.StartCleanup()
		time.Sleep(5 * time.Millisecond)
		assert.NotPanics(t, rl.StopCleanup)
	})
}

func TestRateLimitMiddleware_UsesRealIP(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	handler := rateLimitMiddleware(rl)(okHandler)

	send := func(realIP string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Real-IP", realIP)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("192.168.1.10"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.168.1.10"))
	assert.Equal(t, http.StatusOK, send("192.168.1.11"))
}

// --- CORS and Security Header Tests ---

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitOrigins(""))
	assert.Equal(t, []string{"*"}, splitOrigins(" , "))
	assert.Equal(t, []string{"http://a.local", "https://b.local"}, splitOrigins("http://a.local, https://b.local,"))
}

func TestCORSMiddleware_RestrictedOrigins(t *testing.T) {
	handler := corsMiddleware([]string{"http://allowed.local"}, 600)(okHandler)

	send := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", origin)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, "http://allowed.local", send("http://allowed.local").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, send("http://other.local").Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := securityHeadersMiddleware(okHandler)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/wifi", nil))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", rr.Header().Get("Content-Security-Policy"))
	assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, "no-referrer", rr.Header().Get("Referrer-Policy"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "'unsafe-inline'")
	assert.Empty(t, rr.Header().Get("Cache-Control"))
}

// --- Audit Log Tests ---

func TestAuditLog(t *testing.T) {
	logs := captureLogs(t)

	AuditLog(AuditEventAuthFailure, "10.0.0.1", "Invalid API key")
	AuditLogWithFields(AuditEventStatusChange, "10.0.0.2", map[string]interface{}{"target": Band5GHz})

	out := logs.String()
	assert.Contains(t, out, `"event":"auth_failure"`)
	assert.Contains(t, out, `"client_ip":"10.0.0.1"`)
	assert.Contains(t, out, `"details":"Invalid API key"`)
	assert.Contains(t, out, `"event":"wifi_status_change"`)
	assert.Contains(t, out, `"target":"5GHz"`)
}
