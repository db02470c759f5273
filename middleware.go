package main

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// --- Background Sweeper ---

// sweeper runs a cleanup function periodically until stopped.
// Only the first start and the first stop take effect; a stopped sweeper stays stopped.
type sweeper struct {
	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
}

func (s *sweeper) start(interval time.Duration, fn func()) {
	s.startOnce.Do(func() {
		s.stopCh = make(chan struct{})
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					fn()
				case <-s.stopCh:
					return
				}
			}
		}()
	})
}

func (s *sweeper) stop() {
	s.stopOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
		}
	})
}

// --- Brute Force Protection ---

// authAttemptTracker counts failed API key checks per client IP and locks out repeat offenders
type authAttemptTracker struct {
	mu              sync.RWMutex
	attempts        map[string]*authAttempt
	cleanupInterval time.Duration // Defaults to AuthAttemptWindow
	sweeper
}

// authAttempt is the failure record of one IP
type authAttempt struct {
	failedCount int
	firstFailed time.Time
	lockedUntil time.Time
}

// authTracker guards the /api/v1 routes
var authTracker = newAuthAttemptTracker()

func newAuthAttemptTracker() *authAttemptTracker {
	return &authAttemptTracker{attempts: make(map[string]*authAttempt)}
}

// getRemainingLockout returns how long ip stays locked out, zero when it is not
func (at *authAttemptTracker) getRemainingLockout(ip string) time.Duration {
	at.mu.RLock()
	defer at.mu.RUnlock()
	a, ok := at.attempts[ip]
	if !ok {
		return 0
	}
	if remaining := time.Until(a.lockedUntil); remaining > 0 {
		return remaining
	}
	return 0
}

// recordFailure counts a failure; the count restarts once AuthAttemptWindow has passed
func (at *authAttemptTracker) recordFailure(ip string) {
	at.mu.Lock()
	defer at.mu.Unlock()

	now := time.Now()
	a, ok := at.attempts[ip]
	if !ok || now.Sub(a.firstFailed) > AuthAttemptWindow {
		at.attempts[ip] = &authAttempt{failedCount: 1, firstFailed: now}
		return
	}
	a.failedCount++
	if a.failedCount >= MaxFailedAuthAttempts {
		a.lockedUntil = now.Add(AuthLockoutDuration)
	}
}

func (at *authAttemptTracker) recordSuccess(ip string) {
	at.mu.Lock()
	defer at.mu.Unlock()
	delete(at.attempts, ip)
}

// StartCleanup periodically drops records that are neither locked nor inside the attempt window
func (at *authAttemptTracker) StartCleanup() {
	interval := at.cleanupInterval
	if interval == 0 {
		interval = AuthAttemptWindow
	}
	at.start(interval, at.cleanup)
}

// StopCleanup stops the cleanup goroutine
func (at *authAttemptTracker) StopCleanup() {
	at.stop()
}

func (at *authAttemptTracker) cleanup() {
	at.mu.Lock()
	defer at.mu.Unlock()

	now := time.Now()
	for ip, a := range at.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > AuthAttemptWindow {
			delete(at.attempts, ip)
		}
	}
}

// --- Audit Trail ---

// AuditLog records a security-relevant event
func AuditLog(eventType, clientIP, details string) {
	logger.Info("AUDIT",
		zap.String("event", eventType),
		zap.String("client_ip", clientIP),
		zap.String("details", details),
		zap.Time("timestamp", time.Now()),
	)
}

// AuditLogWithFields records a security-relevant event with extra fields
func AuditLogWithFields(eventType, clientIP string, fields map[string]interface{}) {
	zapFields := make([]zap.Field, 0, len(fields)+3)
	zapFields = append(zapFields,
		zap.String("event", eventType),
		zap.String("client_ip", clientIP),
		zap.Time("timestamp", time.Now()),
	)
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	logger.Info("AUDIT", zapFields...)
}

// --- Rate Limiting ---

// rateLimiter is a fixed-window token bucket per client IP
type rateLimiter struct {
	mu       sync.Mutex
	requests map[string]*tokenBucket
	rate     int           // Requests per window
	window   time.Duration // Bucket refill period
	sweeper
}

// tokenBucket is the remaining budget of one IP in the current window
type tokenBucket struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string]*tokenBucket),
		rate:     rate,
		window:   window,
	}
}

// Allow spends one token of ip. New IPs are refused once MaxRateLimiterEntries are tracked.
func (rl *rateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.requests[ip]
	switch {
	case !ok:
		if len(rl.requests) >= MaxRateLimiterEntries {
			logger.Warn("Rate limiter at max capacity, rejecting new IP",
				zap.String("ip", ip),
				zap.Int("current_entries", len(rl.requests)))
			return false
		}
		rl.requests[ip] = &tokenBucket{tokens: rl.rate - 1, lastReset: now}
		return true
	case now.Sub(b.lastReset) >= rl.window:
		b.tokens, b.lastReset = rl.rate-1, now
		return true
	case b.tokens > 0:
		b.tokens--
		return true
	default:
		return false
	}
}

// StartCleanup drops idle buckets every two windows
func (rl *rateLimiter) StartCleanup() {
	rl.start(rl.window*2, rl.cleanup)
}

// StopCleanup stops the cleanup goroutine
func (rl *rateLimiter) StopCleanup() {
	rl.stop()
}

// cleanup removes buckets untouched for two windows; a bucket used inside the window always survives
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, b := range rl.requests {
		if now.Sub(b.lastReset) >= rl.window*2 {
			delete(rl.requests, ip)
		}
	}
}

// --- Middleware ---

// apiKeyAuthMiddleware checks the X-API-Key header in constant time and
// locks out an IP after MaxFailedAuthAttempts failures
func apiKeyAuthMiddleware(authKey string) func(next http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, r *http.Request, clientIP, reason, msg string) {
		authTracker.recordFailure(clientIP)
		AuditLog(AuditEventAuthFailure, clientIP, reason)
		logger.Warn("Authentication failed",
			zap.String("reason", reason),
			zap.String("ip", clientIP),
			zap.String("method", r.Method))
		sendError(w, http.StatusUnauthorized, StatusUnauthorized, msg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r)

			if remaining := authTracker.getRemainingLockout(clientIP); remaining > 0 {
				AuditLog(AuditEventAuthBlocked, clientIP, "IP temporarily blocked due to too many failed attempts")
				w.Header().Set("Retry-After", strconv.Itoa(int(remaining.Seconds())))
				sendError(w, http.StatusTooManyRequests, StatusTooMany, ErrMsgAuthLocked)
				return
			}

			apiKey := r.Header.Get(HeaderAPIKey)
			switch {
			case apiKey == "":
				reject(w, r, clientIP, "Missing API key", ErrMsgMissingAPIKey)
				return
			case subtle.ConstantTimeCompare([]byte(apiKey), []byte(authKey)) != 1:
				reject(w, r, clientIP, "Invalid API key", ErrMsgInvalidAPIKey)
				return
			}

			authTracker.recordSuccess(clientIP)
			AuditLog(AuditEventAuthSuccess, clientIP, "Authentication successful")
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware answers 429 once the client IP has spent its window budget
func rateLimitMiddleware(rl *rateLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(GetClientIP(r)) {
				sendError(w, http.StatusTooManyRequests, StatusTooMany, ErrMsgRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware allows the configured origins ("*" for any) to call the API.
// maxAge is how long browsers may cache a preflight answer, in seconds.
func corsMiddleware(allowedOrigins []string, maxAge int) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", HeaderAPIKey},
		MaxAge:         maxAge,
	})
}

// splitOrigins parses the comma-separated origins setting
func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{DefaultCORSAllowedOrigins}
	}
	return origins
}

// securityHeaders are set on every response
var securityHeaders = map[string]string{
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Referrer-Policy":           "no-referrer",
	"Permissions-Policy":        "geolocation=(), microphone=(), camera=()",
}

// Swagger UI needs inline assets; everything else gets the strict policy and no caching
const (
	swaggerCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
	apiCSP     = "default-src 'none'; frame-ancestors 'none'"
)

// securityHeadersMiddleware adds the browser hardening headers
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range securityHeaders {
			h.Set(k, v)
		}
		if strings.HasPrefix(r.URL.Path, "/swagger") {
			h.Set("Content-Security-Policy", swaggerCSP)
		} else {
			h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			h.Set("Content-Security-Policy", apiCSP)
		}
		next.ServeHTTP(w, r)
	})
}
