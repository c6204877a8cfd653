package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"go-dataset-registry/internal/model"
)

const (
	defaultGeneralRPM = 100
	defaultAuthRPM    = 10

	// authPathPrefix marks the credential endpoints that get the tighter budget.
	authPathPrefix = "/api/v1/auth"

	// Idle limiters are dropped once the table grows past sweepThreshold.
	sweepThreshold = 1000
	idleTTL        = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware enforces per-client-IP request budgets. Auth routes get
// a separate, tighter budget so credential stuffing cannot ride on the
// general allowance. Each budget admits a burst of one minute's allowance up
// front, then refills steadily.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if generalRPM <= 0 {
		generalRPM = defaultGeneralRPM
	}
	if authRPM <= 0 {
		authRPM = defaultAuthRPM
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		entries:    map[string]*limiterEntry{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Liveness probes are exempt; a throttled probe reads as an outage.
		if strings.EqualFold(strings.TrimRight(r.URL.Path, "/"), "/health") {
			next.ServeHTTP(w, r)
			return
		}

		rpm, class := m.generalRPM, "api"
		if strings.HasPrefix(strings.ToLower(r.URL.Path), authPathPrefix) {
			rpm, class = m.authRPM, "auth"
		}

		if !m.allow(clientIP(r)+"|"+class, rpm) {
			writeThrottled(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow charges one request against the keyed budget, creating the limiter
// on first sight of the key.
func (m *RateLimitMiddleware) allow(key string, rpm int) bool {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
		}
		m.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	m.sweepLocked()
	m.mu.Unlock()

	return entry.limiter.Allow()
}

func (m *RateLimitMiddleware) sweepLocked() {
	if len(m.entries) < sweepThreshold {
		return
	}

	cutoff := time.Now().Add(-idleTTL)
	for key, entry := range m.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(m.entries, key)
		}
	}
}

func writeThrottled(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "60")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "RATE_LIMITED",
			Message: "Too many requests",
		},
	})
}

// clientIP prefers proxy-set headers, then falls back to the socket peer.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	if remote == "" {
		return "unknown"
	}
	return remote
}
