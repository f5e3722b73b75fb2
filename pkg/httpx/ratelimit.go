package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/casedesk/pkg/slogx"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Rate limit profiles per endpoint class. Each can be overridden with
// RATELIMIT_{NAME}_REQUESTS, RATELIMIT_{NAME}_WINDOW_SEC and
// RATELIMIT_{NAME}_BURST, e.g. RATELIMIT_LOGIN_BURST=50 for load tests.
var (
	// LoginLimit guards credential endpoints against brute force.
	LoginLimit = RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	// MutationLimit applies to authenticated writes.
	MutationLimit = RateLimitConfig{RequestsPerWindow: 60, Window: time.Minute, Burst: 20}

	// ReadLimit applies to authenticated reads.
	ReadLimit = RateLimitConfig{RequestsPerWindow: 300, Window: time.Minute, Burst: 60}

	// ProbeLimit applies to health and metrics endpoints that are polled.
	ProbeLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	LoginLimit = ParseRateLimitFromEnv("LOGIN", LoginLimit)
	MutationLimit = ParseRateLimitFromEnv("MUTATION", MutationLimit)
	ReadLimit = ParseRateLimitFromEnv("READ", ReadLimit)
	ProbeLimit = ParseRateLimitFromEnv("PROBE", ProbeLimit)
}

type rateLimitEnv struct {
	Requests  int `envconfig:"REQUESTS"`
	WindowSec int `envconfig:"WINDOW_SEC"`
	Burst     int `envconfig:"BURST"`
}

// ParseRateLimitFromEnv overlays RATELIMIT_{name}_* variables on def.
// Unset, unparseable and non-positive values leave the default in place.
func ParseRateLimitFromEnv(name string, def RateLimitConfig) RateLimitConfig {
	var env rateLimitEnv
	if err := envconfig.Process("RATELIMIT_"+name, &env); err != nil {
		return def
	}

	cfg := def
	if env.Requests > 0 {
		cfg.RequestsPerWindow = env.Requests
	}
	if env.WindowSec > 0 {
		cfg.Window = time.Duration(env.WindowSec) * time.Second
	}
	if env.Burst > 0 {
		cfg.Burst = env.Burst
	}
	return cfg
}

// KeyExtractor is a function that extracts a unique key from the request
// for rate limiting purposes. An empty key means "do not limit".
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// PrincipalKeyExtractor keys on the authenticated subject id, which
// AuthnMiddleware places in the context. Anonymous requests yield "".
func PrincipalKeyExtractor(r *http.Request) string {
	if userID, ok := r.Context().Value(CtxKeyUserID).(string); ok {
		return userID
	}
	return ""
}

// CompositeKeyExtractor combines multiple key extractors with a separator,
// skipping those that return "".
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// JSONFieldKeyExtractor keys on a top-level string field of a JSON body,
// such as the username on login. The body is restored for the handler.
func JSONFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil {
			return ""
		}

		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return ""
		}
		v, _ := fields[field].(string)
		return strings.ToLower(strings.TrimSpace(v))
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet hands out one token bucket per key and forgets keys that have
// been idle for longer than idleTTL.
type limiterSet struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	return &limiterSet{
		entries:   make(map[string]*limiterEntry),
		rate:      rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		idleTTL:   max(2*cfg.Window, 5*time.Minute),
		lastSweep: time.Now(),
	}
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > s.idleTTL {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > s.idleTTL {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimitMiddleware creates a rate limiting middleware with the given configuration.
// The keyExtractor determines how requests are grouped for rate limiting.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	limiters := newLimiterSet(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Debug("rate limit: no key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			limiter := limiters.get(key, now)

			if !limiter.AllowN(now, 1) {
				reservation := limiter.ReserveN(now, 1)
				retryAfter := max(int(reservation.DelayFrom(now).Seconds()), 1)
				reservation.CancelAt(now)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Window", config.Window.String())

				log.Warn("rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limited",
					"error_description": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits by client IP address only.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor)
}

// RateLimitByPrincipal limits by authenticated subject, falling back to the
// client IP for anonymous callers. It must run after AuthnMiddleware.
func RateLimitByPrincipal(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, func(r *http.Request) string {
		if id := PrincipalKeyExtractor(r); id != "" {
			return "sub:" + id
		}
		return "ip:" + IPKeyExtractor(r)
	})
}

// RateLimitByIPAndJSONField limits by client IP plus a JSON body field,
// e.g. IP + username on login.
func RateLimitByIPAndJSONField(config RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		IPKeyExtractor,
		JSONFieldKeyExtractor(field),
	))
}
