package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"perfcycle/internal/transport/http/api"
	"perfcycle/internal/transport/http/shared"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*keyedLimiter)

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(l *keyedLimiter) {
		if fn != nil {
			l.keyFn = fn
		}
	}
}

// RateLimit allows limit requests per window for each caller, keyed by user
// id once authenticated and by client IP before that. Tokens refill evenly
// across the window.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	l := newKeyedLimiter(limit, window, actorOrIPKey)
	for _, opt := range opts {
		opt(l)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.enforce(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter budgets on top of RateLimit: login
// attempts get a quarter of the base limit per IP and per submitted login,
// workflow state changes get half of it per actor.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	authByIP := newKeyedLimiter(max(baseLimit/4, 1), window, clientIPKey)
	authByLogin := newKeyedLimiter(max(baseLimit/4, 1), window, AuthLoginOrIPKey("login"))
	byActor := newKeyedLimiter(max(baseLimit/2, 1), window, actorOrIPKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case scopeAuth:
				if !authByIP.enforce(w, r) || !authByLogin.enforce(w, r) {
					return
				}
			case scopeActor:
				if !byActor.enforce(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthLoginOrIPKey keys login attempts by the submitted username or email so
// a single account cannot be brute forced from many addresses.
func AuthLoginOrIPKey(field string) RateLimitKeyFunc {
	if field = strings.TrimSpace(field); field == "" {
		field = "login"
	}
	return func(r *http.Request) string {
		login := peekJSONString(r, field)
		if login == "" {
			return clientIPKey(r)
		}
		return "login:" + strings.ToLower(login)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

type keyedLimiter struct {
	mu      sync.Mutex
	limit   int
	refill  rate.Limit
	window  time.Duration
	keyFn   RateLimitKeyFunc
	buckets map[string]*bucket
	sweptAt time.Time
}

func newKeyedLimiter(limit int, window time.Duration, keyFn RateLimitKeyFunc) *keyedLimiter {
	l := &keyedLimiter{limit: limit, window: window, keyFn: keyFn, buckets: map[string]*bucket{}}
	if l.keyFn == nil {
		l.keyFn = actorOrIPKey
	}
	if limit > 0 && window > 0 {
		l.refill = rate.Every(window / time.Duration(limit))
	}
	return l
}

type decision struct {
	allowed   bool
	remaining int
	retry     time.Duration
	reset     time.Duration
}

func (l *keyedLimiter) take(key string, now time.Time) decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.refill, l.limit)}
		l.buckets[key] = b
	}
	b.seen = now

	d := decision{allowed: b.lim.AllowN(now, 1)}
	tokens := b.lim.TokensAt(now)
	d.remaining = max(int(tokens), 0)
	d.reset = l.until(float64(l.limit) - tokens)
	if !d.allowed {
		d.retry = l.until(1 - tokens)
	}
	return d
}

// until converts a token deficit into refill time.
func (l *keyedLimiter) until(deficit float64) time.Duration {
	if deficit <= 0 || l.refill <= 0 {
		return 0
	}
	return time.Duration(deficit / float64(l.refill) * float64(time.Second))
}

// sweep drops buckets idle for a whole window; they would be full again and
// are indistinguishable from a fresh one.
func (l *keyedLimiter) sweep(now time.Time) {
	if now.Sub(l.sweptAt) < l.window {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.seen) >= l.window {
			delete(l.buckets, key)
		}
	}
	l.sweptAt = now
}

func (l *keyedLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 || l.window <= 0 {
		return true
	}
	key := l.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	d := l.take(key, time.Now())

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(ceilSeconds(d.reset)))
	if d.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(ceilSeconds(d.retry), 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit, "window", l.window.String())
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// peekJSONString reads one string field from a JSON body and restores the
// body for the handler.
func peekJSONString(r *http.Request, field string) string {
	if r == nil || r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(payload[field], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

type rateScope int

const (
	scopeNone rateScope = iota
	scopeAuth
	scopeActor
)

// sensitiveRateScope classifies mutations: credential checks, account
// administration, and the review workflow transitions.
func sensitiveRateScope(r *http.Request) rateScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return scopeNone
	}
	path := strings.TrimPrefix(strings.TrimSpace(r.URL.Path), "/api/v1")
	switch {
	case path == "/auth/login":
		return scopeAuth
	case path == "/reviews/reminders/run",
		path == "/users", strings.HasPrefix(path, "/users/"),
		path == "/feedback", strings.HasPrefix(path, "/feedback/"),
		strings.HasSuffix(path, "/submit"),
		strings.HasSuffix(path, "/reopen"):
		return scopeActor
	}
	return scopeNone
}
