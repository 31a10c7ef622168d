package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfcycle/internal/domain/auth"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

type hit struct {
	method, path, addr, body string
	user                     string
}

func (p hit) serve(h http.Handler) *httptest.ResponseRecorder {
	var req *http.Request
	if p.body != "" {
		req = httptest.NewRequest(p.method, p.path, strings.NewReader(p.body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(p.method, p.path, nil)
	}
	req.RemoteAddr = p.addr
	if p.user != "" {
		req = req.WithContext(WithUser(context.Background(), auth.UserContext{UserID: p.user, RoleName: auth.RoleManager}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitKeysByUserBeforeIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent)

	first := hit{method: http.MethodPost, path: "/api/v1/goal-reviews/r1/submit", addr: "198.51.100.11:2222", user: "mgr-1"}
	require.Equal(t, http.StatusNoContent, first.serve(limited).Code)

	moved := first
	moved.addr = "198.51.100.12:3333"
	assert.Equal(t, http.StatusTooManyRequests, moved.serve(limited).Code, "a new address does not reset the user's budget")

	other := moved
	other.user = "mgr-2"
	assert.Equal(t, http.StatusNoContent, other.serve(limited).Code)
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent)

	alice := hit{method: http.MethodPost, path: "/api/v1/auth/login", addr: "203.0.113.10:4444", body: `{"login":"alice"}`}
	bob := hit{method: http.MethodPost, path: "/api/v1/auth/login", addr: "203.0.113.10:5555", body: `{"login":"bob"}`}
	require.Equal(t, http.StatusNoContent, alice.serve(limited).Code)
	assert.Equal(t, http.StatusTooManyRequests, bob.serve(limited).Code)
}

func TestRateLimitRefills(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(noContent)
	p := hit{method: http.MethodGet, path: "/api/v1/goals", addr: "192.0.2.20:1111"}

	require.Equal(t, http.StatusNoContent, p.serve(limited).Code)
	require.Equal(t, http.StatusTooManyRequests, p.serve(limited).Code)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, http.StatusNoContent, p.serve(limited).Code)
}

func TestRateLimitHeaders(t *testing.T) {
	limited := RateLimit(2, time.Minute)(noContent)
	p := hit{method: http.MethodGet, path: "/api/v1/notifications", addr: "192.0.2.30:1234"}

	rec := p.serve(limited)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, rec.Header().Get("Retry-After"))

	p.serve(limited)
	rec = p.serve(limited)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	assert.NotEqual(t, "0", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"rate_limited"`)
}

func TestRateLimitDisabled(t *testing.T) {
	limited := RateLimit(0, time.Minute)(noContent)
	p := hit{method: http.MethodGet, path: "/api/v1/goals", addr: "192.0.2.40:1"}
	for range 5 {
		require.Equal(t, http.StatusNoContent, p.serve(limited).Code)
	}
}

func TestSensitiveMutationRateLimit(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent)

	read := hit{method: http.MethodGet, path: "/api/v1/reports/summary", addr: "198.51.100.40:8888"}
	for range 6 {
		require.Equal(t, http.StatusNoContent, read.serve(limited).Code, "reads bypass the sensitive budget")
	}

	submit := hit{method: http.MethodPost, path: "/api/v1/goal-reviews/r1/submit", addr: "198.51.100.41:9999", user: "mgr-1"}
	assert.Equal(t, http.StatusNoContent, submit.serve(limited).Code)
	assert.Equal(t, http.StatusNoContent, submit.serve(limited).Code)
	assert.Equal(t, http.StatusTooManyRequests, submit.serve(limited).Code)

	feedback := hit{method: http.MethodPost, path: "/api/v1/feedback", addr: "198.51.100.41:9999", user: "mgr-1"}
	assert.Equal(t, http.StatusTooManyRequests, feedback.serve(limited).Code, "workflow mutations share one actor budget")

	login := hit{method: http.MethodPost, path: "/api/v1/auth/login", addr: "198.51.100.42:1", body: `{"login":"Alice"}`}
	assert.Equal(t, http.StatusNoContent, login.serve(limited).Code)
	elsewhere := login
	elsewhere.addr = "198.51.100.43:1"
	elsewhere.body = `{"login":"alice"}`
	assert.Equal(t, http.StatusTooManyRequests, elsewhere.serve(limited).Code, "login attempts are keyed by account")
}

func TestSensitiveRateScope(t *testing.T) {
	cases := []struct {
		method, path string
		want         rateScope
	}{
		{http.MethodPost, "/api/v1/auth/login", scopeAuth},
		{http.MethodPost, "/api/v1/task-reviews/t1/submit", scopeActor},
		{http.MethodPost, "/api/v1/goal-reviews/g1/reopen", scopeActor},
		{http.MethodPost, "/api/v1/reviews/reminders/run", scopeActor},
		{http.MethodDelete, "/api/v1/users/u1", scopeActor},
		{http.MethodPatch, "/api/v1/feedback/f1", scopeActor},
		{http.MethodPost, "/api/v1/goals", scopeNone},
		{http.MethodGet, "/api/v1/users", scopeNone},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		assert.Equal(t, tc.want, sensitiveRateScope(req), "%s %s", tc.method, tc.path)
	}
}

func TestPeekJSONStringRestoresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"login":" Bob ","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	assert.Equal(t, "login:bob", AuthLoginOrIPKey("login")(req))
	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"login":" Bob ","password":"x"}`, string(rest))
}

func TestKeyedLimiterSweepsIdleBuckets(t *testing.T) {
	l := newKeyedLimiter(1, time.Minute, nil)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l.take("ip:a", start)
	l.take("ip:b", start.Add(30*time.Second))
	require.Len(t, l.buckets, 2)

	l.take("ip:c", start.Add(time.Minute+time.Second))
	assert.NotContains(t, l.buckets, "ip:a")
	assert.Contains(t, l.buckets, "ip:b")
	assert.Contains(t, l.buckets, "ip:c")
}
