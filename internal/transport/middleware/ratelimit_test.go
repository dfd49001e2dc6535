package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/heartmarshall/barcount-backend/pkg/ctxutil"
)

func limitedHandler(rl *RateLimiter, perMinute int) http.Handler {
	return rl.Limit(perMinute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func tenantRequest(tenantID uuid.UUID, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/voice-parse", nil)
	req.RemoteAddr = remote
	if tenantID != uuid.Nil {
		req = req.WithContext(ctxutil.WithUserID(req.Context(), tenantID))
	}
	return req
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	h := limitedHandler(rl, 3)
	tenant := uuid.New()

	for i := range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, tenantRequest(tenant, "10.0.0.1:1000"))
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, tenantRequest(tenant, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "21", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":{"code":"RATE_LIMITED","message":"rate limit exceeded"}}`, rec.Body.String())
}

func TestRateLimiter_TenantsIndependentBehindSameIP(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	h := limitedHandler(rl, 1)

	first, second := uuid.New(), uuid.New()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, tenantRequest(first, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, tenantRequest(second, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, tenantRequest(first, "10.0.0.2:2000"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_AnonymousKeyedByHost(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	h := limitedHandler(rl, 1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, tenantRequest(uuid.Nil, "10.0.0.9:1111"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Same host, different source port.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, tenantRequest(uuid.Nil, "10.0.0.9:2222"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_ZeroDisables(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	h := limitedHandler(rl, 0)

	for range 50 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, tenantRequest(uuid.Nil, "10.0.0.1:1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	// 120 per minute refills one token every 500ms.
	h := limitedHandler(rl, 120)
	tenant := uuid.New()

	for range 120 {
		h.ServeHTTP(httptest.NewRecorder(), tenantRequest(tenant, "10.0.0.1:1"))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, tenantRequest(tenant, "10.0.0.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	time.Sleep(600 * time.Millisecond)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, tenantRequest(tenant, "10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
