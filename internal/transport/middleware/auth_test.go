package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/barcount-backend/internal/auth"
	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Manual mock (moq-style with func fields)
// ---------------------------------------------------------------------------

type tokenValidatorMock struct {
	ValidateAccessTokenFunc func(token string) (auth.Claims, error)
	calls                   []string
}

func (m *tokenValidatorMock) ValidateAccessToken(token string) (auth.Claims, error) {
	m.calls = append(m.calls, token)
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	return auth.Claims{}, errors.New("no validator configured")
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func TestAuth_ValidTokenSetsIdentity(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	validator := &tokenValidatorMock{
		ValidateAccessTokenFunc: func(token string) (auth.Claims, error) {
			require.Equal(t, "good", token)
			return auth.Claims{TenantID: tenantID, Role: domain.UserRoleAdmin}, nil
		},
	}

	var gotTenant uuid.UUID
	var gotRole domain.UserRole
	h := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant, _ = ctxutil.UserIDFromCtx(r.Context())
		gotRole, _ = ctxutil.RoleFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tenantID, gotTenant)
	assert.Equal(t, domain.UserRoleAdmin, gotRole)
}

func TestAuth_InvalidTokenRejected(t *testing.T) {
	t.Parallel()

	validator := &tokenValidatorMock{
		ValidateAccessTokenFunc: func(string) (auth.Claims, error) {
			return auth.Claims{}, errors.New("token expired")
		},
	}
	called := false
	h := Auth(validator)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":{"code":"UNAUTHORIZED","message":"invalid or expired token"}}`, rec.Body.String())
}

func TestAuth_AnonymousPassesThrough(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer ", "Bearer"} {
		validator := &tokenValidatorMock{}
		var hasUser bool
		h := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasUser = ctxutil.UserIDFromCtx(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, header)
		assert.False(t, hasUser, header)
		assert.Empty(t, validator.calls, header)
	}
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def", "abc.def"},
		{"bearer abc.def", "abc.def"},
		{"BEARER abc.def", "abc.def"},
		{"Bearer   padded  ", "padded"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearertoken", ""},
		{"Bearer ", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, extractBearerToken(req), "header %q", tt.header)
	}
}

// ---------------------------------------------------------------------------
// RequireAuth / RequireAdmin
// ---------------------------------------------------------------------------

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	called := false
	h := RequireAuth(okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ctxutil.WithUserID(req.Context(), uuid.New()))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authed     bool
		role       domain.UserRole
		wantStatus int
	}{
		{"anonymous", false, "", http.StatusUnauthorized},
		{"user role", true, domain.UserRoleUser, http.StatusForbidden},
		{"no role", true, "", http.StatusForbidden},
		{"admin", true, domain.UserRoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			h := RequireAdmin(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/v1/admin/provisional", nil)
			ctx := req.Context()
			if tt.authed {
				ctx = ctxutil.WithUserID(ctx, uuid.New())
			}
			if tt.role != "" {
				ctx = ctxutil.WithRole(ctx, tt.role)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}
