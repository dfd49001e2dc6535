//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/refproduct"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/barcount-backend/internal/app"
	authpkg "github.com/heartmarshall/barcount-backend/internal/auth"
	"github.com/heartmarshall/barcount-backend/internal/config"
	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/transport/rest"
)

const (
	jwtSecret = "test-secret-at-least-32-chars-long!!"
	jwtIssuer = "test-issuer"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	jwt    *authpkg.JWTManager
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: jwtSecret, JWTIssuer: jwtIssuer, AccessTokenTTL: 15 * time.Minute},
		CORS: config.CORSConfig{
			AllowedOrigins:   "*",
			AllowedMethods:   "GET,POST,PATCH,DELETE,OPTIONS",
			AllowedHeaders:   "Authorization,Content-Type",
			AllowCredentials: true,
			MaxAge:           86400,
		},
		Matching: config.MatchingConfig{
			MinSimilarity:    0.8,
			MaxMatchDistance: 0.35,
			CacheTTL:         time.Minute,
			MaxSuggestions:   3,
		},
		Inventory: config.InventoryConfig{MergeMaxRetries: 3, MaxItems: 2000, DefaultPageSize: 20},
		Metrics:   config.MetricsConfig{Path: "/metrics"},
	}
}

// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper). The reference catalog is
// seeded before the handler is built so the matcher sees it.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	seedCatalog(t, pool)

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	cfg := testConfig()

	svc := app.NewServices(logger, pool, cfg, nil)
	handler := app.NewHandler(logger, cfg, svc, app.HandlerOptions{
		Checks: map[string]rest.Check{"database": pool.Ping},
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		jwt:    authpkg.NewJWTManager(jwtSecret, jwtIssuer, 15*time.Minute),
	}
}

func seedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	repo := refproduct.New(pool)
	original := "Original"
	for _, p := range []domain.RefProduct{
		{Brand: "Jameson", Category: "Whiskey"},
		{Brand: "Aperol", Category: "Liqueur"},
		{Brand: "Grey Goose", Variant: &original, Category: "Vodka"},
	} {
		_, err := repo.Create(context.Background(), p)
		if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("seed %s: %v", p.Brand, err)
		}
	}
}

// token returns an access token for a fresh tenant.
func (ts *testServer) token(t *testing.T, role domain.UserRole) (string, uuid.UUID) {
	t.Helper()
	tenant := uuid.New()
	tok, err := ts.jwt.GenerateAccessToken(tenant, role)
	require.NoError(t, err)
	return tok, tenant
}

// do sends a JSON request and returns the status and decoded body. A nil
// body is sent without payload; an empty response decodes to nil.
func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}
	var result map[string]any
	require.NoError(t, json.Unmarshal(raw, &result), "body: %s", raw)
	return resp.StatusCode, result
}

// errorCode extracts error.code from an error response.
func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error object, got %v", body)
	code, _ := errObj["code"].(string)
	return code
}

// items extracts the session items array.
func items(t *testing.T, session map[string]any) []map[string]any {
	t.Helper()
	raw, ok := session["items"].([]any)
	require.True(t, ok, "expected items array")
	out := make([]map[string]any, len(raw))
	for i, it := range raw {
		out[i] = it.(map[string]any)
	}
	return out
}

// startSession opens a session for the token's tenant and returns its id.
func (ts *testServer) startSession(t *testing.T, token string) string {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/v1/sessions", map[string]any{"label": "Main bar"}, token)
	require.Equal(t, http.StatusCreated, status, "body: %v", body)
	id, ok := body["id"].(string)
	require.True(t, ok)
	return id
}
