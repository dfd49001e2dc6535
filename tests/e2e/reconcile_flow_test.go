//go:build e2e

package e2e_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// TestE2E_ResolveProvisional counts an unknown product, resolves it to a
// real one through the admin API and checks that the finalized session was
// rewritten with the quantities folded into the real line.
func TestE2E_ResolveProvisional(t *testing.T) {
	ts := setupTestServer(t)
	token, tenant := ts.token(t, domain.UserRoleUser)
	adminToken, _ := ts.token(t, domain.UserRoleAdmin)
	id := ts.startSession(t, token)

	// 1. Unknown product becomes a temp line.
	status, body := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/voice-add",
		map[string]any{"transcript": "xyz123 five bottles"}, token)
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	provisionalID := body["parse"].(map[string]any)["provisionalId"].(string)

	// 2. Known product on its own line.
	status, body = ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/voice-add",
		map[string]any{"transcript": "two bottles jameson"}, token)
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	productID := body["parse"].(map[string]any)["productId"].(string)
	require.Len(t, items(t, body["session"].(map[string]any)), 2)

	status, _ = ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/finalize", nil, token)
	require.Equal(t, http.StatusOK, status)

	// 3. The admin sees the unresolved entry.
	status, list := ts.do(t, http.MethodGet, "/v1/admin/provisional?tenant_id="+tenant.String(), nil, adminToken)
	require.Equal(t, http.StatusOK, status, "body: %v", list)
	assert.EqualValues(t, 1, list["total"])
	entries := list["items"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, provisionalID, entry["id"])
	assert.Equal(t, "xyz123", entry["spokenName"])

	// 4. Resolve.
	status, result := ts.do(t, http.MethodPost, "/v1/admin/provisional/"+provisionalID+"/resolve",
		map[string]any{"productId": productID}, adminToken)
	require.Equal(t, http.StatusOK, status, "body: %v", result)
	assert.EqualValues(t, 1, result["rewrittenCount"])

	status, sess := ts.do(t, http.MethodGet, "/v1/sessions/"+id, nil, token)
	require.Equal(t, http.StatusOK, status)
	lines := items(t, sess)
	require.Len(t, lines, 1)
	assert.Equal(t, productID, lines[0]["productId"])
	assert.Equal(t, false, lines[0]["isTemp"])
	assert.EqualValues(t, 7, lines[0]["quantity_full"])

	// 5. Resolving again to the same product is a no-op.
	status, result = ts.do(t, http.MethodPost, "/v1/admin/provisional/"+provisionalID+"/resolve",
		map[string]any{"productId": productID}, adminToken)
	require.Equal(t, http.StatusOK, status, "body: %v", result)
	assert.EqualValues(t, 0, result["rewrittenCount"])

	status, list = ts.do(t, http.MethodGet, "/v1/admin/provisional?tenant_id="+tenant.String(), nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, list["total"])
}
