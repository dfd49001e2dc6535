package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/service/reconcile"
)

type reconcileService interface {
	ListUnresolved(ctx context.Context, input reconcile.ListInput) ([]domain.ProvisionalEntry, int, error)
	ResolveProvisional(ctx context.Context, provisionalID, realID uuid.UUID) (reconcile.Result, error)
}

// AdminHandler serves the reviewer endpoints. Routes are wrapped in
// RequireAdmin.
type AdminHandler struct {
	reconcile reconcileService
	log       *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc reconcileService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{reconcile: svc, log: logger.With("handler", "admin")}
}

type resolveRequest struct {
	ProductID uuid.UUID `json:"productId"`
}

// ListProvisional handles GET /v1/admin/provisional?tenant_id=&limit=&offset=.
// Without tenant_id entries of every tenant are listed.
func (h *AdminHandler) ListProvisional(w http.ResponseWriter, r *http.Request) {
	var input reconcile.ListInput
	if raw := queryString(r, "tenant_id"); raw != nil {
		id, err := uuid.Parse(*raw)
		if err != nil {
			handleError(h.log, w, r, domain.NewValidationError("tenant_id", "must be a UUID"))
			return
		}
		input.TenantID = &id
	}
	var err error
	if input.Limit, err = queryInt(r, "limit"); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if input.Offset, err = queryInt(r, "offset"); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	entries, total, err := h.reconcile.ListUnresolved(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	resp := listResponse[provisionalResponse]{Items: make([]provisionalResponse, len(entries)), Total: total}
	for i, e := range entries {
		resp.Items[i] = toProvisionalResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResolveProvisional handles POST /v1/admin/provisional/{id}/resolve.
func (h *AdminHandler) ResolveProvisional(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.reconcile.ResolveProvisional(r.Context(), id, req.ProductID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
