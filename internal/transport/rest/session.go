package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/service/inventory"
)

type sessionService interface {
	Start(ctx context.Context, input inventory.StartInput) (*domain.InventorySession, error)
	Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error)
	List(ctx context.Context, tenantID uuid.UUID, input inventory.ListInput) ([]*domain.InventorySession, int, error)
	UpdateDetails(ctx context.Context, tenantID, sessionID uuid.UUID, input inventory.UpdateDetailsInput) (*domain.InventorySession, error)
	Pause(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error)
	Resume(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error)
	Finalize(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error)
	Delete(ctx context.Context, tenantID, sessionID uuid.UUID) error
	MergeItem(ctx context.Context, tenantID, sessionID uuid.UUID, input inventory.ItemInput) (*domain.InventorySession, error)
}

// SessionHandler serves the inventory session endpoints.
type SessionHandler struct {
	svc sessionService
	log *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(svc sessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, log: logger.With("handler", "session")}
}

type startItemRequest struct {
	ProductID       *uuid.UUID `json:"productId"`
	Name            *string    `json:"name"`
	Category        *string    `json:"category"`
	QuantityFull    int        `json:"quantity_full"`
	QuantityPartial float64    `json:"quantity_partial"`
}

type startRequest struct {
	PeriodTag string             `json:"periodTag"`
	Label     *string            `json:"label"`
	Location  *string            `json:"location"`
	Notes     *string            `json:"notes"`
	Items     []startItemRequest `json:"items"`
}

type detailsRequest struct {
	Label    *string `json:"label"`
	Location *string `json:"location"`
	Notes    *string `json:"notes"`
}

type itemRequest struct {
	ProductID       uuid.UUID `json:"productId"`
	IsTemp          bool      `json:"isTemp"`
	QuantityFull    *int      `json:"quantity_full"`
	QuantityPartial *float64  `json:"quantity_partial"`
	Name            *string   `json:"name"`
	Category        *string   `json:"category"`
}

// Start handles POST /v1/sessions.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req startRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]inventory.StartItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = inventory.StartItem(it)
	}
	sess, err := h.svc.Start(r.Context(), inventory.StartInput{
		TenantID:  tenant,
		PeriodTag: req.PeriodTag,
		Label:     req.Label,
		Location:  req.Location,
		Notes:     req.Notes,
		Items:     items,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// List handles GET /v1/sessions?status=&period_tag=&limit=&offset=.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	input := inventory.ListInput{PeriodTag: queryString(r, "period_tag")}
	if s := queryString(r, "status"); s != nil {
		status := domain.SessionStatus(*s)
		input.Status = &status
	}
	if input.Limit, err = queryInt(r, "limit"); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if input.Offset, err = queryInt(r, "offset"); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	sessions, total, err := h.svc.List(r.Context(), tenant, input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	resp := listResponse[sessionResponse]{Items: make([]sessionResponse, len(sessions)), Total: total}
	for i, s := range sessions {
		resp.Items[i] = toSessionResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.svc.Get)
}

// UpdateDetails handles PATCH /v1/sessions/{id}.
func (h *SessionHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.withSession(w, r, func(ctx context.Context, tenant, id uuid.UUID) (*domain.InventorySession, error) {
		return h.svc.UpdateDetails(ctx, tenant, id, inventory.UpdateDetailsInput(req))
	})
}

// Pause handles POST /v1/sessions/{id}/pause.
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.svc.Pause)
}

// Resume handles POST /v1/sessions/{id}/resume.
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.svc.Resume)
}

// Finalize handles POST /v1/sessions/{id}/finalize.
func (h *SessionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.svc.Finalize)
}

// MergeItem handles POST /v1/sessions/{id}/items.
func (h *SessionHandler) MergeItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ref := domain.RealRef(req.ProductID)
	if req.IsTemp {
		ref = domain.ProvisionalRef(req.ProductID)
	}
	h.withSession(w, r, func(ctx context.Context, tenant, id uuid.UUID) (*domain.InventorySession, error) {
		return h.svc.MergeItem(ctx, tenant, id, inventory.ItemInput{
			Ref:             ref,
			QuantityFull:    req.QuantityFull,
			QuantityPartial: req.QuantityPartial,
			Name:            req.Name,
			Category:        req.Category,
		})
	})
}

// Delete handles DELETE /v1/sessions/{id}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), tenant, id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withSession resolves the tenant and the {id} path value, runs fn and
// writes the resulting session.
func (h *SessionHandler) withSession(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error),
) {
	tenant, err := tenantID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	sess, err := fn(r.Context(), tenant, id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}
