package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/service/inventory"
	"github.com/heartmarshall/barcount-backend/internal/service/reconcile"
	"github.com/heartmarshall/barcount-backend/pkg/ctxutil"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type sessionServiceMock struct {
	StartFunc         func(ctx context.Context, input inventory.StartInput) (*domain.InventorySession, error)
	GetFunc           func(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error)
	ListFunc          func(ctx context.Context, tenantID uuid.UUID, input inventory.ListInput) ([]*domain.InventorySession, int, error)
	UpdateDetailsFunc func(ctx context.Context, tenantID, sessionID uuid.UUID, input inventory.UpdateDetailsInput) (*domain.InventorySession, error)
	TransitionFunc    func(ctx context.Context, action domain.SessionAction, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error)
	DeleteFunc        func(ctx context.Context, tenantID, sessionID uuid.UUID) error
	MergeItemFunc     func(ctx context.Context, tenantID, sessionID uuid.UUID, input inventory.ItemInput) (*domain.InventorySession, error)
}

func (m *sessionServiceMock) Start(ctx context.Context, input inventory.StartInput) (*domain.InventorySession, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, input)
	}
	return nil, domain.ErrNotFound
}

func (m *sessionServiceMock) Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tenantID, sessionID)
	}
	return nil, domain.ErrNotFound
}

func (m *sessionServiceMock) List(ctx context.Context, tenantID uuid.UUID, input inventory.ListInput) ([]*domain.InventorySession, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tenantID, input)
	}
	return nil, 0, nil
}

func (m *sessionServiceMock) UpdateDetails(ctx context.Context, tenantID, sessionID uuid.UUID, input inventory.UpdateDetailsInput) (*domain.InventorySession, error) {
	if m.UpdateDetailsFunc != nil {
		return m.UpdateDetailsFunc(ctx, tenantID, sessionID, input)
	}
	return nil, domain.ErrNotFound
}

func (m *sessionServiceMock) transition(ctx context.Context, action domain.SessionAction, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	if m.TransitionFunc != nil {
		return m.TransitionFunc(ctx, action, tenantID, sessionID)
	}
	return nil, domain.ErrNotFound
}

func (m *sessionServiceMock) Pause(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	return m.transition(ctx, domain.SessionActionPause, tenantID, sessionID)
}

func (m *sessionServiceMock) Resume(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	return m.transition(ctx, domain.SessionActionResume, tenantID, sessionID)
}

func (m *sessionServiceMock) Finalize(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	return m.transition(ctx, domain.SessionActionFinalize, tenantID, sessionID)
}

func (m *sessionServiceMock) Delete(ctx context.Context, tenantID, sessionID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tenantID, sessionID)
	}
	return nil
}

func (m *sessionServiceMock) MergeItem(ctx context.Context, tenantID, sessionID uuid.UUID, input inventory.ItemInput) (*domain.InventorySession, error) {
	if m.MergeItemFunc != nil {
		return m.MergeItemFunc(ctx, tenantID, sessionID, input)
	}
	return nil, domain.ErrNotFound
}

type transcriptParserMock struct {
	ParseTranscriptFunc func(ctx context.Context, transcript string, tenantID uuid.UUID) (domain.ParseOutcome, error)
}

func (m *transcriptParserMock) ParseTranscript(ctx context.Context, transcript string, tenantID uuid.UUID) (domain.ParseOutcome, error) {
	if m.ParseTranscriptFunc != nil {
		return m.ParseTranscriptFunc(ctx, transcript, tenantID)
	}
	return domain.ParseNoQuantity{Message: domain.MessageNoQuantity}, nil
}

type voiceAdderMock struct {
	AddParsedItemToSessionFunc func(ctx context.Context, sessionID, tenantID uuid.UUID, transcript string) (*inventory.VoiceAddResult, error)
}

func (m *voiceAdderMock) AddParsedItemToSession(ctx context.Context, sessionID, tenantID uuid.UUID, transcript string) (*inventory.VoiceAddResult, error) {
	if m.AddParsedItemToSessionFunc != nil {
		return m.AddParsedItemToSessionFunc(ctx, sessionID, tenantID, transcript)
	}
	return nil, domain.ErrNotFound
}

type reconcileServiceMock struct {
	ListUnresolvedFunc     func(ctx context.Context, input reconcile.ListInput) ([]domain.ProvisionalEntry, int, error)
	ResolveProvisionalFunc func(ctx context.Context, provisionalID, realID uuid.UUID) (reconcile.Result, error)
}

func (m *reconcileServiceMock) ListUnresolved(ctx context.Context, input reconcile.ListInput) ([]domain.ProvisionalEntry, int, error) {
	if m.ListUnresolvedFunc != nil {
		return m.ListUnresolvedFunc(ctx, input)
	}
	return nil, 0, nil
}

func (m *reconcileServiceMock) ResolveProvisional(ctx context.Context, provisionalID, realID uuid.UUID) (reconcile.Result, error) {
	if m.ResolveProvisionalFunc != nil {
		return m.ResolveProvisionalFunc(ctx, provisionalID, realID)
	}
	return reconcile.Result{}, nil
}

// ===========================================================================
// Helpers
// ===========================================================================

type testDeps struct {
	sessions  *sessionServiceMock
	parser    *transcriptParserMock
	adder     *voiceAdderMock
	reconcile *reconcileServiceMock
}

func newTestRouter() (http.Handler, *testDeps) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := &testDeps{
		sessions:  &sessionServiceMock{},
		parser:    &transcriptParserMock{},
		adder:     &voiceAdderMock{},
		reconcile: &reconcileServiceMock{},
	}
	mux := NewRouter(Routes{
		Sessions: NewSessionHandler(deps.sessions, logger),
		Voice:    NewVoiceHandler(deps.parser, deps.adder, logger),
		Admin:    NewAdminHandler(deps.reconcile, logger),
		Health:   NewHealthHandler("test", nil),
	})
	return mux, deps
}

// request builds a request authenticated as tenant with role. A nil tenant
// leaves it anonymous.
func request(method, target, body string, tenant uuid.UUID, role domain.UserRole) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if tenant != uuid.Nil {
		ctx := ctxutil.WithUserID(req.Context(), tenant)
		ctx = ctxutil.WithRole(ctx, role)
		req = req.WithContext(ctx)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func ptr[T any](v T) *T { return &v }
