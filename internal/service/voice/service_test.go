package voice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/matching"
	"github.com/heartmarshall/barcount-backend/internal/service/catalog"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockResolver struct {
	ResolveFunc func(ctx context.Context, input catalog.ResolveInput) (catalog.Resolution, error)
	calls       []catalog.ResolveInput
}

func (m *mockResolver) Resolve(ctx context.Context, input catalog.ResolveInput) (catalog.Resolution, error) {
	m.calls = append(m.calls, input)
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, input)
	}
	return catalog.Resolution{Kind: domain.ResolutionAmbiguous, Suggestions: []string{}}, nil
}

func newTestService() (*Service, *mockResolver) {
	resolver := &mockResolver{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(logger, resolver, nil), resolver
}

func ptr[T any](v T) *T { return &v }

// ===========================================================================
// ParseTranscript
// ===========================================================================

func TestParseTranscript_Matched(t *testing.T) {
	t.Parallel()
	svc, resolver := newTestService()
	tenantID := uuid.New()
	product := &domain.TenantProduct{ID: uuid.New(), TenantID: tenantID, Brand: "Grey Goose", Category: "Vodka"}

	resolver.ResolveFunc = func(_ context.Context, in catalog.ResolveInput) (catalog.Resolution, error) {
		assert.Equal(t, "grey goose", in.SpokenName)
		assert.Equal(t, tenantID, in.TenantID)
		assert.Nil(t, in.SessionID)
		return catalog.Resolution{Kind: domain.ResolutionMatched, Product: product}, nil
	}

	out, err := svc.ParseTranscript(context.Background(), "Grey Goose point eight", tenantID)
	require.NoError(t, err)

	got, ok := out.(domain.ParseMatched)
	require.True(t, ok, "expected ParseMatched, got %T", out)
	assert.Equal(t, product.ID, got.ProductID)
	assert.Equal(t, domain.ResolutionMatched, got.Resolution)
	assert.Equal(t, domain.Quantities{Partial: 0.8}, got.Quantities)
	assert.Equal(t, "Grey Goose", got.Brand)
	assert.Equal(t, "Vodka", got.Category)
	assert.Equal(t, domain.MessagePartialOnly, got.Message)
}

func TestParseTranscript_Cloned(t *testing.T) {
	t.Parallel()
	svc, resolver := newTestService()
	product := &domain.TenantProduct{ID: uuid.New(), Brand: "Absolut", Variant: ptr("Citron"), Category: "Vodka"}

	resolver.ResolveFunc = func(_ context.Context, _ catalog.ResolveInput) (catalog.Resolution, error) {
		return catalog.Resolution{Kind: domain.ResolutionCloned, Product: product}, nil
	}

	out, err := svc.ParseTranscript(context.Background(), "two bottles absolut citron point five", uuid.New())
	require.NoError(t, err)

	got := out.(domain.ParseMatched)
	assert.Equal(t, domain.ResolutionCloned, got.Resolution)
	assert.Equal(t, domain.Quantities{Full: 2, Partial: 0.5}, got.Quantities)
	assert.Equal(t, ptr("Citron"), got.Variant)
	assert.Equal(t, domain.MessageParsed, got.Message)
}

func TestParseTranscript_UnknownProductIsProvisional(t *testing.T) {
	t.Parallel()
	svc, resolver := newTestService()
	entry := &domain.ProvisionalEntry{ID: uuid.New(), SpokenName: "xyz123"}

	resolver.ResolveFunc = func(_ context.Context, in catalog.ResolveInput) (catalog.Resolution, error) {
		assert.Equal(t, "xyz123", in.SpokenName)
		return catalog.Resolution{Kind: domain.ResolutionProvisional, Provisional: entry, Suggestions: []string{}}, nil
	}

	out, err := svc.ParseTranscript(context.Background(), "xyz123 five bottles", uuid.New())
	require.NoError(t, err)

	got, ok := out.(domain.ParseProvisional)
	require.True(t, ok)
	require.NotNil(t, got.ProvisionalID)
	assert.Equal(t, entry.ID, *got.ProvisionalID)
	assert.Equal(t, domain.Quantities{Full: 5}, got.Quantities)
	assert.Empty(t, got.Suggestions)
	assert.Equal(t, domain.MessageProvisionalOK, got.Message)

	view := domain.NewParseView(out)
	assert.True(t, view.IsTemp)
	assert.Equal(t, 5, view.QuantityFull)
	assert.Zero(t, view.QuantityPartial)
}

func TestParseTranscript_AmbiguousHasNoProductID(t *testing.T) {
	t.Parallel()
	svc, resolver := newTestService()

	resolver.ResolveFunc = func(_ context.Context, _ catalog.ResolveInput) (catalog.Resolution, error) {
		return catalog.Resolution{
			Kind:        domain.ResolutionAmbiguous,
			Candidates:  []matching.Candidate{{Score: 0.5}},
			Suggestions: []string{"Jameson", "Jameson Black Barrel"},
		}, nil
	}

	out, err := svc.ParseTranscript(context.Background(), "jamie point five", uuid.New())
	require.NoError(t, err)

	got := out.(domain.ParseProvisional)
	assert.Nil(t, got.ProvisionalID)
	assert.Equal(t, []string{"Jameson", "Jameson Black Barrel"}, got.Suggestions)
	assert.Equal(t, domain.MessageAmbiguous, got.Message)
	assert.Empty(t, domain.NewParseView(out).ProductID)
}

func TestParseTranscript_NoQuantitySkipsResolver(t *testing.T) {
	t.Parallel()
	svc, resolver := newTestService()

	out, err := svc.ParseTranscript(context.Background(), "Grey Goose", uuid.New())
	require.NoError(t, err)

	got, ok := out.(domain.ParseNoQuantity)
	require.True(t, ok)
	assert.Equal(t, "grey goose", got.ProductName)
	assert.Equal(t, domain.MessageNoQuantity, got.Message)
	assert.Empty(t, resolver.calls)
}

func TestParseTranscript_EmptyTranscript(t *testing.T) {
	t.Parallel()
	svc, resolver := newTestService()

	out, err := svc.ParseTranscript(context.Background(), "", uuid.New())
	require.NoError(t, err)
	assert.IsType(t, domain.ParseNoQuantity{}, out)
	assert.Empty(t, resolver.calls)
}

func TestParseTranscript_QuantityWithoutName(t *testing.T) {
	t.Parallel()
	svc, resolver := newTestService()

	out, err := svc.ParseTranscript(context.Background(), "two bottles", uuid.New())
	require.NoError(t, err)

	got := out.(domain.ParseProvisional)
	assert.Nil(t, got.ProvisionalID)
	assert.Equal(t, domain.Quantities{Full: 2}, got.Quantities)
	assert.Equal(t, domain.MessageNoProduct, got.Message)
	assert.Empty(t, resolver.calls)
}

func TestParse_PassesSessionOrigin(t *testing.T) {
	t.Parallel()
	svc, resolver := newTestService()
	sessionID := uuid.New()

	_, err := svc.Parse(context.Background(), ParseInput{
		Transcript: "house gin point five",
		TenantID:   uuid.New(),
		SessionID:  &sessionID,
	})
	require.NoError(t, err)
	require.Len(t, resolver.calls, 1)
	assert.Equal(t, &sessionID, resolver.calls[0].SessionID)
}

func TestParseTranscript_Validation(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()

	_, err := svc.ParseTranscript(context.Background(), "grey goose point five", uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseTranscript_ResolverError(t *testing.T) {
	t.Parallel()
	svc, resolver := newTestService()
	boom := errors.New("db down")

	resolver.ResolveFunc = func(_ context.Context, _ catalog.ResolveInput) (catalog.Resolution, error) {
		return catalog.Resolution{}, boom
	}

	_, err := svc.ParseTranscript(context.Background(), "grey goose point five", uuid.New())
	assert.ErrorIs(t, err, boom)
}
