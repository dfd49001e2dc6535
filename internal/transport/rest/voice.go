package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/service/inventory"
)

type transcriptParser interface {
	ParseTranscript(ctx context.Context, transcript string, tenantID uuid.UUID) (domain.ParseOutcome, error)
}

type voiceAdder interface {
	AddParsedItemToSession(ctx context.Context, sessionID, tenantID uuid.UUID, transcript string) (*inventory.VoiceAddResult, error)
}

// VoiceHandler serves the transcript endpoints.
type VoiceHandler struct {
	parser transcriptParser
	adder  voiceAdder
	log    *slog.Logger
}

// NewVoiceHandler creates a VoiceHandler.
func NewVoiceHandler(parser transcriptParser, adder voiceAdder, logger *slog.Logger) *VoiceHandler {
	return &VoiceHandler{parser: parser, adder: adder, log: logger.With("handler", "voice")}
}

type transcriptRequest struct {
	Transcript string `json:"transcript"`
}

type voiceAddResponse struct {
	Session sessionResponse  `json:"session"`
	Parse   domain.ParseView `json:"parse"`
	Applied bool             `json:"applied"`
}

// Parse handles POST /v1/sessions/voice-parse. Outcomes without a quantity
// or without a confident match are still 200: the message tells the
// speaker what to repeat.
func (h *VoiceHandler) Parse(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req transcriptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	outcome, err := h.parser.ParseTranscript(r.Context(), req.Transcript, tenant)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.NewParseView(outcome))
}

// Add handles POST /v1/sessions/{id}/voice-add.
func (h *VoiceHandler) Add(w http.ResponseWriter, r *http.Request) {
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
	var req transcriptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.adder.AddParsedItemToSession(r.Context(), id, tenant, req.Transcript)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voiceAddResponse{
		Session: toSessionResponse(result.Session),
		Parse:   domain.NewParseView(result.Outcome),
		Applied: result.Applied,
	})
}
