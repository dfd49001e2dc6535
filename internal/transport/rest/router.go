package rest

import (
	"net/http"

	"github.com/heartmarshall/barcount-backend/internal/transport/middleware"
)

// Routes collects the handlers mounted by NewRouter. Metrics is optional;
// VoiceLimit defaults to no limit.
type Routes struct {
	Sessions    *SessionHandler
	Voice       *VoiceHandler
	Admin       *AdminHandler
	Health      *HealthHandler
	Metrics     http.Handler
	MetricsPath string
	VoiceLimit  middleware.Middleware
}

// NewRouter mounts every endpoint. The caller wraps the result in the
// request-scoped middleware chain (request id, logging, recovery, auth).
func NewRouter(rt Routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", rt.Health.Live)
	mux.HandleFunc("GET /ready", rt.Health.Ready)
	mux.HandleFunc("GET /health", rt.Health.Health)
	if rt.Metrics != nil {
		mux.Handle("GET "+rt.MetricsPath, rt.Metrics)
	}

	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	voiceLimit := rt.VoiceLimit
	if voiceLimit == nil {
		voiceLimit = middleware.Chain()
	}

	s := rt.Sessions
	mux.Handle("POST /v1/sessions", authed(s.Start))
	mux.Handle("GET /v1/sessions", authed(s.List))
	mux.Handle("GET /v1/sessions/{id}", authed(s.Get))
	mux.Handle("PATCH /v1/sessions/{id}", authed(s.UpdateDetails))
	mux.Handle("DELETE /v1/sessions/{id}", authed(s.Delete))
	mux.Handle("POST /v1/sessions/{id}/pause", authed(s.Pause))
	mux.Handle("POST /v1/sessions/{id}/resume", authed(s.Resume))
	mux.Handle("POST /v1/sessions/{id}/finalize", authed(s.Finalize))
	mux.Handle("POST /v1/sessions/{id}/items", authed(s.MergeItem))

	mux.Handle("POST /v1/sessions/voice-parse", middleware.RequireAuth(voiceLimit(http.HandlerFunc(rt.Voice.Parse))))
	mux.Handle("POST /v1/sessions/{id}/voice-add", middleware.RequireAuth(voiceLimit(http.HandlerFunc(rt.Voice.Add))))

	mux.Handle("GET /v1/admin/provisional", middleware.RequireAdmin(http.HandlerFunc(rt.Admin.ListProvisional)))
	mux.Handle("POST /v1/admin/provisional/{id}/resolve", middleware.RequireAdmin(http.HandlerFunc(rt.Admin.ResolveProvisional)))

	return mux
}
