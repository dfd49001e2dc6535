package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/barcount-backend/pkg/ctxutil"
)

// Logger returns middleware that logs each HTTP request with method, path,
// status and duration, plus the request id and the tenant when known.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			id := &identity{}

			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
			}
			if id.tenant != "" {
				attrs = append(attrs, slog.String("tenant_id", id.tenant), slog.String("role", id.role))
			}

			level := slog.LevelInfo
			switch {
			case sw.status >= 500:
				level = slog.LevelError
			case sw.status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http.request", attrs...)
		})
	}
}

// identity is filled in by Auth, which runs inside Logger and so cannot
// hand its context back out.
type identity struct {
	tenant string
	role   string
}

type identityKey struct{}

func recordIdentity(ctx context.Context, tenant, role string) {
	if id, ok := ctx.Value(identityKey{}).(*identity); ok {
		id.tenant = tenant
		id.role = role
	}
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
