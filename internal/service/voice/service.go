// Package voice turns a spoken transcript into a resolved inventory line.
package voice

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/barcount-backend/internal/observe"
	"github.com/heartmarshall/barcount-backend/internal/service/catalog"
)

type productResolver interface {
	Resolve(ctx context.Context, input catalog.ResolveInput) (catalog.Resolution, error)
}

// Service runs the parse pipeline: normalize, extract, resolve.
type Service struct {
	log      *slog.Logger
	resolver productResolver
	metrics  *observe.Metrics
}

// NewService creates a voice Service. metrics may be nil.
func NewService(logger *slog.Logger, resolver productResolver, metrics *observe.Metrics) *Service {
	return &Service{
		log:      logger.With("service", "voice"),
		resolver: resolver,
		metrics:  metrics,
	}
}
