package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// RefProductRepo is the write side of the reference catalog.
type RefProductRepo interface {
	Create(ctx context.Context, p domain.RefProduct) (*domain.RefProduct, error)
}

type catalogPublisher interface {
	PublishCatalogChanged(ctx context.Context, count int) error
}

// Result summarises one seeding run.
type Result struct {
	Inserted int
	Skipped  int
	Duration time.Duration
}

// Pipeline writes catalog products one by one. Products already in the
// catalog (same brand and variant) are skipped, so re-running a file is safe.
type Pipeline struct {
	log       *slog.Logger
	repo      RefProductRepo
	publisher catalogPublisher
	dryRun    bool
}

// NewPipeline creates a Pipeline. publisher may be nil.
func NewPipeline(logger *slog.Logger, repo RefProductRepo, publisher catalogPublisher, dryRun bool) *Pipeline {
	return &Pipeline{
		log:       logger.With("component", "seeder"),
		repo:      repo,
		publisher: publisher,
		dryRun:    dryRun,
	}
}

// Run inserts products and, when anything was inserted, announces the change
// so running servers drop their catalog snapshot. A failed announcement is
// logged, not returned: the TTL policy still picks the change up.
func (p *Pipeline) Run(ctx context.Context, products []domain.RefProduct) (Result, error) {
	start := time.Now()
	var res Result

	for _, prod := range products {
		if p.dryRun {
			p.log.InfoContext(ctx, "dry run: would insert", slog.String("product", prod.DisplayName()))
			continue
		}

		_, err := p.repo.Create(ctx, prod)
		switch {
		case err == nil:
			res.Inserted++
		case errors.Is(err, domain.ErrAlreadyExists):
			res.Skipped++
		default:
			res.Duration = time.Since(start)
			return res, fmt.Errorf("insert %s: %w", prod.DisplayName(), err)
		}
	}
	res.Duration = time.Since(start)

	if res.Inserted > 0 && p.publisher != nil {
		if err := p.publisher.PublishCatalogChanged(ctx, res.Inserted); err != nil {
			p.log.WarnContext(ctx, "publish catalog change", slog.String("error", err.Error()))
		}
	}

	p.log.InfoContext(ctx, "catalog seeded",
		slog.Int("inserted", res.Inserted),
		slog.Int("skipped", res.Skipped),
		slog.Bool("dry_run", p.dryRun),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}
