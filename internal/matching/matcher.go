// Package matching ranks reference catalog products against a spoken name.
package matching

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

const (
	// MaxCandidates is the number of candidates Match returns at most.
	MaxCandidates = 3
	// maxVariantWords bounds the variant suffix tried during decomposition.
	maxVariantWords = 4
	// brandOnlyPenalty is added when a name matches only the brand of a
	// product that has a variant, so the exact product stays ahead.
	brandOnlyPenalty = 0.1
)

// Candidate is a reference product with its match score (lower is better).
type Candidate struct {
	Product domain.RefProduct
	Score   float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithMinSimilarity sets the Jaro-Winkler similarity a pair needs to be
// scored at all. Default: DefaultMinSimilarity.
func WithMinSimilarity(v float64) Option {
	return func(m *Matcher) {
		if v > 0 {
			m.minSimilarity = v
		}
	}
}

// WithLogger sets the logger used for cache rebuild diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		m.log = logger.With("component", "matcher")
	}
}

// Matcher ranks reference catalog products against a candidate name. It owns
// the catalog cache and is safe for concurrent use.
type Matcher struct {
	cache         *Cache
	minSimilarity float64
	log           *slog.Logger
}

// NewMatcher creates a Matcher reading the catalog from src and refreshing
// its snapshot according to policy.
func NewMatcher(src catalogSource, policy RefreshPolicy, opts ...Option) *Matcher {
	m := &Matcher{
		cache:         NewCache(src, policy),
		minSimilarity: DefaultMinSimilarity,
		log:           slog.Default().With("component", "matcher"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Invalidate drops the cached catalog snapshot.
func (m *Matcher) Invalidate() {
	m.cache.Invalidate()
	m.log.Debug("catalog cache invalidated")
}

// Warm builds the catalog snapshot ahead of the first request.
func (m *Matcher) Warm(ctx context.Context) error {
	snap, err := m.cache.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("warm catalog cache: %w", err)
	}
	m.log.InfoContext(ctx, "catalog cache warmed", slog.Int("products", snap.Len()))
	return nil
}

// Match returns up to MaxCandidates reference products for name, best first.
// The name is split into a brand prefix and a known variant suffix (the last
// one to four words, longest first); every split is scored against every
// product, and both halves must be comparable. When no split scores, the
// whole name is compared with "brand variant" and, for products with a
// variant, with the brand alone plus brandOnlyPenalty. A name that contains
// the brand as whole words is always comparable with it. Ties keep catalog
// order. An empty catalog yields an empty result.
func (m *Matcher) Match(ctx context.Context, name string) ([]Candidate, error) {
	query := domain.NormalizeText(name)
	if query == "" {
		return []Candidate{}, nil
	}

	snap, err := m.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Len() == 0 {
		return []Candidate{}, nil
	}

	best := make(map[int]float64)
	record := func(i int, score float64) {
		if prev, ok := best[i]; !ok || score < prev {
			best[i] = score
		}
	}

	words := strings.Fields(query)
	for span := min(maxVariantWords, len(words)-1); span >= 1; span-- {
		variant := strings.Join(words[len(words)-span:], " ")
		if !snap.IsKnownVariant(variant) {
			continue
		}
		brand := strings.Join(words[:len(words)-span], " ")
		for i := range snap.Products {
			bs, ok := Score(brand, snap.brands[i], m.minSimilarity)
			if !ok {
				continue
			}
			vs, ok := Score(variant, snap.variants[i], m.minSimilarity)
			if !ok {
				continue
			}
			record(i, (bs+vs)/2)
		}
	}

	if len(best) == 0 {
		for i := range snap.Products {
			if s, ok := Score(query, snap.combined[i], m.minSimilarity); ok {
				record(i, s)
			}
			if snap.variants[i] == "" {
				continue
			}
			if s, ok := Score(query, snap.brands[i], m.minSimilarity); ok {
				record(i, s+brandOnlyPenalty)
			} else if containsWords(query, snap.brands[i]) {
				record(i, distance(query, snap.brands[i])+brandOnlyPenalty)
			}
		}
	}

	return rank(snap, best), nil
}

// rank orders scored products by score then catalog order and keeps the top.
func rank(snap *Snapshot, best map[int]float64) []Candidate {
	idx := make([]int, 0, len(best))
	for i := range best {
		idx = append(idx, i)
	}
	slices.SortFunc(idx, func(a, b int) int {
		if c := cmp.Compare(best[a], best[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(idx) > MaxCandidates {
		idx = idx[:MaxCandidates]
	}

	out := make([]Candidate, len(idx))
	for k, i := range idx {
		out[k] = Candidate{Product: snap.Products[i], Score: best[i]}
	}
	return out
}

// Suggest returns display names of up to limit products whose brand contains
// the first word of name, in catalog order. It is looser than Match and is
// used to offer alternatives when nothing matched.
func (m *Matcher) Suggest(ctx context.Context, name string, limit int) ([]string, error) {
	words := strings.Fields(domain.NormalizeText(name))
	if len(words) == 0 || limit <= 0 {
		return []string{}, nil
	}

	snap, err := m.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, limit)
	for i := range snap.Products {
		if !strings.Contains(snap.brands[i], words[0]) {
			continue
		}
		display := snap.Products[i].DisplayName()
		if _, dup := seen[display]; dup {
			continue
		}
		seen[display] = struct{}{}
		out = append(out, display)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
