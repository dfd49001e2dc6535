package matching

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// RefreshPolicy decides when a catalog snapshot must be rebuilt. Every policy
// can additionally be short-circuited with Cache.Invalidate.
type RefreshPolicy interface {
	Expired(builtAt, now time.Time) bool
}

type ttlPolicy struct{ ttl time.Duration }

func (p ttlPolicy) Expired(builtAt, now time.Time) bool {
	return now.Sub(builtAt) >= p.ttl
}

// TTLPolicy rebuilds the snapshot once it is older than ttl.
// A non-positive ttl behaves like ManualPolicy.
func TTLPolicy(ttl time.Duration) RefreshPolicy {
	if ttl <= 0 {
		return manualPolicy{}
	}
	return ttlPolicy{ttl: ttl}
}

type manualPolicy struct{}

func (manualPolicy) Expired(time.Time, time.Time) bool { return false }

// ManualPolicy keeps a snapshot until Invalidate is called.
func ManualPolicy() RefreshPolicy { return manualPolicy{} }

// Snapshot is an immutable, normalized view of the reference catalog ordered
// by insertion sequence.
type Snapshot struct {
	Products []domain.RefProduct
	BuiltAt  time.Time

	brands   []string
	variants []string
	combined []string
	known    map[string]struct{}
}

func newSnapshot(products []domain.RefProduct, builtAt time.Time) *Snapshot {
	sorted := slices.Clone(products)
	slices.SortStableFunc(sorted, func(a, b domain.RefProduct) int {
		return cmp.Compare(a.Seq, b.Seq)
	})

	s := &Snapshot{
		Products: sorted,
		BuiltAt:  builtAt,
		brands:   make([]string, len(sorted)),
		variants: make([]string, len(sorted)),
		combined: make([]string, len(sorted)),
		known:    make(map[string]struct{}),
	}
	for i := range sorted {
		s.brands[i] = domain.NormalizeText(sorted[i].Brand)
		if sorted[i].Variant != nil {
			s.variants[i] = domain.NormalizeText(*sorted[i].Variant)
		}
		if s.variants[i] != "" {
			s.known[s.variants[i]] = struct{}{}
		}
		s.combined[i] = domain.NormalizeText(sorted[i].DisplayName())
	}
	return s
}

// IsKnownVariant reports whether v (normalized) is the variant of some product.
func (s *Snapshot) IsKnownVariant(v string) bool {
	_, ok := s.known[v]
	return ok
}

// Len returns the number of products in the snapshot.
func (s *Snapshot) Len() int { return len(s.Products) }

type catalogSource interface {
	ListAll(ctx context.Context) ([]domain.RefProduct, error)
}

// Cache holds the current catalog snapshot. Concurrent readers share one
// snapshot; rebuilds are collapsed into a single catalog read.
type Cache struct {
	src    catalogSource
	policy RefreshPolicy
	now    func() time.Time
	group  singleflight.Group

	mu         sync.RWMutex
	snap       *Snapshot
	generation uint64
	dirty      bool
}

// NewCache creates an empty cache; the first Snapshot call loads the catalog.
func NewCache(src catalogSource, policy RefreshPolicy) *Cache {
	if policy == nil {
		policy = ManualPolicy()
	}
	return &Cache{
		src:    src,
		policy: policy,
		now:    time.Now,
	}
}

// Snapshot returns the current snapshot, rebuilding it when it is missing,
// invalidated or expired under the refresh policy.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap, ok := c.fresh(); ok {
		return snap, nil
	}

	v, err, _ := c.group.Do("catalog", func() (any, error) {
		// Another flight may have finished while this caller was waiting.
		if snap, ok := c.fresh(); ok {
			return snap, nil
		}
		return c.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (c *Cache) fresh() (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil || c.dirty || c.policy.Expired(c.snap.BuiltAt, c.now()) {
		return nil, false
	}
	return c.snap, true
}

// Invalidate marks the snapshot stale; the next Snapshot call rebuilds it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.dirty = true
	c.generation++
	c.mu.Unlock()
}

func (c *Cache) rebuild(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	products, err := c.src.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference catalog: %w", err)
	}
	snap := newSnapshot(products, c.now())

	c.mu.Lock()
	c.snap = snap
	// An Invalidate that raced with the read keeps the cache dirty.
	if c.generation == gen {
		c.dirty = false
	}
	c.mu.Unlock()

	return snap, nil
}
