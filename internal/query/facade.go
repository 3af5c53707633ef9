// Package query implements the facade an external API layer calls: check
// the origin identity's freshness, run the fetch pipeline only if needed,
// then answer from the materialized graph.
package query

import (
	"context"
	"time"

	"github.com/relationgraph/core/internal/fetcher"
	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/rlog"
	"github.com/relationgraph/core/internal/traversal"
	"github.com/relationgraph/core/internal/vocab"
)

// Config bounds facade-driven traversals: depth defaults and caps, the
// freshness TTL, and the per-query timeout and budgets.
type Config struct {
	DepthDefault  int
	DepthMax      int
	TTL           time.Duration
	FacadeTimeout time.Duration
	MaxVertices   int
	MaxInFlight   int

	// Now is the clock the TTL check reads; nil means time.Now. Tests
	// inject a fixed clock here to make the outdated boundary deterministic.
	Now func() time.Time
}

// Facade owns the store's read side and the traversal driver, and decides
// whether a query needs a refresh before answering.
type Facade struct {
	store  graphstore.Backend
	driver *traversal.Driver
	cfg    Config
	cache  *FreshnessCache // optional; nil means read updated_at from store every time
}

func NewFacade(store graphstore.Backend, registry *fetcher.Registry, cfg Config) *Facade {
	if cfg.DepthDefault == 0 {
		cfg.DepthDefault = 2
	}
	if cfg.DepthMax == 0 {
		cfg.DepthMax = 5
	}
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Facade{
		store:  store,
		driver: traversal.NewDriver(registry, store),
		cfg:    cfg,
	}
}

// WithFreshnessCache attaches a shared Redis cache the facade consults
// ahead of the store for the TTL check (cache.redis_url configured). Opt-in
// only — most Facades should leave this unset.
func (f *Facade) WithFreshnessCache(c *FreshnessCache) *Facade {
	f.cache = c
	return f
}

// FindIdentity is the read-only find_identity() entry point; never triggers
// a fetch.
func (f *Facade) FindIdentity(ctx context.Context, platform vocab.Platform, identity string) (*graphmodel.Identity, error) {
	return f.store.FindVertex(ctx, platform, identity)
}

// Neighbors is neighbors(): refreshes the origin if stale, then reads.
func (f *Facade) Neighbors(ctx context.Context, platform vocab.Platform, identity string, depth int, sourceFilter []vocab.DataSource) ([]graphstore.NeighborResult, error) {
	origin, err := f.ensureFresh(ctx, platform, identity, depth)
	if err != nil {
		return nil, err
	}
	return f.store.Neighbors(ctx, *origin, clampDepth(depth, f.cfg.DepthMax), sourceFilter)
}

// Expand is expand(): like Neighbors but returns the edge list.
func (f *Facade) Expand(ctx context.Context, platform vocab.Platform, identity string, depth int) ([]graphstore.TraversalEdge, error) {
	origin, err := f.ensureFresh(ctx, platform, identity, depth)
	if err != nil {
		return nil, err
	}
	return f.store.NeighborsWithTraversal(ctx, *origin, clampDepth(depth, f.cfg.DepthMax), nil)
}

// ensureFresh refreshes the origin on demand: if the origin identity is
// absent or its updated_at is older than the TTL, run a bounded traversal
// against it before answering; otherwise return the stored vertex untouched.
func (f *Facade) ensureFresh(ctx context.Context, platform vocab.Platform, identity string, depth int) (*graphmodel.Identity, error) {
	if f.cache != nil {
		if _, fresh := f.cache.Get(ctx, platform, identity, f.cfg.TTL); fresh {
			if cached, err := f.store.FindVertex(ctx, platform, identity); err == nil && cached != nil {
				return cached, nil
			}
		}
	}

	existing, err := f.store.FindVertex(ctx, platform, identity)
	if err != nil {
		return nil, err
	}

	if existing != nil && f.cfg.Now().Sub(existing.UpdatedAt) < f.cfg.TTL {
		if f.cache != nil {
			f.cache.Set(ctx, platform, identity, existing.UpdatedAt, f.cfg.TTL)
		}
		return existing, nil
	}

	refreshCtx := ctx
	var cancel context.CancelFunc
	if f.cfg.FacadeTimeout > 0 {
		refreshCtx, cancel = context.WithTimeout(ctx, f.cfg.FacadeTimeout)
		defer cancel()
	}

	target := vocab.NewIdentityTarget(platform, identity)
	outcome := f.driver.Run(refreshCtx, target, clampDepth(depth, f.cfg.DepthMax), traversal.Budget{
		MaxVertices: f.cfg.MaxVertices,
		MaxWallTime: f.cfg.FacadeTimeout,
		MaxInFlight: f.cfg.MaxInFlight,
	})
	if len(outcome.Failures) > 0 {
		rlog.Default().Warn("traversal completed with partial failures",
			"target", target.CanonicalKey(), "failures", len(outcome.Failures))
	}
	if outcome.Cancelled && refreshCtx.Err() != nil {
		rlog.Default().Warn("traversal cancelled by facade timeout", "target", target.CanonicalKey())
	}

	refreshed, err := f.store.FindVertex(ctx, platform, identity)
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		return nil, relerrors.NotFound("identity %s,%s not found after traversal", platform, identity)
	}
	if f.cache != nil {
		f.cache.Set(ctx, platform, identity, refreshed.UpdatedAt, f.cfg.TTL)
	}
	return refreshed, nil
}

func clampDepth(depth, max int) int {
	if depth <= 0 {
		return 1
	}
	if depth > max {
		return max
	}
	return depth
}

// Ping and APIVersion back the liveness endpoints.
func (f *Facade) Ping(_ context.Context) bool { return true }

const apiVersion = "1.0.0"

func (f *Facade) APIVersion(_ context.Context) string { return apiVersion }
