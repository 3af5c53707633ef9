package main

import (
	"context"
	"time"

	"github.com/relationgraph/core/internal/fetcher"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/graphstore/httpbackend"
	"github.com/relationgraph/core/internal/graphstore/neo4jbackend"
	"github.com/relationgraph/core/internal/graphstore/stagingcache"
	"github.com/relationgraph/core/internal/httpclient"
	"github.com/relationgraph/core/internal/query"
	"github.com/relationgraph/core/internal/upstream/ens"
	"github.com/relationgraph/core/internal/upstream/farcaster"
	"github.com/relationgraph/core/internal/upstream/githubsocial"
	"github.com/relationgraph/core/internal/upstream/rss3"
)

// buildStore selects the graphstore.Backend named by cfg.TDB.Backend,
// falling back to the in-memory store when the neo4j connection fails
// (logging a warning) and using it without a warning for any backend name
// other than "http" or "neo4j", then optionally wraps it in the
// write-behind staging cache when cfg.Staging.PostgresDSN is set.
func buildStore() graphstore.Backend {
	var backend graphstore.Backend
	switch cfg.TDB.Backend {
	case "http":
		client := httpclient.New(httpclient.Config{BaseURL: cfg.TDB.Host, BearerToken: cfg.TDB.IdentityGraphToken})
		backend = httpbackend.New(client, cfg.TDB.GraphName)
	case "neo4j":
		n4j, err := neo4jbackend.New(context.Background(), cfg.TDB.Host, cfg.TDB.Neo4jUsername, cfg.TDB.Neo4jPassword, cfg.TDB.Neo4jDatabase)
		if err != nil {
			logger.WithError(err).Warn("failed to connect to neo4j, falling back to in-memory store")
			backend = graphstore.NewMemStore()
		} else {
			backend = n4j
		}
	default:
		backend = graphstore.NewMemStore()
	}

	if cfg.Staging.PostgresDSN == "" {
		return backend
	}
	staged, err := stagingcache.New(context.Background(), cfg.Staging.PostgresDSN, backend)
	if err != nil {
		logger.WithError(err).Warn("failed to connect staging postgres, continuing without write-behind staging")
		return backend
	}
	if n, err := staged.ReplayPending(context.Background()); err != nil {
		logger.WithError(err).Warn("failed to replay pending staged deltas")
	} else if n > 0 {
		logger.WithField("count", n).Info("replayed pending staged deltas")
	}
	return staged
}

// buildFacade wires the configured upstream adapters into a registry and
// returns the facade the CLI subcommands call into.
func buildFacade() *query.Facade {
	store := buildStore()
	reg := fetcher.NewRegistry()

	if u, ok := cfg.Upstream["warpcast"]; ok {
		reg.Register(farcaster.New(httpclient.New(httpclient.Config{
			BaseURL: u.URL, BearerToken: u.Token, RateLimitPerS: u.RateLimitPerS,
		})))
	}
	if u, ok := cfg.Upstream["rss3"]; ok {
		reg.Register(rss3.New(httpclient.New(httpclient.Config{
			BaseURL: u.URL, BearerToken: u.Token, RateLimitPerS: u.RateLimitPerS,
		})))
	}
	if u, ok := cfg.Upstream["ens"]; ok {
		reg.Register(ens.New(httpclient.New(httpclient.Config{
			BaseURL: u.URL, BearerToken: u.Token, RateLimitPerS: u.RateLimitPerS,
		})))
	}
	if u, ok := cfg.Upstream["github"]; ok {
		reg.Register(githubsocial.New(u.Token, u.RateLimitPerS))
	}

	f := query.NewFacade(store, reg, query.Config{
		DepthDefault:  cfg.Traversal.DepthDefault,
		DepthMax:      cfg.Traversal.DepthMax,
		TTL:           time.Duration(cfg.Traversal.TTLSeconds) * time.Second,
		MaxVertices:   cfg.Traversal.MaxVertices,
		MaxInFlight:   cfg.Traversal.MaxInFlight,
		FacadeTimeout: cfg.Traversal.Timeout,
	})

	if cfg.Cache.RedisURL != "" {
		if rc, err := query.NewFreshnessCache(cfg.Cache.RedisURL); err == nil {
			f = f.WithFreshnessCache(rc)
		} else {
			logger.WithError(err).Warn("failed to connect freshness cache, continuing without it")
		}
	}

	return f
}
