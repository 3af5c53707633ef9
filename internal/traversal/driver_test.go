package traversal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationgraph/core/internal/fetcher"
	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/vocab"
)

// fakeFetcher deterministically hands back one delta per (platform, identity)
// pair, or an error when forced, without touching the network.
type fakeFetcher struct {
	name     string
	source   vocab.DataSource
	platform vocab.Platform
	reply    map[string]graphstore.Delta
	failFor  map[string]error
}

func (f *fakeFetcher) Name() string { return f.name }
func (f *fakeFetcher) Source() vocab.DataSource { return f.source }
func (f *fakeFetcher) CanFetch(t vocab.Target) bool {
	return t.InPlatformSupported(f.platform)
}
func (f *fakeFetcher) Fetch(_ context.Context, t vocab.Target) (graphstore.Delta, error) {
	if err, ok := f.failFor[t.Identity]; ok {
		return graphstore.Delta{}, err
	}
	return f.reply[t.Identity], nil
}

func identity(platform vocab.Platform, key string) graphmodel.Identity {
	now := time.Now().UTC()
	return graphmodel.Identity{UUID: uuid.New(), Platform: platform, IdentityKey: key, AddedAt: now, UpdatedAt: now}
}

func TestRunExpandsAcrossDepthAndDedups(t *testing.T) {
	alice := identity(vocab.PlatformFarcaster, "alice")
	ethAddr := identity(vocab.PlatformEthereum, "0xabc")
	bob := identity(vocab.PlatformFarcaster, "bob")

	farcasterFetcher := &fakeFetcher{
		name: "farcaster", source: vocab.DataSourceFarcaster, platform: vocab.PlatformFarcaster,
		reply: map[string]graphstore.Delta{
			"alice": {
				Identities: []graphmodel.Identity{alice, ethAddr},
				Holds: []graphmodel.Hold{{
					UUID: uuid.New(), Kind: graphmodel.HoldKindIdentityIdentity,
					From: alice, ToIdentity: &ethAddr, Source: vocab.DataSourceFarcaster, UpdatedAt: time.Now().UTC(),
				}},
			},
			"bob": {Identities: []graphmodel.Identity{bob}}, // isolated vertex, no next-targets
		},
	}
	ethFetcher := &fakeFetcher{
		name: "ethreverse", source: vocab.DataSourceFarcaster, platform: vocab.PlatformEthereum,
		reply: map[string]graphstore.Delta{
			"0xabc": {Identities: []graphmodel.Identity{ethAddr, bob}, Holds: []graphmodel.Hold{{
				UUID: uuid.New(), Kind: graphmodel.HoldKindIdentityIdentity,
				From: ethAddr, ToIdentity: &bob, Source: vocab.DataSourceFarcaster, UpdatedAt: time.Now().UTC(),
			}}},
		},
	}

	store := graphstore.NewMemStore()
	reg := fetcher.NewRegistry(farcasterFetcher, ethFetcher)
	driver := NewDriver(reg, store)

	outcome := driver.Run(context.Background(), vocab.NewIdentityTarget(vocab.PlatformFarcaster, "alice"), 5, Budget{})
	require.Empty(t, outcome.Failures)
	assert.False(t, outcome.BudgetHit)
	assert.False(t, outcome.Cancelled)
	// alice's fetch yields eth:0xabc; the eth reverse lookup yields
	// farcaster:bob; bob's own fetch returns an isolated vertex with no
	// further next-targets, so the queue drains.
	assert.GreaterOrEqual(t, outcome.VisitedCount, 2)

	got, err := store.FindVertex(context.Background(), vocab.PlatformEthereum, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestRunStopsAtMaxVerticesBudget(t *testing.T) {
	chain := &fakeFetcher{
		name: "chain", source: vocab.DataSourceFarcaster, platform: vocab.PlatformFarcaster,
		reply: map[string]graphstore.Delta{},
	}
	// every username produces a Hold to the next username, forming an
	// unbounded chain the budget must cut short.
	for i := 0; i < 10; i++ {
		from := identity(vocab.PlatformFarcaster, nthUser(i))
		to := identity(vocab.PlatformFarcaster, nthUser(i+1))
		chain.reply[nthUser(i)] = graphstore.Delta{
			Identities: []graphmodel.Identity{from, to},
			Holds: []graphmodel.Hold{{
				UUID: uuid.New(), Kind: graphmodel.HoldKindIdentityIdentity,
				From: from, ToIdentity: &to, Source: vocab.DataSourceFarcaster, UpdatedAt: time.Now().UTC(),
			}},
		}
	}

	store := graphstore.NewMemStore()
	reg := fetcher.NewRegistry(chain)
	driver := NewDriver(reg, store)

	outcome := driver.Run(context.Background(), vocab.NewIdentityTarget(vocab.PlatformFarcaster, nthUser(0)), 10, Budget{MaxVertices: 3})
	assert.True(t, outcome.BudgetHit)
	assert.Equal(t, 3, outcome.VisitedCount)
}

func TestRunRecordsPerFetcherFailureWithoutAbortingSiblings(t *testing.T) {
	alice := identity(vocab.PlatformFarcaster, "alice")
	good := &fakeFetcher{
		name: "good", source: vocab.DataSourceRSS3, platform: vocab.PlatformFarcaster,
		reply: map[string]graphstore.Delta{"alice": {Identities: []graphmodel.Identity{alice}}},
	}
	bad := &fakeFetcher{
		name: "bad", source: vocab.DataSourceFarcaster, platform: vocab.PlatformFarcaster,
		failFor: map[string]error{"alice": assert.AnError},
	}

	store := graphstore.NewMemStore()
	reg := fetcher.NewRegistry(good, bad)
	driver := NewDriver(reg, store)

	outcome := driver.Run(context.Background(), vocab.NewIdentityTarget(vocab.PlatformFarcaster, "alice"), 2, Budget{})
	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "bad", outcome.Failures[0].Fetcher)

	got, err := store.FindVertex(context.Background(), vocab.PlatformFarcaster, "alice")
	require.NoError(t, err)
	assert.NotNil(t, got, "good fetcher's delta must still be committed despite bad's failure")
}

func nthUser(i int) string {
	names := []string{"u0", "u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8", "u9", "u10"}
	return names[i]
}
