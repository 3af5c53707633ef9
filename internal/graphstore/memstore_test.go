package graphstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/vocab"
)

func newIdentity(platform vocab.Platform, key string, updatedAt time.Time) graphmodel.Identity {
	return graphmodel.Identity{
		UUID:        uuid.New(),
		Platform:    platform,
		IdentityKey: key,
		AddedAt:     updatedAt,
		UpdatedAt:   updatedAt,
	}
}

func TestUpsertVertexIsIdempotent(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	t0 := time.Now().Add(-time.Hour)

	v := newIdentity(vocab.PlatformTwitter, "alice", t0)
	require.NoError(t, store.UpsertVertex(ctx, v))
	require.NoError(t, store.UpsertVertex(ctx, v))

	found, err := store.FindVertex(ctx, vocab.PlatformTwitter, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, v.UUID, found.UUID)
}

func TestUpsertVertexUpdatedAtIsMax(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	t0 := time.Now().Add(-time.Hour)
	t1 := time.Now()

	v1 := newIdentity(vocab.PlatformTwitter, "alice", t0)
	require.NoError(t, store.UpsertVertex(ctx, v1))

	v2 := newIdentity(vocab.PlatformTwitter, "alice", t1)
	require.NoError(t, store.UpsertVertex(ctx, v2))

	// older write arriving after the newer one must not roll updated_at back
	v3 := newIdentity(vocab.PlatformTwitter, "alice", t0)
	require.NoError(t, store.UpsertVertex(ctx, v3))

	found, err := store.FindVertex(ctx, vocab.PlatformTwitter, "alice")
	require.NoError(t, err)
	assert.True(t, found.UpdatedAt.Equal(t1))
}

func TestBatchCommitRejectsDanglingEdge(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	from := newIdentity(vocab.PlatformFarcaster, "bob", time.Now())
	to := newIdentity(vocab.PlatformEthereum, "0xabc", time.Now())

	delta := Delta{
		Identities: []graphmodel.Identity{from}, // "to" deliberately omitted
		Proofs: []graphmodel.Proof{{
			UUID: uuid.New(), From: from, To: to, Source: vocab.DataSourceFarcaster,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}},
	}
	err := store.BatchCommit(ctx, delta)
	assert.Error(t, err)
}

func TestCreateIsolatedVertexThenTraversalFindsNoNeighbors(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	v := newIdentity(vocab.PlatformTwitter, "lonely", time.Now())
	require.NoError(t, store.CreateIsolatedVertex(ctx, v))

	neighbors, err := store.Neighbors(ctx, v, 2, nil)
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}

func TestNeighborsAccumulatesSourceAttribution(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	a := newIdentity(vocab.PlatformFarcaster, "carol", time.Now())
	b := newIdentity(vocab.PlatformEthereum, "0xdef", time.Now())

	delta := Delta{
		Identities: []graphmodel.Identity{a, b},
		Proofs: []graphmodel.Proof{{
			UUID: uuid.New(), From: a, To: b, Source: vocab.DataSourceFarcaster,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}},
	}
	require.NoError(t, store.BatchCommit(ctx, delta))

	neighbors, err := store.Neighbors(ctx, a, 1, nil)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, b.PrimaryKey(), neighbors[0].Identity.PrimaryKey())
	_, hasSource := neighbors[0].Sources[vocab.DataSourceFarcaster]
	assert.True(t, hasSource)
}

func TestNeighborsSourceFilterExcludesOtherSources(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	a := newIdentity(vocab.PlatformFarcaster, "dana", time.Now())
	b := newIdentity(vocab.PlatformEthereum, "0x111", time.Now())

	require.NoError(t, store.BatchCommit(ctx, Delta{
		Identities: []graphmodel.Identity{a, b},
		Proofs: []graphmodel.Proof{{
			UUID: uuid.New(), From: a, To: b, Source: vocab.DataSourceFarcaster,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}},
	}))

	neighbors, err := store.Neighbors(ctx, a, 1, []vocab.DataSource{vocab.DataSourceRSS3})
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}

func TestNeighborsDepthBound(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	a := newIdentity(vocab.PlatformFarcaster, "eve", time.Now())
	b := newIdentity(vocab.PlatformEthereum, "0x222", time.Now())
	c := newIdentity(vocab.PlatformEthereum, "0x333", time.Now())

	require.NoError(t, store.BatchCommit(ctx, Delta{
		Identities: []graphmodel.Identity{a, b},
		Proofs: []graphmodel.Proof{{UUID: uuid.New(), From: a, To: b, Source: vocab.DataSourceFarcaster, CreatedAt: time.Now(), UpdatedAt: time.Now()}},
	}))
	require.NoError(t, store.BatchCommit(ctx, Delta{
		Identities: []graphmodel.Identity{b, c},
		Resolves:   []graphmodel.Resolve{{UUID: uuid.New(), From: b, To: c, Source: vocab.DataSourceENS, CreatedAt: time.Now(), UpdatedAt: time.Now()}},
	}))

	depth1, err := store.Neighbors(ctx, a, 1, nil)
	require.NoError(t, err)
	assert.Len(t, depth1, 1)

	depth2, err := store.Neighbors(ctx, a, 2, nil)
	require.NoError(t, err)
	assert.Len(t, depth2, 2)
}
