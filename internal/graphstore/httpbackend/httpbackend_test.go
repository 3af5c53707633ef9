package httpbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/httpclient"
	"github.com/relationgraph/core/internal/vocab"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := httpclient.New(httpclient.Config{BaseURL: srv.URL})
	return New(client, "IdentityGraph")
}

func TestBatchCommitPostsUpsertEnvelope(t *testing.T) {
	var captured upsertBody
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/graph/IdentityGraph/upsert", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"error":false,"code":"","message":"","results":{}}`))
	})

	now := time.Now().UTC()
	origin := graphmodel.Identity{UUID: uuid.New(), Platform: vocab.PlatformFarcaster, IdentityKey: "alice", AddedAt: now, UpdatedAt: now}
	dest := graphmodel.Identity{UUID: uuid.New(), Platform: vocab.PlatformEthereum, IdentityKey: "0xabc", AddedAt: now, UpdatedAt: now}

	delta := graphstore.Delta{
		Identities: []graphmodel.Identity{origin, dest},
		Holds: []graphmodel.Hold{{
			UUID: uuid.New(), Kind: graphmodel.HoldKindIdentityIdentity,
			From: origin, ToIdentity: &dest, Source: vocab.DataSourceFarcaster, UpdatedAt: now,
		}},
	}

	err := b.BatchCommit(context.Background(), delta)
	require.NoError(t, err)
	require.Len(t, captured.Vertices, 2)
	require.Len(t, captured.Edges, 1)
	assert.Equal(t, "Hold", captured.Edges[0].Type)
	assert.Equal(t, origin.PrimaryKey(), captured.Edges[0].From)
	assert.Equal(t, dest.PrimaryKey(), captured.Edges[0].To)
}

func TestBatchCommitSurfacesStoreError(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true,"code":"REJECTED","message":"bad delta","results":{}}`))
	})

	err := b.BatchCommit(context.Background(), graphstore.Delta{
		Identities: []graphmodel.Identity{{UUID: uuid.New(), Platform: vocab.PlatformFarcaster, IdentityKey: "alice"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REJECTED")
}

func TestFindVertexParsesEnvelope(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graph/IdentityGraph/vertices/Identity", r.URL.Path)
		w.Write([]byte(`{"error":false,"code":"","message":"","results":[{"platform":"farcaster","identity":"alice","uid":"1"}]}`))
	})

	id, err := b.FindVertex(context.Background(), vocab.PlatformFarcaster, "alice")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "alice", id.IdentityKey)
	require.NotNil(t, id.UID)
	assert.Equal(t, "1", *id.UID)
}

func TestFindVertexReturnsNilOnEmptyResults(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":false,"code":"","message":"","results":[]}`))
	})

	id, err := b.FindVertex(context.Background(), vocab.PlatformFarcaster, "nobody")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestNeighborsUnionsSourcesAndAppliesFilterParam(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "farcaster", r.URL.Query().Get("platform"))
		assert.Equal(t, "2", r.URL.Query().Get("depth"))
		assert.Equal(t, "rss3", r.URL.Query().Get("source"))
		w.Write([]byte(`{"error":false,"code":"","message":"","results":[
			{"identity":{"platform":"ethereum","identity":"0xabc"},"sources":["rss3"]}
		]}`))
	})

	origin := graphmodel.Identity{Platform: vocab.PlatformFarcaster, IdentityKey: "alice"}
	results, err := b.Neighbors(context.Background(), origin, 2, []vocab.DataSource{vocab.DataSourceRSS3})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "0xabc", results[0].Identity.IdentityKey)
	_, ok := results[0].Sources[vocab.DataSourceRSS3]
	assert.True(t, ok)
}

func TestNeighborsWithTraversalReturnsEdgeKinds(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query/IdentityGraph/neighbors_with_traversal", r.URL.Path)
		w.Write([]byte(`{"error":false,"code":"","message":"","results":[{"kind":"Hold"},{"kind":"Proof"}]}`))
	})

	origin := graphmodel.Identity{Platform: vocab.PlatformFarcaster, IdentityKey: "alice"}
	edges, err := b.NeighborsWithTraversal(context.Background(), origin, 2, nil)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "Hold", edges[0].Kind)
	assert.Equal(t, "Proof", edges[1].Kind)
}
