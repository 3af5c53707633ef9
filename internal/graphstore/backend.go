package graphstore

import (
	"context"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/vocab"
)

// Delta is the unit BatchCommit operates on: every vertex+edge upsert one
// fetcher call produces. The write-ordering rule — a delta-list must upsert
// both endpoints of every edge it asserts — is enforced by Validate, not by
// the Backend implementation, so every Backend gets it for free.
type Delta struct {
	Identities []graphmodel.Identity
	Contracts  []graphmodel.Contract
	Proofs     []graphmodel.Proof
	Holds      []graphmodel.Hold
	Resolves   []graphmodel.Resolve
	HyperEdges []graphmodel.HyperEdge
}

// IsolatedIdentityDelta records a single vertex with no outgoing evidence:
// when an upstream returns no evidence for a known identity, the adapter
// still writes the vertex so the read side can surface it with empty sources.
func IsolatedIdentityDelta(id graphmodel.Identity) Delta {
	return Delta{Identities: []graphmodel.Identity{id}}
}

// Validate checks the write-ordering rule: every edge's endpoints must
// appear among the delta's own vertices; an edge whose endpoint is absent
// from the delta is rejected even if that vertex already exists in the
// store. The Backend implementations call this at the store boundary
// before committing.
func (d Delta) Validate() error {
	identitySeen := make(map[string]struct{}, len(d.Identities))
	for _, v := range d.Identities {
		identitySeen[v.PrimaryKey()] = struct{}{}
	}
	contractSeen := make(map[string]struct{}, len(d.Contracts))
	for _, v := range d.Contracts {
		contractSeen[v.PrimaryKey()] = struct{}{}
	}

	missing := func(key string, seen map[string]struct{}) bool {
		_, ok := seen[key]
		return !ok
	}

	for _, e := range d.Proofs {
		if missing(e.From.PrimaryKey(), identitySeen) || missing(e.To.PrimaryKey(), identitySeen) {
			return errEdgeEndpointMissing("Proof")
		}
	}
	for _, e := range d.Resolves {
		if missing(e.From.PrimaryKey(), identitySeen) || missing(e.To.PrimaryKey(), identitySeen) {
			return errEdgeEndpointMissing("Resolve")
		}
	}
	for _, e := range d.Holds {
		if missing(e.From.PrimaryKey(), identitySeen) {
			return errEdgeEndpointMissing("Hold")
		}
		switch e.Kind {
		case graphmodel.HoldKindIdentityContract:
			if e.ToContract == nil || missing(e.ToContract.PrimaryKey(), contractSeen) {
				return errEdgeEndpointMissing("Hold")
			}
		case graphmodel.HoldKindIdentityIdentity:
			if e.ToIdentity == nil || missing(e.ToIdentity.PrimaryKey(), identitySeen) {
				return errEdgeEndpointMissing("Hold")
			}
		}
	}
	return nil
}

// NeighborResult is one entry of a neighbors() response: an identity paired
// with the union of DataSources attesting any edge on a path to it.
type NeighborResult struct {
	Identity graphmodel.Identity
	Sources  vocab.DataSourceSet
}

// TraversalEdge is one edge in a neighbors_with_traversal() response.
type TraversalEdge struct {
	Kind    string // "Proof", "Hold", "Resolve", "Hyper"
	Proof   *graphmodel.Proof
	Hold    *graphmodel.Hold
	Resolve *graphmodel.Resolve
	Hyper   *graphmodel.HyperEdge
}

// Backend is the contract the write and read layers reduce to. Three
// implementations exist: MemStore (in-process, default), httpbackend (a
// managed HTTP graph endpoint), and neo4jbackend (a direct Cypher-driver
// alternative); they are interchangeable behind this interface.
type Backend interface {
	// UpsertVertex inserts or merges a single vertex. v is a
	// graphmodel.Identity or a graphmodel.Contract.
	UpsertVertex(ctx context.Context, v any) error

	// UpsertEdge inserts or merges a single edge, idempotent by the edge's
	// discriminator tuple.
	UpsertEdge(ctx context.Context, e any) error

	// BatchCommit atomically applies one delta-list. Atomicity is
	// per-delta-list, not global.
	BatchCommit(ctx context.Context, d Delta) error

	// CreateIsolatedVertex writes a single vertex with no edges, for callers
	// that only know one endpoint of a relation.
	CreateIsolatedVertex(ctx context.Context, v any) error

	// FindVertex looks up an Identity by (platform, identity).
	FindVertex(ctx context.Context, platform vocab.Platform, identity string) (*graphmodel.Identity, error)

	// Neighbors returns identities within depth hops of origin, each paired
	// with its attesting DataSource set, optionally filtered to the given
	// sources. Depth is caller-validated against the configured hard cap.
	Neighbors(ctx context.Context, origin graphmodel.Identity, depth int, sourceFilter []vocab.DataSource) ([]NeighborResult, error)

	// NeighborsWithTraversal is Neighbors but returns the edge list instead
	// of just endpoints, for callers that render the graph.
	NeighborsWithTraversal(ctx context.Context, origin graphmodel.Identity, depth int, sourceFilter []vocab.DataSource) ([]TraversalEdge, error)

	Close() error
}

type validationError struct{ edgeType string }

func (e validationError) Error() string {
	return "delta-list missing endpoint vertex for " + e.edgeType + " edge"
}

func errEdgeEndpointMissing(edgeType string) error {
	return validationError{edgeType: edgeType}
}
