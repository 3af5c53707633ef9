package graphstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/vocab"
)

// MemStore is an in-memory Backend, the default for tests and for local/dev
// runs without a live graph database.
type MemStore struct {
	mu sync.Mutex

	identities map[string]graphmodel.Identity
	contracts  map[string]graphmodel.Contract
	proofs     map[string]*graphmodel.Proof
	holds      map[string]*graphmodel.Hold
	resolves   map[string]*graphmodel.Resolve
	hyperEdges map[string]graphmodel.HyperEdge

	// edgesFrom is the adjacency index neighbors()/neighbors_with_traversal()
	// walk; built incrementally as edges are merged in.
	edgesFrom map[string][]storedEdge
}

type storedEdge struct {
	kind    string
	toKey   string
	source  vocab.DataSource
	proof   *graphmodel.Proof
	hold    *graphmodel.Hold
	resolve *graphmodel.Resolve
}

func NewMemStore() *MemStore {
	return &MemStore{
		identities: make(map[string]graphmodel.Identity),
		contracts:  make(map[string]graphmodel.Contract),
		proofs:     make(map[string]*graphmodel.Proof),
		holds:      make(map[string]*graphmodel.Hold),
		resolves:   make(map[string]*graphmodel.Resolve),
		hyperEdges: make(map[string]graphmodel.HyperEdge),
		edgesFrom:  make(map[string][]storedEdge),
	}
}

func (m *MemStore) Close() error { return nil }

func (m *MemStore) UpsertVertex(_ context.Context, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertVertexLocked(v)
}

func (m *MemStore) upsertVertexLocked(v any) error {
	switch vv := v.(type) {
	case graphmodel.Identity:
		m.mergeIdentityLocked(vv)
		return nil
	case graphmodel.Contract:
		m.mergeContractLocked(vv)
		return nil
	default:
		return relerrors.Internal("unsupported vertex type %T", v)
	}
}

func (m *MemStore) mergeIdentityLocked(v graphmodel.Identity) graphmodel.Identity {
	key := v.PrimaryKey()
	existing, ok := m.identities[key]
	if !ok {
		if v.AddedAt.IsZero() {
			v.AddedAt = v.UpdatedAt
		}
		m.identities[key] = v
		return v
	}

	merged := existing
	merged.DisplayName = MergeField(Overwrite, existing.DisplayName, true, v.DisplayName)
	merged.ProfileURL = MergeField(Overwrite, existing.ProfileURL, true, v.ProfileURL)
	merged.AvatarURL = MergeField(Overwrite, existing.AvatarURL, true, v.AvatarURL)
	merged.CreatedAt = mergeTimePtr(IgnoreIfExists, existing.CreatedAt, v.CreatedAt)
	merged.UID = mergeStringPtr(IgnoreIfExists, existing.UID, v.UID)
	merged.ExpiredAt = MergeField(Overwrite, existing.ExpiredAt, true, v.ExpiredAt)
	merged.Reverse = MergeField(Overwrite, existing.Reverse, true, v.Reverse)
	merged.UpdatedAt = MergeMaxTime(existing.UpdatedAt, true, v.UpdatedAt)
	// UUID and AddedAt are fixed at first insert.
	merged.UUID = existing.UUID
	merged.AddedAt = existing.AddedAt
	m.identities[key] = merged
	return merged
}

func (m *MemStore) mergeContractLocked(v graphmodel.Contract) graphmodel.Contract {
	key := v.PrimaryKey()
	existing, ok := m.contracts[key]
	if !ok {
		m.contracts[key] = v
		return v
	}
	merged := existing
	merged.UUID = existing.UUID
	merged.Category = existing.Category // static, fixed at first insert
	merged.Symbol = MergeField(Overwrite, existing.Symbol, true, v.Symbol)
	merged.UpdatedAt = MergeMaxTime(existing.UpdatedAt, true, v.UpdatedAt)
	m.contracts[key] = merged
	return merged
}

func (m *MemStore) UpsertEdge(_ context.Context, e any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertEdgeLocked(e)
}

func (m *MemStore) upsertEdgeLocked(e any) error {
	switch ee := e.(type) {
	case graphmodel.Proof:
		m.mergeProofLocked(ee)
	case graphmodel.Hold:
		m.mergeHoldLocked(ee)
	case graphmodel.Resolve:
		m.mergeResolveLocked(ee)
	case graphmodel.HyperEdge:
		m.mergeHyperEdgeLocked(ee)
	default:
		return relerrors.Internal("unsupported edge type %T", e)
	}
	return nil
}

func proofKey(source vocab.DataSource, from, to string) string {
	return source.String() + "|" + from + "|" + to
}

func (m *MemStore) mergeProofLocked(e graphmodel.Proof) {
	key := proofKey(e.Source, e.From.PrimaryKey(), e.To.PrimaryKey())
	if existing, ok := m.proofs[key]; ok {
		existing.CreatedAt = minTime(existing.CreatedAt, e.CreatedAt)
		existing.UpdatedAt = MergeMaxTime(existing.UpdatedAt, true, e.UpdatedAt)
		return
	}
	// stored is shared between the map and the adjacency index so later
	// merges are visible to traversal reads.
	stored := e
	m.proofs[key] = &stored
	m.edgesFrom[e.From.PrimaryKey()] = append(m.edgesFrom[e.From.PrimaryKey()], storedEdge{
		kind: "Proof", toKey: e.To.PrimaryKey(), source: e.Source, proof: &stored,
	})
}

func holdKey(source vocab.DataSource, from, to, tokenID string) string {
	return source.String() + "|" + from + "|" + to + "|" + tokenID
}

func (m *MemStore) mergeHoldLocked(e graphmodel.Hold) {
	var toKey string
	if e.Kind == graphmodel.HoldKindIdentityContract && e.ToContract != nil {
		toKey = e.ToContract.PrimaryKey()
	} else if e.Kind == graphmodel.HoldKindIdentityIdentity && e.ToIdentity != nil {
		toKey = e.ToIdentity.PrimaryKey()
	}
	key := holdKey(e.Source, e.From.PrimaryKey(), toKey, e.TokenID)
	if existing, ok := m.holds[key]; ok {
		existing.UpdatedAt = MergeMaxTime(existing.UpdatedAt, true, e.UpdatedAt)
		return
	}
	stored := e
	m.holds[key] = &stored
	m.edgesFrom[e.From.PrimaryKey()] = append(m.edgesFrom[e.From.PrimaryKey()], storedEdge{
		kind: "Hold", toKey: toKey, source: e.Source, hold: &stored,
	})
}

func (m *MemStore) mergeResolveLocked(e graphmodel.Resolve) {
	key := e.Source.String() + "|" + e.From.PrimaryKey() + "|" + e.To.PrimaryKey()
	if existing, ok := m.resolves[key]; ok {
		existing.UpdatedAt = MergeMaxTime(existing.UpdatedAt, true, e.UpdatedAt)
		return
	}
	stored := e
	m.resolves[key] = &stored
	m.edgesFrom[e.From.PrimaryKey()] = append(m.edgesFrom[e.From.PrimaryKey()], storedEdge{
		kind: "Resolve", toKey: e.To.PrimaryKey(), source: e.Source, resolve: &stored,
	})
}

func (m *MemStore) mergeHyperEdgeLocked(e graphmodel.HyperEdge) {
	key := string(e.Cluster) + "|" + e.To.PrimaryKey()
	existing, ok := m.hyperEdges[key]
	merged := e
	if ok {
		merged.UUID = existing.UUID
		merged.UpdatedAt = MergeMaxTime(existing.UpdatedAt, true, e.UpdatedAt)
	}
	m.hyperEdges[key] = merged
}

func (m *MemStore) CreateIsolatedVertex(ctx context.Context, v any) error {
	return m.UpsertVertex(ctx, v)
}

func (m *MemStore) BatchCommit(ctx context.Context, d Delta) error {
	if err := d.Validate(); err != nil {
		return relerrors.StoreError(err, "batch commit rejected")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Vertices before edges.
	for _, v := range d.Identities {
		m.mergeIdentityLocked(v)
	}
	for _, v := range d.Contracts {
		m.mergeContractLocked(v)
	}
	for _, e := range d.Proofs {
		m.mergeProofLocked(e)
	}
	for _, e := range d.Holds {
		m.mergeHoldLocked(e)
	}
	for _, e := range d.Resolves {
		m.mergeResolveLocked(e)
	}
	for _, e := range d.HyperEdges {
		m.mergeHyperEdgeLocked(e)
	}
	return nil
}

func (m *MemStore) FindVertex(_ context.Context, platform vocab.Platform, identity string) (*graphmodel.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := platform.String() + "," + identity
	v, ok := m.identities[key]
	if !ok {
		return nil, nil
	}
	out := v
	return &out, nil
}

const defaultDepthCap = 5

func (m *MemStore) Neighbors(_ context.Context, origin graphmodel.Identity, depth int, sourceFilter []vocab.DataSource) ([]NeighborResult, error) {
	if depth > defaultDepthCap {
		depth = defaultDepthCap
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := vocab.NewDataSourceSet(sourceFilter...)
	useFilter := len(sourceFilter) > 0

	sourcesFor := make(map[string]vocab.DataSourceSet)
	minDepth := map[string]int{origin.PrimaryKey(): 0}
	frontier := []string{origin.PrimaryKey()}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, fromKey := range frontier {
			for _, edge := range m.edgesFrom[fromKey] {
				if useFilter {
					if _, ok := filter[edge.source]; !ok {
						continue
					}
				}
				accumulated := sourcesFor[fromKey].Union(vocab.NewDataSourceSet(edge.source))
				if existing, ok := sourcesFor[edge.toKey]; ok {
					sourcesFor[edge.toKey] = existing.Union(accumulated)
				} else {
					sourcesFor[edge.toKey] = accumulated
				}
				if _, seen := minDepth[edge.toKey]; !seen {
					minDepth[edge.toKey] = d + 1
					next = append(next, edge.toKey)
				}
			}
		}
		frontier = next
	}

	results := make([]NeighborResult, 0, len(minDepth))
	for key, d := range minDepth {
		if key == origin.PrimaryKey() || d == 0 {
			continue
		}
		v, ok := m.identities[key]
		if !ok {
			continue
		}
		results = append(results, NeighborResult{Identity: v, Sources: sourcesFor[key]})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Identity.PrimaryKey() < results[j].Identity.PrimaryKey()
	})
	return results, nil
}

func (m *MemStore) NeighborsWithTraversal(_ context.Context, origin graphmodel.Identity, depth int, sourceFilter []vocab.DataSource) ([]TraversalEdge, error) {
	if depth > defaultDepthCap {
		depth = defaultDepthCap
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := vocab.NewDataSourceSet(sourceFilter...)
	useFilter := len(sourceFilter) > 0

	var out []TraversalEdge
	visited := map[string]struct{}{origin.PrimaryKey(): {}}
	frontier := []string{origin.PrimaryKey()}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, fromKey := range frontier {
			for _, edge := range m.edgesFrom[fromKey] {
				if useFilter {
					if _, ok := filter[edge.source]; !ok {
						continue
					}
				}
				// copies, so callers never hold the store's own edge structs
				switch edge.kind {
				case "Proof":
					p := *edge.proof
					out = append(out, TraversalEdge{Kind: "Proof", Proof: &p})
				case "Hold":
					h := *edge.hold
					out = append(out, TraversalEdge{Kind: "Hold", Hold: &h})
				case "Resolve":
					r := *edge.resolve
					out = append(out, TraversalEdge{Kind: "Resolve", Resolve: &r})
				}
				if _, ok := visited[edge.toKey]; !ok {
					visited[edge.toKey] = struct{}{}
					next = append(next, edge.toKey)
				}
			}
		}
		frontier = next
	}
	return out, nil
}

// mergeTimePtr applies MergePolicy to *time.Time attributes where a nil
// pointer means "unknown" rather than "zero value".
func mergeTimePtr(policy MergePolicy, existing, newValue *time.Time) *time.Time {
	if existing == nil {
		return newValue
	}
	if policy == IgnoreIfExists {
		return existing
	}
	return newValue
}

func mergeStringPtr(policy MergePolicy, existing, newValue *string) *string {
	if existing == nil {
		return newValue
	}
	if policy == IgnoreIfExists {
		return existing
	}
	return newValue
}

func minTime(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if a.Before(b) {
		return a
	}
	return b
}
