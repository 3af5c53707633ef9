// Package neo4jbackend implements graphstore.Backend directly against a
// Neo4j driver, as an alternative to httpbackend for operators who run
// their own graph database instead of a managed endpoint.
package neo4jbackend

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/vocab"
)

// Backend is a graphstore.Backend implementation over a direct Neo4j
// connection. Unlike httpbackend it talks the Bolt protocol, not the HTTP
// envelope, so it is the choice for operators running their own Neo4j
// instance rather than a managed endpoint.
type Backend struct {
	driver   neo4j.DriverWithContext
	database string
}

// New creates a Backend, verifying connectivity before returning.
func New(ctx context.Context, uri, username, password, database string) (*Backend, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, relerrors.Internal("create neo4j driver: %v", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, relerrors.StoreError(err, "neo4j connectivity check failed")
	}
	return &Backend{driver: driver, database: database}, nil
}

func (b *Backend) Close() error {
	return b.driver.Close(context.Background())
}

func (b *Backend) execute(ctx context.Context, query string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, b.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(b.database))
	if err != nil {
		return relerrors.StoreError(err, "neo4j query failed")
	}
	return nil
}

func (b *Backend) UpsertVertex(ctx context.Context, v any) error {
	switch vv := v.(type) {
	case graphmodel.Identity:
		query, params := identityMerge(newCypherBuilder(), vv)
		return b.execute(ctx, query, params)
	case graphmodel.Contract:
		query, params := contractMerge(newCypherBuilder(), vv)
		return b.execute(ctx, query, params)
	default:
		return relerrors.Internal("unsupported vertex type %T", v)
	}
}

func (b *Backend) CreateIsolatedVertex(ctx context.Context, v any) error {
	return b.UpsertVertex(ctx, v)
}

func (b *Backend) UpsertEdge(ctx context.Context, e any) error {
	switch ee := e.(type) {
	case graphmodel.Proof:
		query, params := proofMerge(newCypherBuilder(), ee)
		return b.execute(ctx, query, params)
	case graphmodel.Hold:
		query, params := holdMerge(newCypherBuilder(), ee)
		return b.execute(ctx, query, params)
	case graphmodel.Resolve:
		query, params := resolveMerge(newCypherBuilder(), ee)
		return b.execute(ctx, query, params)
	case graphmodel.HyperEdge:
		query, params := hyperEdgeMerge(newCypherBuilder(), ee)
		return b.execute(ctx, query, params)
	default:
		return relerrors.Internal("unsupported edge type %T", e)
	}
}

// BatchCommit applies a delta-list inside one Neo4j write transaction, so
// per-delta-list atomicity comes from the transaction boundary rather than
// from application-level rollback.
func (b *Backend) BatchCommit(ctx context.Context, d graphstore.Delta) error {
	if err := d.Validate(); err != nil {
		return relerrors.StoreError(err, "batch commit rejected")
	}

	session := b.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: b.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, v := range d.Identities {
			q, p := identityMerge(newCypherBuilder(), v)
			if _, err := tx.Run(ctx, q, p); err != nil {
				return nil, err
			}
		}
		for _, v := range d.Contracts {
			q, p := contractMerge(newCypherBuilder(), v)
			if _, err := tx.Run(ctx, q, p); err != nil {
				return nil, err
			}
		}
		for _, e := range d.Proofs {
			q, p := proofMerge(newCypherBuilder(), e)
			if _, err := tx.Run(ctx, q, p); err != nil {
				return nil, err
			}
		}
		for _, e := range d.Holds {
			q, p := holdMerge(newCypherBuilder(), e)
			if _, err := tx.Run(ctx, q, p); err != nil {
				return nil, err
			}
		}
		for _, e := range d.Resolves {
			q, p := resolveMerge(newCypherBuilder(), e)
			if _, err := tx.Run(ctx, q, p); err != nil {
				return nil, err
			}
		}
		for _, e := range d.HyperEdges {
			q, p := hyperEdgeMerge(newCypherBuilder(), e)
			if _, err := tx.Run(ctx, q, p); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return relerrors.StoreError(err, "batch commit transaction failed")
	}
	return nil
}

func (b *Backend) FindVertex(ctx context.Context, platform vocab.Platform, identity string) (*graphmodel.Identity, error) {
	query := "MATCH (n:Identity {platform: $platform, identity: $identity}) RETURN n"
	result, err := neo4j.ExecuteQuery(ctx, b.driver, query, map[string]any{
		"platform": platform.String(),
		"identity": identity,
	}, neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(b.database))
	if err != nil {
		return nil, relerrors.StoreError(err, "find_vertex query failed")
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	node, ok := result.Records[0].Get("n")
	if !ok {
		return nil, nil
	}
	id := identityFromNode(node.(neo4j.Node))
	return &id, nil
}

// neighborsCypher walks up to depth hops. Other backends invoke an
// installed server-side query for this; here it is expressed inline as a
// variable-length Cypher MATCH since the driver has no separate
// installed-query mechanism.
func (b *Backend) neighborsCypher(ctx context.Context, origin graphmodel.Identity, depth int) ([]neo4j.Path, error) {
	query := fmt.Sprintf(
		`MATCH p = (o:Identity {platform: $platform, identity: $identity})-[*1..%d]->(n:Identity)
		 WHERE n <> o
		 RETURN p`, depth)
	result, err := neo4j.ExecuteQuery(ctx, b.driver, query, map[string]any{
		"platform": origin.Platform.String(),
		"identity": origin.IdentityKey,
	}, neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(b.database))
	if err != nil {
		return nil, relerrors.StoreError(err, "neighbors query failed")
	}
	paths := make([]neo4j.Path, 0, len(result.Records))
	for _, rec := range result.Records {
		if p, ok := rec.Get("p"); ok {
			paths = append(paths, p.(neo4j.Path))
		}
	}
	return paths, nil
}

func (b *Backend) Neighbors(ctx context.Context, origin graphmodel.Identity, depth int, sourceFilter []vocab.DataSource) ([]graphstore.NeighborResult, error) {
	paths, err := b.neighborsCypher(ctx, origin, depth)
	if err != nil {
		return nil, err
	}
	filter := vocab.NewDataSourceSet(sourceFilter...)
	useFilter := len(sourceFilter) > 0

	sourcesFor := make(map[string]vocab.DataSourceSet)
	nodesByKey := make(map[string]neo4j.Node)
	for _, path := range paths {
		accumulated := vocab.NewDataSourceSet()
		ok := true
		for _, rel := range path.Relationships {
			src := vocab.ParseDataSource(fmt.Sprintf("%v", rel.Props["source"]))
			if _, admitted := filter[src]; useFilter && !admitted {
				ok = false
				break
			}
			accumulated = accumulated.Union(vocab.NewDataSourceSet(src))
		}
		if useFilter && !ok {
			continue
		}
		last := path.Nodes[len(path.Nodes)-1]
		key := fmt.Sprintf("%v", last.Props["platform"]) + "," + fmt.Sprintf("%v", last.Props["identity"])
		nodesByKey[key] = last
		if existing, ok := sourcesFor[key]; ok {
			sourcesFor[key] = existing.Union(accumulated)
		} else {
			sourcesFor[key] = accumulated
		}
	}

	results := make([]graphstore.NeighborResult, 0, len(nodesByKey))
	for key, node := range nodesByKey {
		results = append(results, graphstore.NeighborResult{Identity: identityFromNode(node), Sources: sourcesFor[key]})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Identity.PrimaryKey() < results[j].Identity.PrimaryKey()
	})
	return results, nil
}

func (b *Backend) NeighborsWithTraversal(ctx context.Context, origin graphmodel.Identity, depth int, sourceFilter []vocab.DataSource) ([]graphstore.TraversalEdge, error) {
	paths, err := b.neighborsCypher(ctx, origin, depth)
	if err != nil {
		return nil, err
	}
	filter := vocab.NewDataSourceSet(sourceFilter...)
	useFilter := len(sourceFilter) > 0

	seen := map[int64]bool{}
	var out []graphstore.TraversalEdge
	for _, path := range paths {
		for _, rel := range path.Relationships {
			if seen[rel.Id] {
				continue
			}
			if useFilter {
				src := vocab.ParseDataSource(fmt.Sprintf("%v", rel.Props["source"]))
				if _, admitted := filter[src]; !admitted {
					continue
				}
			}
			seen[rel.Id] = true
			out = append(out, edgeFromRelationship(rel))
		}
	}
	return out, nil
}

func edgeFromRelationship(rel neo4j.Relationship) graphstore.TraversalEdge {
	switch rel.Type {
	case "PROOF":
		return graphstore.TraversalEdge{Kind: "Proof"}
	case "RESOLVE":
		return graphstore.TraversalEdge{Kind: "Resolve"}
	default:
		return graphstore.TraversalEdge{Kind: "Hold"}
	}
}

func identityFromNode(node neo4j.Node) graphmodel.Identity {
	return graphmodel.Identity{
		Platform:    vocab.ParsePlatform(fmt.Sprintf("%v", node.Props["platform"])),
		IdentityKey: fmt.Sprintf("%v", node.Props["identity"]),
	}
}
