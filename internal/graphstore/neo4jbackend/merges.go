package neo4jbackend

import (
	"fmt"

	"github.com/relationgraph/core/internal/graphmodel"
)

// identityMerge builds the MERGE for an Identity vertex. updated_at takes
// the larger of the stored and supplied values via a CASE clause, keeping
// the Max merge policy without requiring the APOC plugin.
func identityMerge(b *cypherBuilder, v graphmodel.Identity) (string, map[string]any) {
	platform := b.param(v.Platform.String())
	identity := b.param(v.IdentityKey)
	uuidP := b.param(v.UUID.String())
	updatedAt := b.param(v.UpdatedAt)
	addedAt := b.param(v.AddedAt)

	query := fmt.Sprintf(`
MERGE (n:Identity {platform: %s, identity: %s})
ON CREATE SET n.uuid = %s, n.added_at = %s, n.updated_at = %s
ON MATCH SET n.updated_at = CASE WHEN %s > n.updated_at THEN %s ELSE n.updated_at END
`, platform, identity, uuidP, addedAt, updatedAt, updatedAt, updatedAt)

	if v.DisplayName != nil {
		query += fmt.Sprintf("SET n.display_name = %s\n", b.param(*v.DisplayName))
	}
	if v.ProfileURL != nil {
		query += fmt.Sprintf("SET n.profile_url = %s\n", b.param(*v.ProfileURL))
	}
	if v.AvatarURL != nil {
		query += fmt.Sprintf("SET n.avatar_url = %s\n", b.param(*v.AvatarURL))
	}
	if v.UID != nil {
		query += "SET n.uid = coalesce(n.uid, " + b.param(*v.UID) + ")\n"
	}
	if v.Reverse != nil {
		query += fmt.Sprintf("SET n.reverse = %s\n", b.param(*v.Reverse))
	}
	return query, b.getParams()
}

func contractMerge(b *cypherBuilder, v graphmodel.Contract) (string, map[string]any) {
	chain := b.param(v.Chain.String())
	address := b.param(v.Address)
	uuidP := b.param(v.UUID.String())
	category := b.param(v.Category.String())
	updatedAt := b.param(v.UpdatedAt)

	query := fmt.Sprintf(`
MERGE (n:Contract {chain: %s, address: %s})
ON CREATE SET n.uuid = %s, n.category = %s
ON MATCH SET n.updated_at = CASE WHEN %s > n.updated_at THEN %s ELSE n.updated_at END
`, chain, address, uuidP, category, updatedAt, updatedAt)
	if v.Symbol != nil {
		query += fmt.Sprintf("SET n.symbol = %s\n", b.param(*v.Symbol))
	}
	return query, b.getParams()
}

func proofMerge(b *cypherBuilder, e graphmodel.Proof) (string, map[string]any) {
	fromPlatform := b.param(e.From.Platform.String())
	fromIdentity := b.param(e.From.IdentityKey)
	toPlatform := b.param(e.To.Platform.String())
	toIdentity := b.param(e.To.IdentityKey)
	source := b.param(e.Source.String())
	uuidP := b.param(e.UUID.String())
	updatedAt := b.param(e.UpdatedAt)
	createdAt := b.param(e.CreatedAt)

	query := fmt.Sprintf(`
MATCH (f:Identity {platform: %s, identity: %s})
MATCH (t:Identity {platform: %s, identity: %s})
MERGE (f)-[r:PROOF {source: %s}]->(t)
ON CREATE SET r.uuid = %s, r.created_at = %s, r.updated_at = %s
ON MATCH SET r.updated_at = CASE WHEN %s > r.updated_at THEN %s ELSE r.updated_at END
`, fromPlatform, fromIdentity, toPlatform, toIdentity, source, uuidP, createdAt, updatedAt, updatedAt, updatedAt)
	return query, b.getParams()
}

func holdMerge(b *cypherBuilder, e graphmodel.Hold) (string, map[string]any) {
	fromPlatform := b.param(e.From.Platform.String())
	fromIdentity := b.param(e.From.IdentityKey)
	source := b.param(e.Source.String())
	token := b.param(e.TokenID)
	uuidP := b.param(e.UUID.String())
	updatedAt := b.param(e.UpdatedAt)

	var matchTo, mergeRel string
	switch e.Kind {
	case graphmodel.HoldKindIdentityContract:
		chain := b.param(e.ToContract.Chain.String())
		address := b.param(e.ToContract.Address)
		matchTo = fmt.Sprintf("MATCH (t:Contract {chain: %s, address: %s})", chain, address)
	default:
		toPlatform := b.param(e.ToIdentity.Platform.String())
		toIdentity := b.param(e.ToIdentity.IdentityKey)
		matchTo = fmt.Sprintf("MATCH (t:Identity {platform: %s, identity: %s})", toPlatform, toIdentity)
	}
	mergeRel = fmt.Sprintf("MERGE (f)-[r:HOLD {source: %s, token_id: %s}]->(t)", source, token)

	query := fmt.Sprintf(`
MATCH (f:Identity {platform: %s, identity: %s})
%s
%s
ON CREATE SET r.uuid = %s, r.updated_at = %s
ON MATCH SET r.updated_at = CASE WHEN %s > r.updated_at THEN %s ELSE r.updated_at END
`, fromPlatform, fromIdentity, matchTo, mergeRel, uuidP, updatedAt, updatedAt, updatedAt)
	return query, b.getParams()
}

func resolveMerge(b *cypherBuilder, e graphmodel.Resolve) (string, map[string]any) {
	fromPlatform := b.param(e.From.Platform.String())
	fromIdentity := b.param(e.From.IdentityKey)
	toPlatform := b.param(e.To.Platform.String())
	toIdentity := b.param(e.To.IdentityKey)
	source := b.param(e.Source.String())
	uuidP := b.param(e.UUID.String())
	reverse := b.param(e.Reverse)
	updatedAt := b.param(e.UpdatedAt)
	createdAt := b.param(e.CreatedAt)

	query := fmt.Sprintf(`
MATCH (f:Identity {platform: %s, identity: %s})
MATCH (t:Identity {platform: %s, identity: %s})
MERGE (f)-[r:RESOLVE {source: %s}]->(t)
ON CREATE SET r.uuid = %s, r.reverse = %s, r.created_at = %s, r.updated_at = %s
ON MATCH SET r.updated_at = CASE WHEN %s > r.updated_at THEN %s ELSE r.updated_at END
`, fromPlatform, fromIdentity, toPlatform, toIdentity, source, uuidP, reverse, createdAt, updatedAt, updatedAt, updatedAt)
	return query, b.getParams()
}

func hyperEdgeMerge(b *cypherBuilder, e graphmodel.HyperEdge) (string, map[string]any) {
	cluster := b.param(string(e.Cluster))
	toPlatform := b.param(e.To.Platform.String())
	toIdentity := b.param(e.To.IdentityKey)
	updatedAt := b.param(e.UpdatedAt)

	query := fmt.Sprintf(`
MERGE (c:IdentitiesGraph {cluster: %s})
MERGE (t:Identity {platform: %s, identity: %s})
MERGE (c)-[r:HYPER]->(t)
ON CREATE SET r.updated_at = %s
ON MATCH SET r.updated_at = CASE WHEN %s > r.updated_at THEN %s ELSE r.updated_at END
`, cluster, toPlatform, toIdentity, updatedAt, updatedAt, updatedAt)
	return query, b.getParams()
}
