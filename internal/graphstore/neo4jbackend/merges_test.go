package neo4jbackend

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationgraph/core/internal/graphmodel"
	"github.com/relationgraph/core/internal/vocab"
)

func TestIdentityMergeNeverInterpolatesValues(t *testing.T) {
	now := time.Now().UTC()
	display := `alice"); MATCH (n) DETACH DELETE n; //`
	v := graphmodel.Identity{
		UUID:        uuid.New(),
		Platform:    vocab.PlatformFarcaster,
		IdentityKey: "alice",
		DisplayName: &display,
		AddedAt:     now,
		UpdatedAt:   now,
	}

	query, params := identityMerge(newCypherBuilder(), v)

	assert.NotContains(t, query, display, "caller values must only travel as parameters")
	found := false
	for _, p := range params {
		if p == display {
			found = true
		}
	}
	assert.True(t, found, "display name should be bound as a parameter")
	assert.Contains(t, query, "MERGE (n:Identity")
	assert.Contains(t, query, "ON CREATE SET")
}

func TestIdentityMergeUpdatedAtTakesMax(t *testing.T) {
	v := graphmodel.Identity{UUID: uuid.New(), Platform: vocab.PlatformTwitter, IdentityKey: "bob", UpdatedAt: time.Now()}
	query, _ := identityMerge(newCypherBuilder(), v)
	assert.Contains(t, query, "CASE WHEN", "updated_at merge must compare against the stored value")
	assert.Contains(t, query, "ELSE n.updated_at END")
}

func TestHoldMergeDiscriminatesByTokenID(t *testing.T) {
	now := time.Now().UTC()
	from := graphmodel.Identity{Platform: vocab.PlatformEthereum, IdentityKey: "0xabc"}
	contract := graphmodel.Contract{Chain: vocab.ChainEthereum, Address: "0xdef"}
	e := graphmodel.Hold{
		UUID:       uuid.New(),
		Kind:       graphmodel.HoldKindIdentityContract,
		From:       from,
		ToContract: &contract,
		TokenID:    "42",
		Source:     vocab.DataSourceRSS3,
		UpdatedAt:  now,
	}

	query, params := holdMerge(newCypherBuilder(), e)

	require.Contains(t, query, "MERGE (f)-[r:HOLD {source: ")
	assert.Contains(t, query, "token_id: ", "token id is part of the merge key, one Hold per (source, wallet, contract, token)")
	tokenBound := false
	for _, p := range params {
		if p == "42" {
			tokenBound = true
		}
	}
	assert.True(t, tokenBound)
}

func TestProofMergeKeyExcludesTokenID(t *testing.T) {
	now := time.Now().UTC()
	e := graphmodel.Proof{
		UUID:      uuid.New(),
		From:      graphmodel.Identity{Platform: vocab.PlatformKeybase, IdentityKey: "kb"},
		To:        graphmodel.Identity{Platform: vocab.PlatformTwitter, IdentityKey: "tw"},
		Source:    vocab.DataSourceKeybase,
		CreatedAt: now,
		UpdatedAt: now,
	}
	query, _ := proofMerge(newCypherBuilder(), e)
	require.Contains(t, query, "MERGE (f)-[r:PROOF {source: ")
	assert.False(t, strings.Contains(query, "token_id"), "proof edges are keyed by (source, from, to) alone")
}
