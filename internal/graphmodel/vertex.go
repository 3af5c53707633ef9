// Package graphmodel defines the vertex and edge types that flow between
// the upstream adapters, the graph write layer, and the graph read layer.
package graphmodel

import (
	"time"

	"github.com/google/uuid"

	"github.com/relationgraph/core/internal/vocab"
)

// Identity is the (platform, identity) vertex. PrimaryKey returns the
// compound key used by the graph store, built from IdentityKey as stored
// (no case folding is applied there).
type Identity struct {
	UUID        uuid.UUID
	Platform    vocab.Platform
	IdentityKey string // username / address / name, as stored (case per vocab.NewIdentityTarget)

	DisplayName *string
	ProfileURL  *string
	AvatarURL   *string
	CreatedAt   *time.Time // upstream-native creation time, if known
	AddedAt     time.Time  // first insertion, set once
	UpdatedAt   time.Time  // last refresh, monotonic
	UID         *string    // platform-native primary key (e.g. Farcaster fid)
	ExpiredAt   *time.Time
	Reverse     *bool // for name-services: is this the reverse record of its owner?
}

// PrimaryKey returns the (platform, identity) key this vertex merges on.
func (i Identity) PrimaryKey() string {
	return i.Platform.String() + "," + i.IdentityKey
}

// Contract is the (chain, address) vertex for on-chain contracts.
type Contract struct {
	UUID      uuid.UUID
	Chain     vocab.Chain
	Address   string // lower-cased
	Category  vocab.ContractCategory
	Symbol    *string
	UpdatedAt time.Time
}

func (c Contract) PrimaryKey() string {
	return c.Chain.String() + "," + c.Address
}
