package graphmodel

import (
	"time"

	"github.com/google/uuid"

	"github.com/relationgraph/core/internal/vocab"
)

// ProofLevel distinguishes a strong cryptographic binding from a weaker
// social-assertion binding, when the source distinguishes the two.
type ProofLevel int

const (
	ProofLevelUnknown ProofLevel = iota
	ProofLevelStrong
	ProofLevelWeak
)

// Proof is an Identity -> Identity edge asserting a cryptographic or social
// link. At most one Proof edge exists per (source, from, to) triple.
type Proof struct {
	UUID      uuid.UUID
	From      Identity
	To        Identity
	Source    vocab.DataSource
	Level     ProofLevel
	RecordID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Fetcher   string // which component wrote it
}

// HoldKind distinguishes the two Hold edge flavors.
type HoldKind int

const (
	HoldKindIdentityContract HoldKind = iota // NFT ownership
	HoldKindIdentityIdentity                 // e.g. farcaster <-> ethereum signer
)

// Hold is an ownership edge: Identity->Contract (NFT ownership) or
// Identity->Identity (a social identity "held" by a wallet). The token ID
// is the discriminator for NFT Holds, giving one Hold per
// (source, wallet, contract, token); it is empty for Identity-Identity Holds.
type Hold struct {
	UUID             uuid.UUID
	Kind             HoldKind
	From             Identity
	ToContract       *Contract
	ToIdentity       *Identity
	TokenID          string
	TransactionHash  *string
	Source           vocab.DataSource
	CreatedAt        *time.Time
	UpdatedAt        time.Time
	ExpiredAt        *time.Time
	Fetcher          string
}

// Resolve is a name-service Identity -> Identity edge: "name resolves to
// address", with a reverse flag for the inverse direction.
type Resolve struct {
	UUID      uuid.UUID
	From      Identity
	To        Identity
	Reverse   bool
	Source    vocab.DataSource
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClusterID is the synthetic "cluster" vertex id a HyperEdge attaches
// identities to, letting the read side enumerate an actor's full identity
// set without a BFS. Adapters choose the id themselves (rss3 uses the
// wallet address, githubsocial the GitHub login) along with the identities
// that attach to it.
type ClusterID string

// HyperEdge is a IdentitiesGraph -> Identity grouping edge.
type HyperEdge struct {
	UUID      uuid.UUID
	Cluster   ClusterID
	To        Identity
	UpdatedAt time.Time
}
