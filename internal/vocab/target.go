package vocab

import (
	"fmt"
	"regexp"
	"strings"
)

// ethAddressPattern is the canonical shape every Ethereum-typed input must match.
var ethAddressPattern = regexp.MustCompile(`^0[xX][0-9a-fA-F]{40}$`)

// IsValidEthAddress reports whether s matches the canonical Ethereum address shape.
func IsValidEthAddress(s string) bool {
	return ethAddressPattern.MatchString(s)
}

// TargetKind distinguishes the two Target variants.
type TargetKind int

const (
	TargetKindIdentity TargetKind = iota
	TargetKindNFT
)

// Target is the unit of work in the traversal: either an Identity or an
// NFT, modeled as a small tagged struct.
type Target struct {
	Kind TargetKind

	// Identity fields (Kind == TargetKindIdentity)
	Platform Platform
	Identity string

	// NFT fields (Kind == TargetKindNFT)
	Chain           Chain
	Category        ContractCategory
	ContractAddress string
	TokenID         string
}

// NewIdentityTarget builds an Identity target, canonicalizing the identity
// string: address-like platforms are lower-cased at construction,
// name-service identities keep their case.
func NewIdentityTarget(platform Platform, identity string) Target {
	if platform.IsAddressLike() {
		identity = strings.ToLower(identity)
	}
	return Target{Kind: TargetKindIdentity, Platform: platform, Identity: identity}
}

// NewNFTTarget builds an NFT target, lower-casing the contract address.
func NewNFTTarget(chain Chain, category ContractCategory, contractAddress, tokenID string) Target {
	return Target{
		Kind:            TargetKindNFT,
		Chain:           chain,
		Category:        category,
		ContractAddress: strings.ToLower(contractAddress),
		TokenID:         tokenID,
	}
}

// CanonicalKey returns the string the traversal driver's seen-set dedups on.
// Targets differing only by case on an address-like identity produce the
// same key, so the driver processes exactly one of them.
func (t Target) CanonicalKey() string {
	switch t.Kind {
	case TargetKindIdentity:
		// name-service identities preserve case in storage but compare
		// case-insensitively, so the dedup key lower-cases everything
		return fmt.Sprintf("identity:%s:%s", t.Platform, strings.ToLower(t.Identity))
	case TargetKindNFT:
		return fmt.Sprintf("nft:%s:%s:%s:%s", t.Chain, t.Category, strings.ToLower(t.ContractAddress), t.TokenID)
	default:
		return "invalid-target"
	}
}

func (t Target) String() string {
	switch t.Kind {
	case TargetKindIdentity:
		return fmt.Sprintf("Identity(%s, %s)", t.Platform, t.Identity)
	case TargetKindNFT:
		return fmt.Sprintf("NFT(%s, %s, %s, %s)", t.Chain, t.Category, t.ContractAddress, t.TokenID)
	default:
		return "InvalidTarget"
	}
}

// InPlatformSupported reports whether an Identity target's platform is one
// of the given platforms. NFT targets always return false; callers that
// need chain/category capability checks use InChainCategorySupported.
func (t Target) InPlatformSupported(platforms ...Platform) bool {
	if t.Kind != TargetKindIdentity {
		return false
	}
	for _, p := range platforms {
		if t.Platform == p {
			return true
		}
	}
	return false
}

// ChainCategoryPair is a (chain, category) capability pair for NFT fetchers.
type ChainCategoryPair struct {
	Chain    Chain
	Category ContractCategory
}

// InChainCategorySupported reports whether an NFT target's (chain, category)
// pair is one of the supported pairs.
func (t Target) InChainCategorySupported(pairs ...ChainCategoryPair) bool {
	if t.Kind != TargetKindNFT {
		return false
	}
	for _, pair := range pairs {
		if t.Chain == pair.Chain && t.Category == pair.Category {
			return true
		}
	}
	return false
}
