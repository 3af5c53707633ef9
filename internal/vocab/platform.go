// Package vocab holds the canonical closed-vocabulary enums the rest of the
// system maps every upstream schema into: Platform, Chain, DataSource,
// ContractCategory, and the Target sum type.
package vocab

import "strings"

// Platform is the namespace an identity string is interpreted in.
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformTwitter
	PlatformGitHub
	PlatformEthereum
	PlatformSolana
	PlatformFarcaster
	PlatformLens
	PlatformENS
	PlatformSNS
	PlatformGNS
	PlatformDotbit
	PlatformKeybase
)

var platformNames = map[Platform]string{
	PlatformUnknown:   "unknown",
	PlatformTwitter:   "twitter",
	PlatformGitHub:    "github",
	PlatformEthereum:  "ethereum",
	PlatformSolana:    "solana",
	PlatformFarcaster: "farcaster",
	PlatformLens:      "lens",
	PlatformENS:       "ens",
	PlatformSNS:       "sns",
	PlatformGNS:       "gns",
	PlatformDotbit:    "dotbit",
	PlatformKeybase:   "keybase",
}

var platformByName = reverse(platformNames)

// String returns the canonical lower-case wire form.
func (p Platform) String() string {
	if s, ok := platformNames[p]; ok {
		return s
	}
	return "unknown"
}

// ParsePlatform is lenient: unknown input becomes PlatformUnknown, never an error.
func ParsePlatform(s string) Platform {
	if p, ok := platformByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p
	}
	return PlatformUnknown
}

// AllPlatforms lists every non-Unknown variant, for admin/iteration endpoints.
func AllPlatforms() []Platform {
	out := make([]Platform, 0, len(platformNames))
	for p := range platformNames {
		if p != PlatformUnknown {
			out = append(out, p)
		}
	}
	return out
}

// IsAddressLike reports whether identities on this platform are normalized
// to lower-case at the key boundary (blockchain-style addresses), as opposed
// to name-service identities which preserve case but compare case-insensitively.
func (p Platform) IsAddressLike() bool {
	switch p {
	case PlatformEthereum, PlatformSolana:
		return true
	default:
		return false
	}
}

func reverse(m map[Platform]string) map[string]Platform {
	out := make(map[string]Platform, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
