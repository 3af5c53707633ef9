package vocab

import "strings"

// Chain is an on-chain network used for contract-held assets. Unknown chains
// cause the record to be dropped by the caller rather than stored, since
// Chain participates in the Contract vertex's primary key.
type Chain int

const (
	ChainUnknown Chain = iota
	ChainEthereum
	ChainPolygon
	ChainGnosis
	ChainSolana
	ChainBNB
	ChainArbitrum
	ChainOptimism
)

var chainNames = map[Chain]string{
	ChainUnknown:  "unknown",
	ChainEthereum: "ethereum",
	ChainPolygon:  "polygon",
	ChainGnosis:   "gnosis",
	ChainSolana:   "solana",
	ChainBNB:      "bnb",
	ChainArbitrum: "arbitrum",
	ChainOptimism: "optimism",
}

var chainByName = reverseChain(chainNames)

func (c Chain) String() string {
	if s, ok := chainNames[c]; ok {
		return s
	}
	return "unknown"
}

// ParseChain is lenient: any unrecognized string maps to ChainUnknown.
func ParseChain(s string) Chain {
	if c, ok := chainByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return ChainUnknown
}

func AllChains() []Chain {
	out := make([]Chain, 0, len(chainNames))
	for c := range chainNames {
		if c != ChainUnknown {
			out = append(out, c)
		}
	}
	return out
}

func reverseChain(m map[Chain]string) map[string]Chain {
	out := make(map[string]Chain, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
