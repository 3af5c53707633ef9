package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformParseFormatRoundTrip(t *testing.T) {
	for _, p := range AllPlatforms() {
		got := ParsePlatform(p.String())
		assert.Equal(t, p, got, "round trip for %s", p)
	}
}

func TestPlatformParseLenientUnknown(t *testing.T) {
	assert.Equal(t, PlatformUnknown, ParsePlatform("not-a-real-platform"))
	assert.Equal(t, PlatformUnknown, ParsePlatform(""))
}

func TestPlatformParseCaseInsensitive(t *testing.T) {
	assert.Equal(t, PlatformEthereum, ParsePlatform("ETHEREUM"))
	assert.Equal(t, PlatformEthereum, ParsePlatform("Ethereum"))
}

func TestChainParseFormatRoundTrip(t *testing.T) {
	for _, c := range AllChains() {
		require.Equal(t, c, ParseChain(c.String()))
	}
}

func TestChainUnknownIsExplicit(t *testing.T) {
	assert.Equal(t, ChainUnknown, ParseChain("doesnotexist"))
}

func TestContractCategoryDefaults(t *testing.T) {
	assert.Equal(t, ChainEthereum, ContractCategoryENS.DefaultChain())
	assert.NotEmpty(t, ContractCategoryENS.DefaultContractAddress())
	assert.Equal(t, ChainUnknown, ContractCategoryUnknown.DefaultChain())
	assert.Empty(t, ContractCategoryERC721.DefaultContractAddress())
}

func TestTargetCanonicalKeyDedupsCase(t *testing.T) {
	a := NewIdentityTarget(PlatformEthereum, "0xABCDEF0000000000000000000000000000000001")
	b := NewIdentityTarget(PlatformEthereum, "0xabcdef0000000000000000000000000000000001")
	assert.Equal(t, a.CanonicalKey(), b.CanonicalKey())
}

func TestIsValidEthAddress(t *testing.T) {
	assert.True(t, IsValidEthAddress("0xABCDEF0000000000000000000000000000000001"))
	assert.False(t, IsValidEthAddress("notanaddress"))
	assert.False(t, IsValidEthAddress("0x123"))
}

func TestDataSourceSetUnion(t *testing.T) {
	a := NewDataSourceSet(DataSourceKeybase)
	b := NewDataSourceSet(DataSourceSybilList)
	u := a.Union(b)
	assert.Len(t, u, 2)
	_, hasKeybase := u[DataSourceKeybase]
	_, hasSybil := u[DataSourceSybilList]
	assert.True(t, hasKeybase)
	assert.True(t, hasSybil)
}
