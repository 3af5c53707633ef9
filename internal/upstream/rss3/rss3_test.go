package rss3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationgraph/core/internal/httpclient"
	"github.com/relationgraph/core/internal/vocab"
)

func newTestFetcher(t *testing.T, pages []string) *Fetcher {
	t.Helper()
	i := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i >= len(pages) {
			w.Write([]byte(`{"total":0,"result":[]}`))
			return
		}
		w.Write([]byte(pages[i]))
		i++
	}))
	t.Cleanup(srv.Close)
	return New(httpclient.New(httpclient.Config{BaseURL: srv.URL}))
}

const address = "0xabcdef0000000000000000000000000000000001"

func TestFetchExcludesBurnsAndENSSymbol(t *testing.T) {
	f := newTestFetcher(t, []string{
		`{"total":2,"cursor":null,"result":[
			{"timestamp":"","hash":"h1","owner":"` + address + `","network":"ethereum","tag":"collectible","type":"burn","actions":[
				{"tag":"collectible","type":"burn","hash":"h1","metadata":{"id":"1","symbol":"BAYC","standard":"ERC-721","contract_address":"0x1111111111111111111111111111111111111111"}}
			]},
			{"timestamp":"","hash":"h2","owner":"` + address + `","network":"ethereum","tag":"collectible","type":"mint","actions":[
				{"tag":"collectible","type":"mint","hash":"h2","metadata":{"id":"2","symbol":"ENS","standard":"ERC-721","contract_address":"0x2222222222222222222222222222222222222222"}}
			]}
		]}`,
	})

	delta, err := f.Fetch(context.Background(), vocab.NewIdentityTarget(vocab.PlatformEthereum, address))
	require.NoError(t, err)
	assert.Empty(t, delta.Holds)
}

func TestFetchRecordsGenuineMintAsHold(t *testing.T) {
	f := newTestFetcher(t, []string{
		`{"total":1,"cursor":null,"result":[
			{"timestamp":"","hash":"h3","owner":"` + address + `","network":"ethereum","tag":"collectible","type":"mint","actions":[
				{"tag":"collectible","type":"mint","hash":"h3","metadata":{"id":"9","symbol":"BAYC","standard":"ERC-721","contract_address":"0x3333333333333333333333333333333333333333"}}
			]}
		]}`,
	})

	delta, err := f.Fetch(context.Background(), vocab.NewIdentityTarget(vocab.PlatformEthereum, address))
	require.NoError(t, err)
	require.Len(t, delta.Holds, 1)
	assert.Equal(t, vocab.ContractCategoryERC721, delta.Contracts[0].Category)
}

func TestFetchPaginatesUntilCursorNilOrUnderPageLimit(t *testing.T) {
	f := newTestFetcher(t, []string{
		`{"total":500,"cursor":"next1","result":[]}`,
		`{"total":1,"cursor":null,"result":[]}`,
	})
	_, err := f.Fetch(context.Background(), vocab.NewIdentityTarget(vocab.PlatformEthereum, address))
	require.NoError(t, err)
}

func TestFetchDropsUnknownChain(t *testing.T) {
	f := newTestFetcher(t, []string{
		`{"total":1,"cursor":null,"result":[
			{"timestamp":"","hash":"h4","owner":"` + address + `","network":"somethingweird","tag":"collectible","type":"mint","actions":[
				{"tag":"collectible","type":"mint","hash":"h4","metadata":{"id":"9","symbol":"BAYC","standard":"ERC-721","contract_address":"0x4444444444444444444444444444444444444444"}}
			]}
		]}`,
	})
	delta, err := f.Fetch(context.Background(), vocab.NewIdentityTarget(vocab.PlatformEthereum, address))
	require.NoError(t, err)
	assert.Empty(t, delta.Holds)
}
