package ens

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

func TestFetchByNameCreatesResolveEdge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"domains":[{"name":"vitalik.eth","owner":{"id":"0xabc"},"resolvedAddress":{"id":"0xABCDEF0000000000000000000000000000000001"}}]}}`))
	}))
	defer srv.Close()

	f := New(httpclient.New(httpclient.Config{BaseURL: srv.URL}))
	delta, err := f.Fetch(context.Background(), vocab.NewIdentityTarget(vocab.PlatformENS, "vitalik.eth"))
	require.NoError(t, err)
	require.Len(t, delta.Resolves, 1)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", delta.Resolves[0].To.IdentityKey)
}

func TestFetchSkipsDomainsWithNoResolvedAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"domains":[{"name":"unresolved.eth","owner":{"id":"0xabc"},"resolvedAddress":{"id":""}}]}}`))
	}))
	defer srv.Close()

	f := New(httpclient.New(httpclient.Config{BaseURL: srv.URL}))
	delta, err := f.Fetch(context.Background(), vocab.NewIdentityTarget(vocab.PlatformENS, "unresolved.eth"))
	require.NoError(t, err)
	assert.Empty(t, delta.Resolves)
}
