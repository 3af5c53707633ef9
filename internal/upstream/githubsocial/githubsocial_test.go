package githubsocial

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relationgraph/core/internal/vocab"
)

func newTestFetcher(t *testing.T, body string) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	f := New("", 0)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	f.client.BaseURL = base
	return f
}

func TestFetchWithLinkedTwitterProducesProof(t *testing.T) {
	f := newTestFetcher(t, `{"login":"octocat","name":"Octo Cat","twitter_username":"octocat_tw","avatar_url":"","html_url":""}`)
	delta, err := f.Fetch(context.Background(), vocab.NewIdentityTarget(vocab.PlatformGitHub, "octocat"))
	require.NoError(t, err)
	require.Len(t, delta.Proofs, 1)
	assert.Equal(t, "octocat_tw", delta.Proofs[0].To.IdentityKey)
}

func TestFetchWithNoLinkedAccountProducesIsolatedVertex(t *testing.T) {
	f := newTestFetcher(t, `{"login":"loner","name":"","avatar_url":"","html_url":""}`)
	delta, err := f.Fetch(context.Background(), vocab.NewIdentityTarget(vocab.PlatformGitHub, "loner"))
	require.NoError(t, err)
	assert.Empty(t, delta.Proofs)
	require.Len(t, delta.Identities, 1)
}
