package traversal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSeenStore(t *testing.T) *BoltSeenStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seen.db")
	s, err := OpenBoltSeenStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMarkSeenReturnsTrueOnlyOnce(t *testing.T) {
	s := newTestSeenStore(t)

	isNew, err := s.MarkSeen("q1", "farcaster,alice")
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = s.MarkSeen("q1", "farcaster,alice")
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestMarkSeenIsScopedPerQuery(t *testing.T) {
	s := newTestSeenStore(t)

	_, err := s.MarkSeen("q1", "farcaster,alice")
	require.NoError(t, err)

	isNew, err := s.MarkSeen("q2", "farcaster,alice")
	require.NoError(t, err)
	assert.True(t, isNew, "the same key under a different queryID should not be considered seen")
}

func TestClearRemovesOnlyThatQuerysKeys(t *testing.T) {
	s := newTestSeenStore(t)

	_, err := s.MarkSeen("q1", "farcaster,alice")
	require.NoError(t, err)
	_, err = s.MarkSeen("q2", "farcaster,alice")
	require.NoError(t, err)

	require.NoError(t, s.Clear("q1"))

	isNew, err := s.MarkSeen("q1", "farcaster,alice")
	require.NoError(t, err)
	assert.True(t, isNew, "q1's key should have been cleared")

	isNew, err = s.MarkSeen("q2", "farcaster,alice")
	require.NoError(t, err)
	assert.False(t, isNew, "q2's key should be unaffected by clearing q1")
}
