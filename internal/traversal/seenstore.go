package traversal

import (
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/relationgraph/core/internal/relerrors"
)

var seenBucket = []byte("seen")

// SeenSetStore optionally backs one top-level query's seen-set with durable
// storage, so a traversal that outlives a process restart (a very deep or
// slow expansion) does not re-walk targets it had already dequeued. The
// seen-set stays per-query, not global — this is an opt-in durability layer
// for that per-query state, not a second global cache.
// The default (zero value) Driver behavior is the plain in-memory
// map; a BoltSeenStore is used only when one is attached with
// Driver.WithSeenSetStore.
type SeenSetStore interface {
	// MarkSeen returns true if key was newly recorded (i.e. not already
	// seen), mirroring the in-memory map's `if _, ok := seen[key]; !ok`
	// check-and-set.
	MarkSeen(queryID, key string) (bool, error)
	// Clear drops every key recorded for queryID, called once a top-level
	// traversal finishes so the durable store doesn't grow unbounded.
	Clear(queryID string) error
	Close() error
}

// BoltSeenStore persists seen-set membership in a bbolt file, keyed by
// "<queryID>/<target key>". An embedded store fits here because the
// seen-set is purely local, single-process state with no reason to pay a
// network round trip.
type BoltSeenStore struct {
	db *bolt.DB
}

func OpenBoltSeenStore(path string) (*BoltSeenStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, relerrors.Internal("open bbolt seen-set store at %s: %v", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, relerrors.Internal("create seen bucket: %v", err)
	}
	return &BoltSeenStore{db: db}, nil
}

func (s *BoltSeenStore) Close() error { return s.db.Close() }

func (s *BoltSeenStore) MarkSeen(queryID, key string) (bool, error) {
	fullKey := []byte(queryID + "/" + key)
	isNew := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		if b.Get(fullKey) != nil {
			return nil
		}
		isNew = true
		return b.Put(fullKey, []byte{1})
	})
	if err != nil {
		return false, relerrors.Internal("mark seen in bbolt: %v", err)
	}
	return isNew, nil
}

func (s *BoltSeenStore) Clear(queryID string) error {
	prefix := []byte(queryID + "/")
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		c := b.Cursor()
		var toDelete [][]byte
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			toDelete = append(toDelete, append([]byte(nil), k...))
		}
		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
