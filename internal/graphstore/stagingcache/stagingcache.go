// Package stagingcache is an optional write-behind staging layer in front
// of a graphstore.Backend: it persists each delta-list's raw JSON to a
// Postgres table before forwarding it to the real Backend, so a crash
// between "accepted the write" and "materialized in the graph store" loses
// nothing — the next startup can replay unmaterialized rows.
package stagingcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/relationgraph/core/internal/graphstore"
	"github.com/relationgraph/core/internal/relerrors"
)

// Cache wraps a graphstore.Backend with a staging table. BatchCommit writes
// the delta-list's JSON to `staged_deltas` in the same call before
// delegating to the wrapped Backend; on success the row is marked
// materialized, on failure it stays pending for a later ReplayPending call.
type Cache struct {
	graphstore.Backend
	db *sqlx.DB
}

// New connects to Postgres, runs the one-table migration if needed, and
// returns a Cache wrapping backend.
func New(ctx context.Context, dsn string, backend graphstore.Backend) (*Cache, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, relerrors.Internal("connect to staging postgres: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, relerrors.Internal("create staged_deltas table: %v", err)
	}

	return &Cache{Backend: backend, db: db}, nil
}

func (c *Cache) Close() error {
	_ = c.db.Close()
	return c.Backend.Close()
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS staged_deltas (
	id BIGSERIAL PRIMARY KEY,
	raw_delta JSONB NOT NULL,
	staged_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	materialized_at TIMESTAMPTZ
)`

// BatchCommit stages the delta-list's JSON first (a plain insert — each
// delta-list is its own row, so the table needs no natural key), then
// commits to the wrapped Backend, then marks the staged row materialized.
// A failure between stage and materialize leaves the row pending for
// ReplayPending.
func (c *Cache) BatchCommit(ctx context.Context, d graphstore.Delta) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return relerrors.Internal("marshal delta for staging: %v", err)
	}

	var id int64
	err = c.db.QueryRowContext(ctx,
		`INSERT INTO staged_deltas (raw_delta) VALUES ($1) RETURNING id`, raw).Scan(&id)
	if err != nil {
		return relerrors.Internal("stage delta: %v", err)
	}

	if err := c.Backend.BatchCommit(ctx, d); err != nil {
		return err
	}

	if _, err := c.db.ExecContext(ctx,
		`UPDATE staged_deltas SET materialized_at = NOW() WHERE id = $1`, id); err != nil {
		return relerrors.Internal("mark delta materialized: %v", err)
	}
	return nil
}

// ReplayPending re-applies every staged delta-list that was never marked
// materialized (crash recovery), in staging order.
func (c *Cache) ReplayPending(ctx context.Context) (int, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, raw_delta FROM staged_deltas WHERE materialized_at IS NULL ORDER BY id ASC`)
	if err != nil {
		return 0, relerrors.Internal("query pending staged deltas: %v", err)
	}
	defer rows.Close()

	type pending struct {
		id  int64
		raw []byte
	}
	var toReplay []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.raw); err != nil {
			return 0, relerrors.Internal("scan staged delta: %v", err)
		}
		toReplay = append(toReplay, p)
	}

	replayed := 0
	for _, p := range toReplay {
		var d graphstore.Delta
		if err := json.Unmarshal(p.raw, &d); err != nil {
			return replayed, relerrors.Internal("unmarshal staged delta %d: %v", p.id, err)
		}
		if err := c.Backend.BatchCommit(ctx, d); err != nil {
			return replayed, fmt.Errorf("replay staged delta %d: %w", p.id, err)
		}
		if _, err := c.db.ExecContext(ctx,
			`UPDATE staged_deltas SET materialized_at = NOW() WHERE id = $1`, p.id); err != nil {
			return replayed, relerrors.Internal("mark replayed delta materialized: %v", err)
		}
		replayed++
	}
	return replayed, nil
}
