// Package postgres implements persistence.Persister against a pgx
// connection pool, for deployments that want room metadata to survive
// a relay restart on a different host.
package postgres

import (
	"context"
	"fmt"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Persister stores room snapshots in a `room_snapshots` table, one row
// per room code, upserted on every write cycle.
type Persister struct {
	db *pgxpool.Pool
}

// New returns a pool-backed Persister. The caller owns the pool's
// lifecycle (Close it on shutdown).
func New(db *pgxpool.Pool) *Persister { return &Persister{db: db} }

var _ persistence.Persister = (*Persister)(nil)

// Write upserts every snapshot and deletes any row not present in the
// given set, keeping the table in sync with the in-memory registry.
func (p *Persister) Write(ctx context.Context, snapshots []*domain.RoomSnapshot) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM room_snapshots`); err != nil {
		return fmt.Errorf("clear room_snapshots: %w", err)
	}

	for _, snap := range snapshots {
		_, err := tx.Exec(ctx, `
			INSERT INTO room_snapshots
				(code, created_at, created_by, has_password, password_hash, is_public, expires_in_hours, last_activity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			snap.Code, snap.CreatedAt, snap.CreatedBy, snap.HasPassword, snap.PasswordHash,
			snap.IsPublic, snap.ExpiresInHours, snap.LastActivity,
		)
		if err != nil {
			return fmt.Errorf("upsert room_snapshots: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Read loads every persisted room snapshot.
func (p *Persister) Read(ctx context.Context) ([]*domain.RoomSnapshot, error) {
	rows, err := p.db.Query(ctx, `
		SELECT code, created_at, created_by, has_password, password_hash, is_public, expires_in_hours, last_activity
		FROM room_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("query room_snapshots: %w", err)
	}
	defer rows.Close()

	var out []*domain.RoomSnapshot
	for rows.Next() {
		var snap domain.RoomSnapshot
		if err := rows.Scan(
			&snap.Code, &snap.CreatedAt, &snap.CreatedBy, &snap.HasPassword, &snap.PasswordHash,
			&snap.IsPublic, &snap.ExpiresInHours, &snap.LastActivity,
		); err != nil {
			return nil, fmt.Errorf("scan room_snapshots: %w", err)
		}
		out = append(out, &snap)
	}
	return out, rows.Err()
}

// Migration is the DDL for the table Write/Read expect. Applied by the
// operator out of band; not run automatically by the relay.
const Migration = `
CREATE TABLE IF NOT EXISTS room_snapshots (
	code             TEXT PRIMARY KEY,
	created_at       BIGINT NOT NULL,
	created_by       TEXT NOT NULL,
	has_password     BOOLEAN NOT NULL,
	password_hash    TEXT,
	is_public        BOOLEAN NOT NULL,
	expires_in_hours INTEGER NOT NULL,
	last_activity    BIGINT NOT NULL
);
`
