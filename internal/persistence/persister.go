// Package persistence defines the room-snapshot persistence contract
// shared by the file and Postgres backends.
package persistence

import (
	"context"

	"github.com/codehive-dev/codehive/internal/domain"
)

// Persister writes and reads back room metadata snapshots. Membership
// is never part of a snapshot; only code, visibility, expiry, and
// password hash survive a restart, per spec's best-effort durability.
type Persister interface {
	Write(ctx context.Context, snapshots []*domain.RoomSnapshot) error
	Read(ctx context.Context) ([]*domain.RoomSnapshot, error)
}
