package room

import (
	"sync"
	"time"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/ids"
)

// maxCodeAttempts bounds how many times CreateRoom retries a fresh
// code on collision before giving up.
const maxCodeAttempts = 50

// Registry indexes rooms by code, generalizing the teacher's
// connection hub from a set of connections per room to a set of rooms.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// CreateRoom generates a fresh unused code and registers a new room
// under it, retrying on collision up to maxCodeAttempts times.
func (reg *Registry) CreateRoom(createdBy, password string, isPublic bool, expiresInHours int, now int64) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := ids.GenerateRoomCode()
		if err != nil {
			return nil, err
		}
		if _, exists := reg.rooms[code]; exists {
			continue
		}
		r := New(code, createdBy, password, isPublic, expiresInHours, now)
		reg.rooms[code] = r
		return r, nil
	}
	return nil, domain.ErrRegistryExhausted
}

// RestoreRoom re-registers a room from a persisted snapshot. Used only
// at startup; membership is never restored.
func (reg *Registry) RestoreRoom(snap *domain.RoomSnapshot) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.rooms[snap.Code]; exists {
		return
	}
	r := &Room{
		Code:           snap.Code,
		CreatedAt:      snap.CreatedAt,
		CreatedBy:      snap.CreatedBy,
		IsPublic:       snap.IsPublic,
		ExpiresInHours: snap.ExpiresInHours,
		LastActivity:   snap.LastActivity,
		seats:          make(map[string]*seat),
		locks:          make(map[string]*domain.Lock),
		typingTimers:   make(map[string]*time.Timer),
	}
	if snap.PasswordHash != nil {
		// Plaintext is never persisted; Room.CheckPassword falls back
		// to hash comparison when r.password is nil.
		r.passwordHash = *snap.PasswordHash
	}
	reg.rooms[snap.Code] = r
}

// GetRoom returns the room for code, or nil.
func (reg *Registry) GetRoom(code string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[code]
}

// HasRoom reports whether code is currently registered.
func (reg *Registry) HasRoom(code string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.rooms[code]
	return ok
}

// DeleteRoom removes code from the registry.
func (reg *Registry) DeleteRoom(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// GetPublicRooms returns summaries for every non-empty public room.
func (reg *Registry) GetPublicRooms() []domain.RoomSummary {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	out := make([]domain.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		if !r.IsPublic || r.IsEmpty() {
			continue
		}
		out = append(out, *r.ToRoomSummary())
	}
	return out
}

// PruneEmptyRooms deletes every room with no seated members.
func (reg *Registry) PruneEmptyRooms() (pruned []string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for code, r := range reg.rooms {
		if r.IsEmpty() {
			delete(reg.rooms, code)
			pruned = append(pruned, code)
		}
	}
	return pruned
}

// PruneExpiredRooms deletes every room past its expiry TTL.
func (reg *Registry) PruneExpiredRooms(now int64) (pruned []string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for code, r := range reg.rooms {
		if r.IsExpired(now) {
			delete(reg.rooms, code)
			pruned = append(pruned, code)
		}
	}
	return pruned
}

// Snapshot returns one persisted-at-rest record per non-empty room,
// passwords replaced by their SHA-256 hash.
func (reg *Registry) Snapshot() []*domain.RoomSnapshot {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	out := make([]*domain.RoomSnapshot, 0, len(rooms))
	for _, r := range rooms {
		if r.IsEmpty() {
			continue
		}
		out = append(out, r.ToSnapshot())
	}
	return out
}

// AllRooms returns every registered room, for sweep goroutines.
func (reg *Registry) AllRooms() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r)
	}
	return out
}
