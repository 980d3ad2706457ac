// Package room implements the per-room aggregate (state, membership,
// locks, timeline) and the registry that indexes rooms by code.
package room

import (
	"sync"
	"time"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/ids"
)

// Conn abstracts a single member's transport connection. Implemented by
// the relay's websocket wrapper; tests use an in-memory fake.
type Conn interface {
	Send(frame []byte) error
	Close() error
	IsOpen() bool
}

type seat struct {
	conn   Conn
	member *domain.Member
}

// Room is one collaboration session, guarded by a single mutex. Every
// room-mutating method runs with that lock held; none of them perform
// I/O, so the lock is never held across a transport write. Methods that
// need to notify other members return the (Conn, payload) pairs (or a
// snapshot) for the caller to send once the lock is released.
type Room struct {
	mu sync.Mutex

	Code           string
	CreatedAt      int64
	CreatedBy      string
	password       *string
	passwordHash   string
	IsPublic       bool
	ExpiresInHours int
	LastActivity   int64

	seats        map[string]*seat
	locks        map[string]*domain.Lock
	recentChanges []*domain.FileChange
	timeline      []*domain.TimelineEvent
	timelineSeq   int64
	typingTimers  map[string]*time.Timer
	Webhook       *domain.WebhookConfig
}

// New creates an empty room. password, if non-empty, is hashed
// immediately; only the hash is ever persisted to disk.
func New(code, createdBy string, password string, isPublic bool, expiresInHours int, now int64) *Room {
	r := &Room{
		Code:           code,
		CreatedAt:      now,
		CreatedBy:      createdBy,
		IsPublic:       isPublic,
		ExpiresInHours: expiresInHours,
		LastActivity:   now,
		seats:          make(map[string]*seat),
		locks:          make(map[string]*domain.Lock),
		typingTimers:   make(map[string]*time.Timer),
	}
	if password != "" {
		r.password = &password
		r.passwordHash = ids.SHA256Hex(password)
	}
	return r
}

func (r *Room) touch(now int64) { r.LastActivity = now }

func (r *Room) nextTimelineID() int64 {
	r.timelineSeq++
	return r.timelineSeq
}

func (r *Room) appendTimeline(now int64, typ domain.TimelineType, actor, detail string) {
	ev := &domain.TimelineEvent{ID: r.nextTimelineID(), Ts: now, Type: typ, Actor: actor, Detail: detail}
	r.timeline = append(r.timeline, ev)
	if len(r.timeline) > domain.MaxTimelineEvents {
		r.timeline = r.timeline[len(r.timeline)-domain.MaxTimelineEvents:]
	}
}

// HasPassword reports whether the room requires a password to join.
// True both for a freshly created room (plaintext held in memory) and
// a room recovered from persistence (only the hash survives).
func (r *Room) HasPassword() bool { return r.password != nil || r.passwordHash != "" }

// CheckPassword reports whether attempt matches the room's password.
// A passwordless room accepts any attempt (including empty). A room
// recovered from persistence never has the plaintext password (only
// its hash survives a restart), so the comparison falls back to
// SHA256Hex(attempt) == passwordHash in that case.
func (r *Room) CheckPassword(attempt string) bool {
	if r.password != nil {
		return *r.password == attempt
	}
	if r.passwordHash != "" {
		return ids.SHA256Hex(attempt) == r.passwordHash
	}
	return true
}

// PasswordHash returns the SHA-256 hex of the room password, or "" if none.
func (r *Room) PasswordHash() string { return r.passwordHash }

// MemberCount returns the number of currently seated members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seats)
}

// IsEmpty reports whether the room currently has no seated members.
func (r *Room) IsEmpty() bool { return r.MemberCount() == 0 }

// IsExpired reports whether the room has exceeded its configured TTL.
func (r *Room) IsExpired(now int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ExpiresInHours <= 0 {
		return false
	}
	ttl := int64(r.ExpiresInHours) * 3600 * 1000
	return now-r.LastActivity > ttl
}

// AddMember seats a new member. Returns a human-readable reason on
// failure (room full, or device-id already seated).
func (r *Room) AddMember(deviceID, name string, conn Conn, branch *string, now int64) (err string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seats[deviceID]; ok {
		return "device already joined"
	}
	if len(r.seats) >= domain.MaxRoomMembers {
		return "room is full"
	}

	r.seats[deviceID] = &seat{
		conn: conn,
		member: &domain.Member{
			DeviceID:  deviceID,
			Name:      name,
			Status:    domain.StatusActive,
			WorkingOn: []string{},
			JoinedAt:  now,
			LastSeen:  now,
			Branch:    branch,
		},
	}
	r.touch(now)
	r.appendTimeline(now, domain.EventJoin, name, name+" joined")
	return ""
}

// RemoveMember releases a seat and everything it held. Returns the
// removed member's snapshot, or nil if the device wasn't seated.
func (r *Room) RemoveMember(deviceID string, now int64) *domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeMemberLocked(deviceID, now)
}

func (r *Room) removeMemberLocked(deviceID string, now int64) *domain.Member {
	s, ok := r.seats[deviceID]
	if !ok {
		return nil
	}

	if t, ok := r.typingTimers[deviceID]; ok {
		t.Stop()
		delete(r.typingTimers, deviceID)
	}
	for path, lock := range r.locks {
		if lock.DeviceID == deviceID {
			delete(r.locks, path)
		}
	}
	delete(r.seats, deviceID)
	r.touch(now)
	r.appendTimeline(now, domain.EventLeave, s.member.Name, s.member.Name+" left")
	return s.member.Clone()
}

// UpdateHeartbeat refreshes lastSeen/status/branch for a member. If
// branch changed, returns true (caller should check divergence and
// broadcast branch_warning).
func (r *Room) UpdateHeartbeat(deviceID, status string, branch *string, now int64) (branchChanged bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.seats[deviceID]
	if !ok {
		return false
	}
	s.member.LastSeen = now
	if status != "" {
		s.member.Status = domain.MemberStatus(status)
	}
	if branch != nil {
		prev := s.member.Branch
		if prev == nil || *prev != *branch {
			branchChanged = true
		}
		s.member.Branch = branch
	}
	return branchChanged
}

// SetTyping records that deviceID is typing in file (nil clears it).
// The auto-clear timer fires after TypingTimeout and only clears the
// field if it still equals file, so a later SetTyping call for a
// different file isn't clobbered by a stale timer.
func (r *Room) SetTyping(deviceID string, file *string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.seats[deviceID]
	if !ok {
		return
	}

	if t, ok := r.typingTimers[deviceID]; ok {
		t.Stop()
		delete(r.typingTimers, deviceID)
	}

	s.member.TypingIn = file
	if file == nil {
		return
	}

	target := *file
	r.typingTimers[deviceID] = time.AfterFunc(domain.TypingTimeout, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if s2, ok := r.seats[deviceID]; ok && s2.member.TypingIn != nil && *s2.member.TypingIn == target {
			s2.member.TypingIn = nil
		}
	})
}

// UpdateCursor last-writer-wins updates a member's cursor.
func (r *Room) UpdateCursor(deviceID string, cursor *domain.Cursor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.seats[deviceID]; ok {
		s.member.Cursor = cursor
	}
}

// LockResult is the outcome of a lock/unlock attempt.
type LockResult struct {
	Success  bool
	Error    string
	LockedBy string
}

// LockFile attempts to acquire an advisory lock on file for deviceID.
func (r *Room) LockFile(deviceID, name, file string, now int64) LockResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.locks[file]; ok {
		if existing.DeviceID == deviceID {
			return LockResult{Success: true}
		}
		return LockResult{Success: false, Error: "file is locked by another device", LockedBy: existing.LockedBy}
	}
	if len(r.locks) >= domain.MaxLocksPerRoom {
		return LockResult{Success: false, Error: "too many locks held in this room"}
	}

	r.locks[file] = &domain.Lock{File: file, LockedBy: name, DeviceID: deviceID, LockedAt: now}
	r.touch(now)
	r.appendTimeline(now, domain.EventLock, name, name+" locked "+file)
	return LockResult{Success: true}
}

// UnlockFile releases an advisory lock. Unlocking an already-unlocked
// file succeeds silently (idempotent).
func (r *Room) UnlockFile(deviceID, name, file string, now int64) LockResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.locks[file]
	if !ok {
		return LockResult{Success: true}
	}
	if existing.DeviceID != deviceID {
		return LockResult{Success: false, Error: "file is locked by another device", LockedBy: existing.LockedBy}
	}

	delete(r.locks, file)
	r.touch(now)
	r.appendTimeline(now, domain.EventUnlock, name, name+" unlocked "+file)
	return LockResult{Success: true}
}

// LockedBy reports who holds the lock on file, if anyone.
func (r *Room) LockedBy(file string) (deviceID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[file]; ok {
		return l.DeviceID, true
	}
	return "", false
}

// RecordFileChange appends change to the recent-changes ring and the
// timeline, then returns the display names of every other member
// currently declaring change.Path in their working set — the conflict
// set for this change.
func (r *Room) RecordFileChange(change *domain.FileChange, now int64) (conflicts []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recentChanges = append(r.recentChanges, change)
	if len(r.recentChanges) > domain.MaxRecentChanges {
		r.recentChanges = r.recentChanges[len(r.recentChanges)-domain.MaxRecentChanges:]
	}
	r.touch(now)
	r.appendTimeline(now, domain.EventFileChange, change.Author, change.Author+" changed "+change.Path)

	for id, s := range r.seats {
		if id == change.DeviceID {
			continue
		}
		for _, f := range s.member.WorkingOn {
			if f == change.Path {
				conflicts = append(conflicts, s.member.Name)
				break
			}
		}
	}
	return conflicts
}

// ConflictEntry names one file and the other members currently
// declaring it, returned by UpdateWorkingFiles.
type ConflictEntry struct {
	File    string
	Authors []string
}

// UpdateWorkingFiles replaces a member's declared working set and
// returns, for each declared file, the other members also working on
// it.
func (r *Room) UpdateWorkingFiles(deviceID, name string, files []string, now int64) []ConflictEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.seats[deviceID]
	if !ok {
		return nil
	}
	s.member.WorkingOn = append([]string(nil), files...)
	s.member.LastSeen = now

	var conflicts []ConflictEntry
	for _, f := range files {
		var authors []string
		for id, other := range r.seats {
			if id == deviceID {
				continue
			}
			for _, of := range other.member.WorkingOn {
				if of == f {
					authors = append(authors, other.member.Name)
					break
				}
			}
		}
		if len(authors) > 0 {
			conflicts = append(conflicts, ConflictEntry{File: f, Authors: authors})
		}
	}
	return conflicts
}

// CheckBranchDivergence reports whether more than one distinct non-nil
// branch is currently declared among seated members.
func (r *Room) CheckBranchDivergence() (diverged bool, message string, branches map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	branches = make(map[string]string)
	distinct := map[string]bool{}
	for _, s := range r.seats {
		if s.member.Branch == nil {
			continue
		}
		branches[s.member.Name] = *s.member.Branch
		distinct[*s.member.Branch] = true
	}
	if len(distinct) > 1 {
		return true, "members are working on different branches", branches
	}
	return false, "", branches
}

// FindDeadClients returns the device-ids of members whose lastSeen is
// older than now-timeout.
func (r *Room) FindDeadClients(now int64, timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now - timeout.Milliseconds()
	var dead []string
	for id, s := range r.seats {
		if s.member.LastSeen < cutoff {
			dead = append(dead, id)
		}
	}
	return dead
}

// ToRoomInfo returns a full snapshot, truncating recentChanges and
// timeline to their last 20 entries.
func (r *Room) ToRoomInfo() *domain.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make([]*domain.Member, 0, len(r.seats))
	for _, s := range r.seats {
		members = append(members, s.member.Clone())
	}
	locks := make([]*domain.Lock, 0, len(r.locks))
	for _, l := range r.locks {
		lc := *l
		locks = append(locks, &lc)
	}

	return &domain.RoomInfo{
		Code:           r.Code,
		CreatedAt:      r.CreatedAt,
		CreatedBy:      r.CreatedBy,
		HasPassword:    r.HasPassword(),
		IsPublic:       r.IsPublic,
		ExpiresInHours: r.ExpiresInHours,
		LastActivity:   r.LastActivity,
		Members:        members,
		Locks:          locks,
		RecentChanges:  lastN(r.recentChanges, 20),
		Timeline:       lastN(r.timeline, 20),
	}
}

// ToRoomSummary returns the lightweight list_rooms projection.
func (r *Room) ToRoomSummary() *domain.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.RoomSummary{
		Code:        r.Code,
		CreatedBy:   r.CreatedBy,
		MemberCount: len(r.seats),
		HasPassword: r.HasPassword(),
		IsPublic:    r.IsPublic,
		CreatedAt:   r.CreatedAt,
	}
}

// ToSnapshot returns the persisted-at-rest projection (no membership).
func (r *Room) ToSnapshot() *domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var hash *string
	if r.passwordHash != "" {
		h := r.passwordHash
		hash = &h
	}
	return &domain.RoomSnapshot{
		Code:           r.Code,
		CreatedAt:      r.CreatedAt,
		CreatedBy:      r.CreatedBy,
		HasPassword:    r.HasPassword(),
		PasswordHash:   hash,
		IsPublic:       r.IsPublic,
		ExpiresInHours: r.ExpiresInHours,
		LastActivity:   r.LastActivity,
	}
}

// AppendChatTimeline appends a chat event to the timeline and returns
// its assigned id, used as the chat_received frame's id field.
func (r *Room) AppendChatTimeline(author, content string, now int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch(now)
	id := r.nextTimelineID()
	ev := &domain.TimelineEvent{ID: id, Ts: now, Type: domain.EventChat, Actor: author, Detail: content}
	r.timeline = append(r.timeline, ev)
	if len(r.timeline) > domain.MaxTimelineEvents {
		r.timeline = r.timeline[len(r.timeline)-domain.MaxTimelineEvents:]
	}
	return id
}

// SetWebhook assigns or clears the room's webhook target. An empty URL
// clears it.
func (r *Room) SetWebhook(url string, events []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if url == "" {
		r.Webhook = nil
		return
	}
	r.Webhook = &domain.WebhookConfig{URL: url, Events: events}
}

// SetVisibility assigns the room's discoverability flag.
func (r *Room) SetVisibility(isPublic bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IsPublic = isPublic
}

// Timeline returns the last limit events (default 50 when limit<=0).
func (r *Room) Timeline(limit int) []*domain.TimelineEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	return lastN(r.timeline, limit)
}

// Outbound is a pending send produced by a room method for the caller
// to deliver once the room lock has been released.
type Outbound struct {
	Conn  Conn
	Frame []byte
}

// SendTo builds one Outbound for deviceID's connection, or nil if the
// device isn't seated or has no open connection.
func (r *Room) SendTo(deviceID string, frame []byte) *Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seats[deviceID]
	if !ok || s.conn == nil || !s.conn.IsOpen() {
		return nil
	}
	return &Outbound{Conn: s.conn, Frame: frame}
}

// Broadcast builds one Outbound per seated member except excludeDeviceID,
// skipping closed or missing connections.
func (r *Room) Broadcast(frame []byte, excludeDeviceID string) []Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Outbound, 0, len(r.seats))
	for id, s := range r.seats {
		if id == excludeDeviceID {
			continue
		}
		if s.conn == nil || !s.conn.IsOpen() {
			continue
		}
		out = append(out, Outbound{Conn: s.conn, Frame: frame})
	}
	return out
}

// Member returns a deep-copied snapshot of one seated member, or nil.
func (r *Room) Member(deviceID string) *domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seats[deviceID]
	if !ok {
		return nil
	}
	return s.member.Clone()
}

func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		out := make([]T, len(s))
		copy(out, s)
		return out
	}
	out := make([]T, n)
	copy(out, s[len(s)-n:])
	return out
}
