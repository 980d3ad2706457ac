package domain

// RoomInfo is the full snapshot returned to a client (room_status,
// sync_request, request_status). recentChanges and timeline are
// truncated to their last 20 entries regardless of the room's
// internal ring capacity.
type RoomInfo struct {
	Code            string          `json:"code"`
	CreatedAt       int64           `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
	HasPassword     bool            `json:"hasPassword"`
	IsPublic        bool            `json:"isPublic"`
	ExpiresInHours  int             `json:"expiresInHours"`
	LastActivity    int64           `json:"lastActivity"`
	Members         []*Member       `json:"members"`
	Locks           []*Lock         `json:"locks"`
	RecentChanges   []*FileChange   `json:"recentChanges"`
	Timeline        []*TimelineEvent `json:"timeline"`
}

// RoomSummary is the lightweight projection used by list_rooms.
type RoomSummary struct {
	Code        string `json:"code"`
	CreatedBy   string `json:"createdBy"`
	MemberCount int    `json:"memberCount"`
	HasPassword bool   `json:"hasPassword"`
	IsPublic    bool   `json:"isPublic"`
	CreatedAt   int64  `json:"createdAt"`
}

// RoomSnapshot is the persisted-at-rest shape written to disk (or to
// the optional Postgres backend) every 60s. Membership is never
// persisted; only room metadata survives a restart.
type RoomSnapshot struct {
	Code           string  `json:"code"`
	CreatedAt      int64   `json:"createdAt"`
	CreatedBy      string  `json:"createdBy"`
	HasPassword    bool    `json:"hasPassword"`
	PasswordHash   *string `json:"passwordHash"`
	IsPublic       bool    `json:"isPublic"`
	ExpiresInHours int     `json:"expiresInHours"`
	LastActivity   int64   `json:"lastActivity"`
}
