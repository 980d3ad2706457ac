package protocol

import "github.com/codehive-dev/codehive/internal/domain"

// Header is common to every frame.
type Header struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// ClientHeader is common to every client->server frame.
type ClientHeader struct {
	Header
	DeviceID string `json:"deviceId"`
}

// --- client -> server payloads ---

type CreateRoomMsg struct {
	ClientHeader
	Name           string `json:"name"`
	Password       string `json:"password,omitempty"`
	IsPublic       bool   `json:"isPublic,omitempty"`
	ExpiresInHours int    `json:"expiresInHours,omitempty"`
	Branch         string `json:"branch,omitempty"`
}

type JoinRoomMsg struct {
	ClientHeader
	Code     string `json:"code"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	Branch   string `json:"branch,omitempty"`
}

type LeaveRoomMsg struct {
	ClientHeader
	Code string `json:"code"`
}

type HeartbeatMsg struct {
	ClientHeader
	Code   string `json:"code"`
	Status string `json:"status,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// ChangeType is named on the wire rather than "type" because the
// envelope discriminator already owns that key at the same nesting
// depth — a directly declared field always shadows one promoted from
// an embedded struct, so reusing "type" here would silently clobber
// the frame's own "file_change" discriminator on encode.
type FileChangeMsg struct {
	ClientHeader
	Code         string  `json:"code"`
	Path         string  `json:"path"`
	ChangeType   string  `json:"changeType"`
	Diff         *string `json:"diff,omitempty"`
	LinesAdded   int     `json:"linesAdded,omitempty"`
	LinesRemoved int     `json:"linesRemoved,omitempty"`
	SizeBefore   *int64  `json:"sizeBefore,omitempty"`
	SizeAfter    *int64  `json:"sizeAfter,omitempty"`
}

type DeclareWorkingMsg struct {
	ClientHeader
	Code  string   `json:"code"`
	Files []string `json:"files"`
}

type ChatMessageMsg struct {
	ClientHeader
	Code    string `json:"code"`
	Content string `json:"content"`
}

type RequestStatusMsg struct {
	ClientHeader
	Code string `json:"code"`
}

type SyncRequestMsg struct {
	ClientHeader
	Code string `json:"code"`
}

type DeclareTypingMsg struct {
	ClientHeader
	Code string  `json:"code"`
	File *string `json:"file,omitempty"`
}

type LockFileMsg struct {
	ClientHeader
	Code string `json:"code"`
	File string `json:"file"`
}

type UnlockFileMsg struct {
	ClientHeader
	Code string `json:"code"`
	File string `json:"file"`
}

type UpdateCursorMsg struct {
	ClientHeader
	Code   string         `json:"code"`
	Cursor *domain.Cursor `json:"cursor,omitempty"`
}

type ShareTerminalMsg struct {
	ClientHeader
	Code    string  `json:"code"`
	Output  string  `json:"output"`
	Command *string `json:"command,omitempty"`
}

type ListRoomsMsg struct {
	ClientHeader
}

type GetTimelineMsg struct {
	ClientHeader
	Code  string `json:"code"`
	Limit int    `json:"limit,omitempty"`
}

type SetWebhookMsg struct {
	ClientHeader
	Code   string   `json:"code"`
	URL    string   `json:"url,omitempty"`
	Events []string `json:"events,omitempty"`
}

type SetRoomVisibilityMsg struct {
	ClientHeader
	Code     string `json:"code"`
	IsPublic bool   `json:"isPublic"`
}

// --- server -> client payloads ---

type RoomCreatedMsg struct {
	Header
	Code      string           `json:"code"`
	InviteURL string           `json:"inviteUrl"`
	Room      *domain.RoomInfo `json:"room"`
}

type RoomJoinedMsg struct {
	Header
	Code     string           `json:"code"`
	DeviceID string           `json:"deviceId"`
	Room     *domain.RoomInfo `json:"room"`
}

type RoomLeftMsg struct {
	Header
	Code string `json:"code"`
}

type MemberJoinedMsg struct {
	Header
	Code   string         `json:"code"`
	Member *domain.Member `json:"member"`
}

type MemberLeftMsg struct {
	Header
	Code     string `json:"code"`
	DeviceID string `json:"deviceId"`
	Name     string `json:"name"`
}

type MemberUpdatedMsg struct {
	Header
	Code   string         `json:"code"`
	Member *domain.Member `json:"member"`
}

type FileChangedMsg struct {
	Header
	Code   string             `json:"code"`
	Change *domain.FileChange `json:"change"`
}

type ChatReceivedMsg struct {
	Header
	Code     string `json:"code"`
	ID       int64  `json:"id"`
	DeviceID string `json:"deviceId"`
	Author   string `json:"author"`
	Content  string `json:"content"`
}

type RoomStatusMsg struct {
	Header
	Room *domain.RoomInfo `json:"room"`
}

type ConflictWarningMsg struct {
	Header
	Code    string   `json:"code"`
	File    string   `json:"file"`
	Authors []string `json:"authors"`
}

type ErrorMsg struct {
	Header
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type HeartbeatAckMsg struct {
	Header
	Code string `json:"code"`
}

type TypingIndicatorMsg struct {
	Header
	Code     string  `json:"code"`
	DeviceID string  `json:"deviceId"`
	Name     string  `json:"name"`
	File     *string `json:"file,omitempty"`
}

type FileLockedMsg struct {
	Header
	Code     string `json:"code"`
	File     string `json:"file"`
	LockedBy string `json:"lockedBy"`
	DeviceID string `json:"deviceId"`
}

type FileUnlockedMsg struct {
	Header
	Code string `json:"code"`
	File string `json:"file"`
}

type LockErrorMsg struct {
	Header
	Code     string  `json:"code"`
	File     string  `json:"file"`
	Error    string  `json:"error"`
	LockedBy *string `json:"lockedBy,omitempty"`
}

type CursorUpdatedMsg struct {
	Header
	Code     string         `json:"code"`
	DeviceID string         `json:"deviceId"`
	Name     string         `json:"name"`
	Cursor   *domain.Cursor `json:"cursor,omitempty"`
}

type TerminalSharedMsg struct {
	Header
	Code     string  `json:"code"`
	DeviceID string  `json:"deviceId"`
	Name     string  `json:"name"`
	Output   string  `json:"output"`
	Command  *string `json:"command,omitempty"`
}

type RoomListMsg struct {
	Header
	Rooms []domain.RoomSummary `json:"rooms"`
}

type TimelineMsg struct {
	Header
	Code   string                   `json:"code"`
	Events []*domain.TimelineEvent `json:"events"`
}

type BranchWarningMsg struct {
	Header
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Branches map[string]string `json:"branches"`
}
