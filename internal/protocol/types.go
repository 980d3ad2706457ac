// Package protocol defines the typed envelope wire format exchanged
// between agents and the relay: the closed sets of message types,
// their Go shapes, and the codec that flattens each typed payload into
// a single JSON object per frame.
package protocol

// Client -> server message types (closed set, spec §6).
const (
	TypeCreateRoom         = "create_room"
	TypeJoinRoom           = "join_room"
	TypeLeaveRoom          = "leave_room"
	TypeHeartbeat          = "heartbeat"
	TypeFileChange         = "file_change"
	TypeDeclareWorking     = "declare_working"
	TypeChatMessage        = "chat_message"
	TypeRequestStatus      = "request_status"
	TypeSyncRequest        = "sync_request"
	TypeDeclareTyping      = "declare_typing"
	TypeLockFile           = "lock_file"
	TypeUnlockFile         = "unlock_file"
	TypeUpdateCursor       = "update_cursor"
	TypeShareTerminal      = "share_terminal"
	TypeListRooms          = "list_rooms"
	TypeGetTimeline        = "get_timeline"
	TypeSetWebhook         = "set_webhook"
	TypeSetRoomVisibility  = "set_room_visibility"
)

// Server -> client message types (closed set, spec §6).
const (
	TypeRoomCreated      = "room_created"
	TypeRoomJoined       = "room_joined"
	TypeRoomLeft         = "room_left"
	TypeMemberJoined     = "member_joined"
	TypeMemberLeft       = "member_left"
	TypeMemberUpdated    = "member_updated"
	TypeFileChanged      = "file_changed"
	TypeChatReceived     = "chat_received"
	TypeRoomStatus       = "room_status"
	TypeConflictWarning  = "conflict_warning"
	TypeError            = "error"
	TypeHeartbeatAck     = "heartbeat_ack"
	TypeTypingIndicator  = "typing_indicator"
	TypeFileLocked       = "file_locked"
	TypeFileUnlocked     = "file_unlocked"
	TypeLockError        = "lock_error"
	TypeCursorUpdated    = "cursor_updated"
	TypeTerminalShared   = "terminal_shared"
	TypeRoomList         = "room_list"
	TypeTimeline         = "timeline"
	TypeBranchWarning    = "branch_warning"
)

// ClientTypes is the closed set of frame types the relay accepts.
var ClientTypes = map[string]bool{
	TypeCreateRoom:        true,
	TypeJoinRoom:          true,
	TypeLeaveRoom:         true,
	TypeHeartbeat:         true,
	TypeFileChange:        true,
	TypeDeclareWorking:    true,
	TypeChatMessage:       true,
	TypeRequestStatus:     true,
	TypeSyncRequest:       true,
	TypeDeclareTyping:     true,
	TypeLockFile:          true,
	TypeUnlockFile:        true,
	TypeUpdateCursor:      true,
	TypeShareTerminal:     true,
	TypeListRooms:         true,
	TypeGetTimeline:       true,
	TypeSetWebhook:        true,
	TypeSetRoomVisibility: true,
}

// ServerTypes is the closed set of frame types the relay emits.
var ServerTypes = map[string]bool{
	TypeRoomCreated:     true,
	TypeRoomJoined:      true,
	TypeRoomLeft:        true,
	TypeMemberJoined:    true,
	TypeMemberLeft:      true,
	TypeMemberUpdated:   true,
	TypeFileChanged:     true,
	TypeChatReceived:    true,
	TypeRoomStatus:      true,
	TypeConflictWarning: true,
	TypeError:           true,
	TypeHeartbeatAck:    true,
	TypeTypingIndicator: true,
	TypeFileLocked:      true,
	TypeFileUnlocked:    true,
	TypeLockError:       true,
	TypeCursorUpdated:   true,
	TypeTerminalShared:  true,
	TypeRoomList:        true,
	TypeTimeline:        true,
	TypeBranchWarning:   true,
}

// Transport close codes (spec §4.A). Defined for completeness; the
// present handlers prefer in-band error frames over closing the socket.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	CloseRoomClosed      = 4000
	CloseInvalidMessage  = 4001
	CloseRoomNotFound    = 4002
	CloseDuplicateDevice = 4003
)
