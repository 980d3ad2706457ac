package domain

import "time"

const (
	MaxRoomMembers    = 20
	MaxLocksPerRoom   = 50
	MaxRecentChanges  = 100
	MaxTimelineEvents = 200

	MaxNameLen         = 50
	MaxChatLen         = 10000
	MaxWorkingFiles    = 100
	MaxWorkingPathLen  = 500
	MaxTerminalOutput  = 50000

	TypingTimeout = 10 * time.Second

	HeartbeatInterval  = 15 * time.Second
	HeartbeatTimeout   = 45 * time.Second
	RoomExpiryCheckInt = 5 * time.Minute

	MaxInboundFrame = 1 << 20 // 1 MiB
)
