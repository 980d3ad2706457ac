package protocol

import (
	"testing"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

// roundTrip encodes v, decodes the envelope header, re-unmarshals into
// a fresh instance of the same concrete type, and asserts equality —
// pinning spec §8 property 4 for every entry in the closed type sets.
func roundTrip[T any](t *testing.T, typ string, v T, fresh func() T) {
	t.Helper()

	data, err := Encode(v)
	require.NoError(t, err)

	env, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, typ, env.Type)

	out := fresh()
	require.NoError(t, env.Unmarshal(&out))
	assert.Equal(t, v, out)
}

func TestRoundTripClientMessages(t *testing.T) {
	roundTrip(t, TypeCreateRoom, CreateRoomMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeCreateRoom, Timestamp: 1}, DeviceID: "dev1"},
		Name:         "Zeus", Password: "secret123", IsPublic: true, ExpiresInHours: 24, Branch: "main",
	}, func() CreateRoomMsg { return CreateRoomMsg{} })

	roundTrip(t, TypeJoinRoom, JoinRoomMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeJoinRoom, Timestamp: 2}, DeviceID: "dev2"},
		Code:         "HIVE-ABCDEF", Name: "Alice", Password: "secret123", Branch: "feature",
	}, func() JoinRoomMsg { return JoinRoomMsg{} })

	roundTrip(t, TypeLeaveRoom, LeaveRoomMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeLeaveRoom, Timestamp: 3}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF",
	}, func() LeaveRoomMsg { return LeaveRoomMsg{} })

	roundTrip(t, TypeHeartbeat, HeartbeatMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeHeartbeat, Timestamp: 4}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", Status: "active", Branch: "main",
	}, func() HeartbeatMsg { return HeartbeatMsg{} })

	roundTrip(t, TypeFileChange, FileChangeMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeFileChange, Timestamp: 5}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", Path: "src/a.ts", ChangeType: string(domain.ChangeUpdate),
		Diff: strp("@@ -1 +1 @@\n-old\n+new\n"), LinesAdded: 1, LinesRemoved: 1,
	}, func() FileChangeMsg { return FileChangeMsg{} })

	roundTrip(t, TypeDeclareWorking, DeclareWorkingMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeDeclareWorking, Timestamp: 6}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", Files: []string{"a.ts", "b.ts"},
	}, func() DeclareWorkingMsg { return DeclareWorkingMsg{} })

	roundTrip(t, TypeChatMessage, ChatMessageMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeChatMessage, Timestamp: 7}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", Content: "hello room",
	}, func() ChatMessageMsg { return ChatMessageMsg{} })

	roundTrip(t, TypeRequestStatus, RequestStatusMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeRequestStatus, Timestamp: 8}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF",
	}, func() RequestStatusMsg { return RequestStatusMsg{} })

	roundTrip(t, TypeSyncRequest, SyncRequestMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeSyncRequest, Timestamp: 9}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF",
	}, func() SyncRequestMsg { return SyncRequestMsg{} })

	roundTrip(t, TypeDeclareTyping, DeclareTypingMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeDeclareTyping, Timestamp: 10}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", File: strp("a.ts"),
	}, func() DeclareTypingMsg { return DeclareTypingMsg{} })

	roundTrip(t, TypeLockFile, LockFileMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeLockFile, Timestamp: 11}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", File: "src/config.ts",
	}, func() LockFileMsg { return LockFileMsg{} })

	roundTrip(t, TypeUnlockFile, UnlockFileMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeUnlockFile, Timestamp: 12}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", File: "src/config.ts",
	}, func() UnlockFileMsg { return UnlockFileMsg{} })

	roundTrip(t, TypeUpdateCursor, UpdateCursorMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeUpdateCursor, Timestamp: 13}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", Cursor: &domain.Cursor{File: "a.ts", Line: 3, Column: 1},
	}, func() UpdateCursorMsg { return UpdateCursorMsg{} })

	roundTrip(t, TypeShareTerminal, ShareTerminalMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeShareTerminal, Timestamp: 14}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", Output: "$ go test ./...\nok",
	}, func() ShareTerminalMsg { return ShareTerminalMsg{} })

	roundTrip(t, TypeListRooms, ListRoomsMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeListRooms, Timestamp: 15}, DeviceID: "dev1"},
	}, func() ListRoomsMsg { return ListRoomsMsg{} })

	roundTrip(t, TypeGetTimeline, GetTimelineMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeGetTimeline, Timestamp: 16}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", Limit: 50,
	}, func() GetTimelineMsg { return GetTimelineMsg{} })

	roundTrip(t, TypeSetWebhook, SetWebhookMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeSetWebhook, Timestamp: 17}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", URL: "https://example.com/hook", Events: []string{"all"},
	}, func() SetWebhookMsg { return SetWebhookMsg{} })

	roundTrip(t, TypeSetRoomVisibility, SetRoomVisibilityMsg{
		ClientHeader: ClientHeader{Header: Header{Type: TypeSetRoomVisibility, Timestamp: 18}, DeviceID: "dev1"},
		Code:         "HIVE-ABCDEF", IsPublic: false,
	}, func() SetRoomVisibilityMsg { return SetRoomVisibilityMsg{} })
}

func TestRoundTripServerMessages(t *testing.T) {
	roundTrip(t, TypeRoomCreated, RoomCreatedMsg{
		Header: Header{Type: TypeRoomCreated, Timestamp: 1}, Code: "HIVE-ABCDEF",
		InviteURL: "codehive://127.0.0.1:4819/join/HIVE-ABCDEF",
		Room:      &domain.RoomInfo{Code: "HIVE-ABCDEF", CreatedBy: "Zeus"},
	}, func() RoomCreatedMsg { return RoomCreatedMsg{} })

	roundTrip(t, TypeRoomJoined, RoomJoinedMsg{
		Header: Header{Type: TypeRoomJoined, Timestamp: 2}, Code: "HIVE-ABCDEF", DeviceID: "dev2",
		Room: &domain.RoomInfo{Code: "HIVE-ABCDEF"},
	}, func() RoomJoinedMsg { return RoomJoinedMsg{} })

	roundTrip(t, TypeRoomLeft, RoomLeftMsg{
		Header: Header{Type: TypeRoomLeft, Timestamp: 3}, Code: "HIVE-ABCDEF",
	}, func() RoomLeftMsg { return RoomLeftMsg{} })

	roundTrip(t, TypeMemberJoined, MemberJoinedMsg{
		Header: Header{Type: TypeMemberJoined, Timestamp: 4}, Code: "HIVE-ABCDEF",
		Member: &domain.Member{DeviceID: "dev2", Name: "Alice", Status: domain.StatusActive},
	}, func() MemberJoinedMsg { return MemberJoinedMsg{} })

	roundTrip(t, TypeMemberLeft, MemberLeftMsg{
		Header: Header{Type: TypeMemberLeft, Timestamp: 5}, Code: "HIVE-ABCDEF", DeviceID: "dev2", Name: "Alice",
	}, func() MemberLeftMsg { return MemberLeftMsg{} })

	roundTrip(t, TypeMemberUpdated, MemberUpdatedMsg{
		Header: Header{Type: TypeMemberUpdated, Timestamp: 6}, Code: "HIVE-ABCDEF",
		Member: &domain.Member{DeviceID: "dev2", Name: "Alice"},
	}, func() MemberUpdatedMsg { return MemberUpdatedMsg{} })

	roundTrip(t, TypeFileChanged, FileChangedMsg{
		Header: Header{Type: TypeFileChanged, Timestamp: 7}, Code: "HIVE-ABCDEF",
		Change: &domain.FileChange{Path: "a.ts", Type: domain.ChangeAdd, Author: "Alice", DeviceID: "dev2"},
	}, func() FileChangedMsg { return FileChangedMsg{} })

	roundTrip(t, TypeChatReceived, ChatReceivedMsg{
		Header: Header{Type: TypeChatReceived, Timestamp: 8}, Code: "HIVE-ABCDEF",
		ID: 1, DeviceID: "dev2", Author: "Alice", Content: "hi",
	}, func() ChatReceivedMsg { return ChatReceivedMsg{} })

	roundTrip(t, TypeRoomStatus, RoomStatusMsg{
		Header: Header{Type: TypeRoomStatus, Timestamp: 9},
		Room:   &domain.RoomInfo{Code: "HIVE-ABCDEF"},
	}, func() RoomStatusMsg { return RoomStatusMsg{} })

	roundTrip(t, TypeConflictWarning, ConflictWarningMsg{
		Header: Header{Type: TypeConflictWarning, Timestamp: 10}, Code: "HIVE-ABCDEF",
		File: "same.ts", Authors: []string{"Zeus", "Alice"},
	}, func() ConflictWarningMsg { return ConflictWarningMsg{} })

	roundTrip(t, TypeError, ErrorMsg{
		Header: Header{Type: TypeError, Timestamp: 11}, Message: "Wrong password",
	}, func() ErrorMsg { return ErrorMsg{} })

	roundTrip(t, TypeHeartbeatAck, HeartbeatAckMsg{
		Header: Header{Type: TypeHeartbeatAck, Timestamp: 12}, Code: "HIVE-ABCDEF",
	}, func() HeartbeatAckMsg { return HeartbeatAckMsg{} })

	roundTrip(t, TypeTypingIndicator, TypingIndicatorMsg{
		Header: Header{Type: TypeTypingIndicator, Timestamp: 13}, Code: "HIVE-ABCDEF",
		DeviceID: "dev2", Name: "Alice", File: strp("a.ts"),
	}, func() TypingIndicatorMsg { return TypingIndicatorMsg{} })

	roundTrip(t, TypeFileLocked, FileLockedMsg{
		Header: Header{Type: TypeFileLocked, Timestamp: 14}, Code: "HIVE-ABCDEF",
		File: "config.ts", LockedBy: "Zeus", DeviceID: "dev1",
	}, func() FileLockedMsg { return FileLockedMsg{} })

	roundTrip(t, TypeFileUnlocked, FileUnlockedMsg{
		Header: Header{Type: TypeFileUnlocked, Timestamp: 15}, Code: "HIVE-ABCDEF", File: "config.ts",
	}, func() FileUnlockedMsg { return FileUnlockedMsg{} })

	roundTrip(t, TypeLockError, LockErrorMsg{
		Header: Header{Type: TypeLockError, Timestamp: 16}, Code: "HIVE-ABCDEF",
		File: "config.ts", Error: "file is locked by another device", LockedBy: strp("Zeus"),
	}, func() LockErrorMsg { return LockErrorMsg{} })

	roundTrip(t, TypeCursorUpdated, CursorUpdatedMsg{
		Header: Header{Type: TypeCursorUpdated, Timestamp: 17}, Code: "HIVE-ABCDEF",
		DeviceID: "dev2", Name: "Alice", Cursor: &domain.Cursor{File: "a.ts", Line: 1, Column: 1},
	}, func() CursorUpdatedMsg { return CursorUpdatedMsg{} })

	roundTrip(t, TypeTerminalShared, TerminalSharedMsg{
		Header: Header{Type: TypeTerminalShared, Timestamp: 18}, Code: "HIVE-ABCDEF",
		DeviceID: "dev2", Name: "Alice", Output: "ok",
	}, func() TerminalSharedMsg { return TerminalSharedMsg{} })

	roundTrip(t, TypeRoomList, RoomListMsg{
		Header: Header{Type: TypeRoomList, Timestamp: 19},
		Rooms:  []domain.RoomSummary{{Code: "HIVE-ABCDEF", CreatedBy: "Zeus", IsPublic: true}},
	}, func() RoomListMsg { return RoomListMsg{} })

	roundTrip(t, TypeTimeline, TimelineMsg{
		Header: Header{Type: TypeTimeline, Timestamp: 20}, Code: "HIVE-ABCDEF",
		Events: []*domain.TimelineEvent{{ID: 1, Ts: 20, Type: domain.EventJoin, Actor: "Zeus"}},
	}, func() TimelineMsg { return TimelineMsg{} })

	roundTrip(t, TypeBranchWarning, BranchWarningMsg{
		Header: Header{Type: TypeBranchWarning, Timestamp: 21}, Code: "HIVE-ABCDEF",
		Message: "branches have diverged", Branches: map[string]string{"Zeus": "main", "Alice": "feature"},
	}, func() BranchWarningMsg { return BranchWarningMsg{} })
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidFrame)

	_, err = Decode([]byte(`[1,2,3]`))
	assert.ErrorIs(t, err, domain.ErrInvalidFrame)

	_, err = Decode([]byte(`{"timestamp":1}`))
	assert.ErrorIs(t, err, domain.ErrInvalidFrame)

	_, err = Decode([]byte(`{"type":123}`))
	assert.ErrorIs(t, err, domain.ErrInvalidFrame)

	_, err = Decode([]byte(`{"type":""}`))
	assert.ErrorIs(t, err, domain.ErrInvalidFrame)
}
