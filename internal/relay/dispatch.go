package relay

import (
	"context"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/protocol"
	"github.com/codehive-dev/codehive/internal/room"
)

// readReplyTypes owes the client an error frame when the room lookup
// fails, rather than dropping the frame silently (spec §4.D).
var readReplyTypes = map[string]bool{
	protocol.TypeRequestStatus:     true,
	protocol.TypeSyncRequest:       true,
	protocol.TypeGetTimeline:       true,
	protocol.TypeSetWebhook:        true,
	protocol.TypeSetRoomVisibility: true,
	protocol.TypeJoinRoom:          true,
}

func sendFrame(c *wsConn, v any) {
	frame, err := protocol.Encode(v)
	if err != nil {
		return
	}
	_ = c.Send(frame)
}

func (s *Server) sendError(c *wsConn, message string, code string) {
	sendFrame(c, protocol.ErrorMsg{
		Header:  protocol.Header{Type: protocol.TypeError, Timestamp: nowMillis()},
		Code:    code,
		Message: message,
	})
	if s.metrics != nil && code != "" {
		s.metrics.RecordError("dispatch", code)
	}
}

func (s *Server) dispatch(sess *session, c *wsConn, env *protocol.Envelope) {
	// create_room and list_rooms need no existing room; every other
	// type requires msg.code, looked up against the registry.
	switch env.Type {
	case protocol.TypeCreateRoom:
		s.handleCreateRoom(sess, c, env)
		return
	case protocol.TypeListRooms:
		s.handleListRoomsFrame(c)
		return
	}

	var code string
	if !peekCode(env, &code) {
		s.sendError(c, "Invalid message format", "")
		return
	}

	r := s.registry.GetRoom(code)
	if r == nil {
		if readReplyTypes[env.Type] {
			s.sendError(c, "room not found", "room_not_found")
		}
		return
	}

	switch env.Type {
	case protocol.TypeJoinRoom:
		s.handleJoinRoom(sess, c, r, env)
	case protocol.TypeLeaveRoom:
		s.handleLeaveRoom(sess, c, r)
	case protocol.TypeHeartbeat:
		s.handleHeartbeat(sess, c, r, env)
	case protocol.TypeFileChange:
		s.handleFileChange(sess, c, r, env)
	case protocol.TypeDeclareWorking:
		s.handleDeclareWorking(sess, c, r, env)
	case protocol.TypeChatMessage:
		s.handleChatMessage(sess, c, r, env)
	case protocol.TypeDeclareTyping:
		s.handleDeclareTyping(sess, c, r, env)
	case protocol.TypeLockFile:
		s.handleLockFile(sess, c, r, env)
	case protocol.TypeUnlockFile:
		s.handleUnlockFile(sess, c, r, env)
	case protocol.TypeUpdateCursor:
		s.handleUpdateCursor(sess, c, r, env)
	case protocol.TypeShareTerminal:
		s.handleShareTerminal(sess, c, r, env)
	case protocol.TypeGetTimeline:
		s.handleGetTimeline(c, r, env)
	case protocol.TypeSetWebhook:
		s.handleSetWebhook(r, env)
	case protocol.TypeSetRoomVisibility:
		s.handleSetRoomVisibility(r, env)
	case protocol.TypeRequestStatus, protocol.TypeSyncRequest:
		s.handleStatusRequest(c, r)
	}
}

// peekCode re-decodes just the "code" field common to almost every
// client frame, without needing a per-type struct at the dispatch
// layer.
func peekCode(env *protocol.Envelope, out *string) bool {
	var probe struct {
		Code string `json:"code"`
	}
	if err := env.Unmarshal(&probe); err != nil {
		return false
	}
	*out = probe.Code
	return true
}

func (s *Server) handleCreateRoom(sess *session, c *wsConn, env *protocol.Envelope) {
	var msg protocol.CreateRoomMsg
	if err := env.Unmarshal(&msg); err != nil {
		s.sendError(c, "Invalid message format", "")
		return
	}
	if len(msg.Name) < 1 || len(msg.Name) > domain.MaxNameLen {
		s.sendError(c, "name must be 1-50 characters", "invalid_arg")
		return
	}

	now := nowMillis()
	r, err := s.registry.CreateRoom(msg.Name, msg.Password, msg.IsPublic, msg.ExpiresInHours, now)
	if err != nil {
		s.sendError(c, "could not allocate a room code, try again", "registry_exhausted")
		return
	}

	var branch *string
	if msg.Branch != "" {
		branch = &msg.Branch
	}
	if errMsg := r.AddMember(msg.DeviceID, msg.Name, c, branch, now); errMsg != "" {
		s.registry.DeleteRoom(r.Code)
		s.sendError(c, errMsg, "invalid_arg")
		return
	}

	sess.deviceID = msg.DeviceID
	sess.roomCode = r.Code
	sess.name = msg.Name

	sendFrame(c, protocol.RoomCreatedMsg{
		Header:    protocol.Header{Type: protocol.TypeRoomCreated, Timestamp: now},
		Code:      r.Code,
		InviteURL: protocol.BuildInviteURI(s.cfg.PublicHost, s.cfg.PublicPort, r.Code, msg.Password),
		Room:      r.ToRoomInfo(),
	})
}

func (s *Server) handleJoinRoom(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.JoinRoomMsg
	if err := env.Unmarshal(&msg); err != nil {
		s.sendError(c, "Invalid message format", "")
		return
	}
	if len(msg.Name) < 1 || len(msg.Name) > domain.MaxNameLen {
		s.sendError(c, "name must be 1-50 characters", "invalid_arg")
		return
	}
	if !r.CheckPassword(msg.Password) {
		s.sendError(c, "wrong password", "wrong_password")
		return
	}

	now := nowMillis()
	var branch *string
	if msg.Branch != "" {
		branch = &msg.Branch
	}
	if errMsg := r.AddMember(msg.DeviceID, msg.Name, c, branch, now); errMsg != "" {
		s.sendError(c, errMsg, "invalid_arg")
		return
	}

	sess.deviceID = msg.DeviceID
	sess.roomCode = r.Code
	sess.name = msg.Name

	sendFrame(c, protocol.RoomJoinedMsg{
		Header:   protocol.Header{Type: protocol.TypeRoomJoined, Timestamp: now},
		Code:     r.Code,
		DeviceID: msg.DeviceID,
		Room:     r.ToRoomInfo(),
	})

	joinedFrame, err := protocol.Encode(protocol.MemberJoinedMsg{
		Header: protocol.Header{Type: protocol.TypeMemberJoined, Timestamp: now},
		Code:   r.Code,
		Member: r.Member(msg.DeviceID),
	})
	if err == nil {
		deliver(r.Broadcast(joinedFrame, msg.DeviceID))
	}

	if diverged, message, branches := r.CheckBranchDivergence(); diverged {
		frame, err := protocol.Encode(protocol.BranchWarningMsg{
			Header:   protocol.Header{Type: protocol.TypeBranchWarning, Timestamp: now},
			Code:     r.Code,
			Message:  message,
			Branches: branches,
		})
		if err == nil {
			deliver(r.Broadcast(frame, ""))
		}
	}

	if r.Webhook != nil {
		s.fanout.Fire(context.Background(), r.Webhook, "join", r.Code, now, map[string]any{
			"deviceId": msg.DeviceID,
			"name":     msg.Name,
		})
	}
}

func (s *Server) handleLeaveRoom(sess *session, c *wsConn, r *room.Room) {
	now := nowMillis()
	member := r.RemoveMember(sess.deviceID, now)
	if member == nil {
		return
	}

	frame, err := protocol.Encode(protocol.MemberLeftMsg{
		Header:   protocol.Header{Type: protocol.TypeMemberLeft, Timestamp: now},
		Code:     r.Code,
		DeviceID: sess.deviceID,
		Name:     member.Name,
	})
	if err == nil {
		deliver(r.Broadcast(frame, ""))
	}

	sendFrame(c, protocol.RoomLeftMsg{
		Header: protocol.Header{Type: protocol.TypeRoomLeft, Timestamp: now},
		Code:   r.Code,
	})

	if r.Webhook != nil {
		s.fanout.Fire(context.Background(), r.Webhook, "leave", r.Code, now, map[string]any{
			"deviceId": sess.deviceID,
			"name":     member.Name,
		})
	}

	if r.IsEmpty() {
		s.registry.DeleteRoom(r.Code)
	}
	sess.roomCode = ""
}

func (s *Server) handleHeartbeat(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.HeartbeatMsg
	if err := env.Unmarshal(&msg); err != nil {
		return
	}

	var branch *string
	if msg.Branch != "" {
		branch = &msg.Branch
	}
	now := nowMillis()
	branchChanged := r.UpdateHeartbeat(sess.deviceID, msg.Status, branch, now)

	if branchChanged {
		if diverged, message, branches := r.CheckBranchDivergence(); diverged {
			frame, err := protocol.Encode(protocol.BranchWarningMsg{
				Header:   protocol.Header{Type: protocol.TypeBranchWarning, Timestamp: now},
				Code:     r.Code,
				Message:  message,
				Branches: branches,
			})
			if err == nil {
				deliver(r.Broadcast(frame, ""))
			}
		}
	}

	sendFrame(c, protocol.HeartbeatAckMsg{
		Header: protocol.Header{Type: protocol.TypeHeartbeatAck, Timestamp: now},
		Code:   r.Code,
	})
}

func (s *Server) handleFileChange(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.FileChangeMsg
	if err := env.Unmarshal(&msg); err != nil {
		s.sendError(c, "Invalid message format", "")
		return
	}

	if holder, locked := r.LockedBy(msg.Path); locked && holder != sess.deviceID {
		s.sendError(c, "file is locked by another device", "file_locked")
		return
	}

	now := nowMillis()
	change := &domain.FileChange{
		Path: msg.Path, Type: domain.ChangeType(msg.ChangeType), Author: sess.name,
		DeviceID: sess.deviceID, Timestamp: now, Diff: msg.Diff,
		LinesAdded: msg.LinesAdded, LinesRemoved: msg.LinesRemoved,
		SizeBefore: msg.SizeBefore, SizeAfter: msg.SizeAfter,
	}
	conflicts := r.RecordFileChange(change, now)

	frame, err := protocol.Encode(protocol.FileChangedMsg{
		Header: protocol.Header{Type: protocol.TypeFileChanged, Timestamp: now},
		Code:   r.Code,
		Change: change,
	})
	if err == nil {
		deliver(r.Broadcast(frame, sess.deviceID))
	}

	if len(conflicts) > 0 {
		conflictFrame, err := protocol.Encode(protocol.ConflictWarningMsg{
			Header:  protocol.Header{Type: protocol.TypeConflictWarning, Timestamp: now},
			Code:    r.Code,
			File:    msg.Path,
			Authors: append([]string{sess.name}, conflicts...),
		})
		if err == nil {
			deliver(r.Broadcast(conflictFrame, ""))
		}
	}

	if r.Webhook != nil {
		s.fanout.Fire(context.Background(), r.Webhook, "file_change", r.Code, now, map[string]any{
			"path": msg.Path, "changeType": msg.ChangeType, "author": sess.name,
		})
		if len(conflicts) > 0 {
			s.fanout.Fire(context.Background(), r.Webhook, "conflict", r.Code, now, map[string]any{
				"path": msg.Path, "authors": conflicts,
			})
		}
	}
}

func (s *Server) handleDeclareWorking(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.DeclareWorkingMsg
	if err := env.Unmarshal(&msg); err != nil {
		s.sendError(c, "Invalid message format", "")
		return
	}
	if len(msg.Files) > domain.MaxWorkingFiles {
		s.sendError(c, "too many files declared", "invalid_arg")
		return
	}
	for _, f := range msg.Files {
		if len(f) > domain.MaxWorkingPathLen {
			s.sendError(c, "file path too long", "invalid_arg")
			return
		}
	}

	now := nowMillis()
	conflicts := r.UpdateWorkingFiles(sess.deviceID, sess.name, msg.Files, now)

	frame, err := protocol.Encode(protocol.MemberUpdatedMsg{
		Header: protocol.Header{Type: protocol.TypeMemberUpdated, Timestamp: now},
		Code:   r.Code,
		Member: r.Member(sess.deviceID),
	})
	if err == nil {
		deliver(r.Broadcast(frame, ""))
	}

	for _, entry := range conflicts {
		cframe, err := protocol.Encode(protocol.ConflictWarningMsg{
			Header:  protocol.Header{Type: protocol.TypeConflictWarning, Timestamp: now},
			Code:    r.Code,
			File:    entry.File,
			Authors: append([]string{sess.name}, entry.Authors...),
		})
		if err == nil {
			deliver(r.Broadcast(cframe, ""))
		}
	}
}

func (s *Server) handleChatMessage(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.ChatMessageMsg
	if err := env.Unmarshal(&msg); err != nil {
		s.sendError(c, "Invalid message format", "")
		return
	}
	if len(msg.Content) < 1 || len(msg.Content) > domain.MaxChatLen {
		s.sendError(c, "content must be 1-10000 characters", "invalid_arg")
		return
	}

	now := nowMillis()
	id := r.AppendChatTimeline(sess.name, msg.Content, now)

	frame, err := protocol.Encode(protocol.ChatReceivedMsg{
		Header:   protocol.Header{Type: protocol.TypeChatReceived, Timestamp: now},
		Code:     r.Code,
		ID:       id,
		DeviceID: sess.deviceID,
		Author:   sess.name,
		Content:  msg.Content,
	})
	if err == nil {
		deliver(r.Broadcast(frame, sess.deviceID))
	}

	if r.Webhook != nil {
		s.fanout.Fire(context.Background(), r.Webhook, "chat", r.Code, now, map[string]any{
			"author": sess.name, "content": msg.Content,
		})
	}
}

func (s *Server) handleDeclareTyping(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.DeclareTypingMsg
	if err := env.Unmarshal(&msg); err != nil {
		return
	}
	r.SetTyping(sess.deviceID, msg.File)

	now := nowMillis()
	frame, err := protocol.Encode(protocol.TypingIndicatorMsg{
		Header:   protocol.Header{Type: protocol.TypeTypingIndicator, Timestamp: now},
		Code:     r.Code,
		DeviceID: sess.deviceID,
		Name:     sess.name,
		File:     msg.File,
	})
	if err == nil {
		deliver(r.Broadcast(frame, sess.deviceID))
	}
}

func (s *Server) handleLockFile(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.LockFileMsg
	if err := env.Unmarshal(&msg); err != nil {
		s.sendError(c, "Invalid message format", "")
		return
	}

	now := nowMillis()
	result := r.LockFile(sess.deviceID, sess.name, msg.File, now)
	if !result.Success {
		sendFrame(c, protocol.LockErrorMsg{
			Header: protocol.Header{Type: protocol.TypeLockError, Timestamp: now},
			Code:   r.Code, File: msg.File, Error: result.Error,
			LockedBy: nonEmptyPtr(result.LockedBy),
		})
		if s.metrics != nil {
			s.metrics.RecordError("dispatch", "lock_error")
		}
		return
	}

	frame, err := protocol.Encode(protocol.FileLockedMsg{
		Header: protocol.Header{Type: protocol.TypeFileLocked, Timestamp: now},
		Code:   r.Code, File: msg.File, LockedBy: sess.name, DeviceID: sess.deviceID,
	})
	if err == nil {
		deliver(r.Broadcast(frame, ""))
	}
}

func (s *Server) handleUnlockFile(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.UnlockFileMsg
	if err := env.Unmarshal(&msg); err != nil {
		s.sendError(c, "Invalid message format", "")
		return
	}

	now := nowMillis()
	result := r.UnlockFile(sess.deviceID, sess.name, msg.File, now)
	if !result.Success {
		s.sendError(c, result.Error, "lock_error")
		return
	}

	frame, err := protocol.Encode(protocol.FileUnlockedMsg{
		Header: protocol.Header{Type: protocol.TypeFileUnlocked, Timestamp: now},
		Code:   r.Code, File: msg.File,
	})
	if err == nil {
		deliver(r.Broadcast(frame, ""))
	}
}

func (s *Server) handleUpdateCursor(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.UpdateCursorMsg
	if err := env.Unmarshal(&msg); err != nil {
		return
	}
	r.UpdateCursor(sess.deviceID, msg.Cursor)

	now := nowMillis()
	frame, err := protocol.Encode(protocol.CursorUpdatedMsg{
		Header:   protocol.Header{Type: protocol.TypeCursorUpdated, Timestamp: now},
		Code:     r.Code,
		DeviceID: sess.deviceID,
		Name:     sess.name,
		Cursor:   msg.Cursor,
	})
	if err == nil {
		deliver(r.Broadcast(frame, sess.deviceID))
	}
}

func (s *Server) handleShareTerminal(sess *session, c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.ShareTerminalMsg
	if err := env.Unmarshal(&msg); err != nil {
		s.sendError(c, "Invalid message format", "")
		return
	}
	if len(msg.Output) > domain.MaxTerminalOutput {
		s.sendError(c, "output too large", "invalid_arg")
		return
	}

	now := nowMillis()
	frame, err := protocol.Encode(protocol.TerminalSharedMsg{
		Header:   protocol.Header{Type: protocol.TypeTerminalShared, Timestamp: now},
		Code:     r.Code,
		DeviceID: sess.deviceID,
		Name:     sess.name,
		Output:   msg.Output,
		Command:  msg.Command,
	})
	if err == nil {
		deliver(r.Broadcast(frame, sess.deviceID))
	}
}

func (s *Server) handleGetTimeline(c *wsConn, r *room.Room, env *protocol.Envelope) {
	var msg protocol.GetTimelineMsg
	if err := env.Unmarshal(&msg); err != nil {
		s.sendError(c, "Invalid message format", "")
		return
	}

	sendFrame(c, protocol.TimelineMsg{
		Header: protocol.Header{Type: protocol.TypeTimeline, Timestamp: nowMillis()},
		Code:   r.Code,
		Events: r.Timeline(msg.Limit),
	})
}

func (s *Server) handleSetWebhook(r *room.Room, env *protocol.Envelope) {
	var msg protocol.SetWebhookMsg
	if err := env.Unmarshal(&msg); err != nil {
		return
	}
	r.SetWebhook(msg.URL, msg.Events)
}

func (s *Server) handleSetRoomVisibility(r *room.Room, env *protocol.Envelope) {
	var msg protocol.SetRoomVisibilityMsg
	if err := env.Unmarshal(&msg); err != nil {
		return
	}
	r.SetVisibility(msg.IsPublic)
}

func (s *Server) handleStatusRequest(c *wsConn, r *room.Room) {
	sendFrame(c, protocol.RoomStatusMsg{
		Header: protocol.Header{Type: protocol.TypeRoomStatus, Timestamp: nowMillis()},
		Room:   r.ToRoomInfo(),
	})
}

func (s *Server) handleListRoomsFrame(c *wsConn) {
	sendFrame(c, protocol.RoomListMsg{
		Header: protocol.Header{Type: protocol.TypeRoomList, Timestamp: nowMillis()},
		Rooms:  s.registry.GetPublicRooms(),
	})
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
