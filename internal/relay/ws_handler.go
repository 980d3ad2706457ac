package relay

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/protocol"
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("relay: ws upgrade failed", "err", err)
		if s.metrics != nil {
			s.metrics.RecordError("ws_handler", "upgrade_failed")
		}
		return
	}

	c := newWSConn(conn)
	sess := &session{}
	count := s.connCount.Add(1)
	if s.metrics != nil {
		s.metrics.SetConnectionsActive(float64(count))
	}
	defer func() {
		count := s.connCount.Add(-1)
		if s.metrics != nil {
			s.metrics.SetConnectionsActive(float64(count))
		}
	}()

	conn.SetReadLimit(domain.MaxInboundFrame)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		env, decErr := protocol.Decode(data)
		if decErr != nil {
			s.sendError(c, "Invalid message format", "decode_error")
			continue
		}

		sess.deviceID = env.DeviceID
		if s.metrics != nil {
			s.metrics.RecordMessage(env.Type, "inbound")
		}
		s.dispatch(sess, c, env)
	}

	s.handleDisconnect(sess, c)
	_ = c.Close()
}

// handleDisconnect mirrors leave_room's effects for a client that
// dropped the connection without sending leave_room itself.
func (s *Server) handleDisconnect(sess *session, c *wsConn) {
	if sess.roomCode == "" || sess.deviceID == "" {
		return
	}
	r := s.registry.GetRoom(sess.roomCode)
	if r == nil {
		return
	}

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

	if r.Webhook != nil {
		s.fanout.Fire(context.Background(), r.Webhook, "leave", r.Code, now, map[string]any{
			"deviceId": sess.deviceID,
			"name":     member.Name,
		})
	}

	if r.IsEmpty() {
		s.registry.DeleteRoom(r.Code)
	}
}
