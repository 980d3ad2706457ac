package relay

import (
	"log/slog"
	"time"

	"github.com/codehive-dev/codehive/internal/protocol"
	"github.com/codehive-dev/codehive/internal/room"
)

// sweepHeartbeats evicts members whose lastSeen is older than the
// configured heartbeat timeout, broadcasts member_left for each, logs,
// then prunes any room left empty by the eviction.
func (s *Server) sweepHeartbeats() {
	start := time.Now()
	now := nowMillis()

	for _, r := range s.registry.AllRooms() {
		dead := r.FindDeadClients(now, s.cfg.HeartbeatTimeout)
		for _, deviceID := range dead {
			member := r.RemoveMember(deviceID, now)
			if member == nil {
				continue
			}
			slog.Info("relay: evicted dead client", "room", r.Code, "device", deviceID, "name", member.Name)

			frame, err := protocol.Encode(protocol.MemberLeftMsg{
				Header:   protocol.Header{Type: protocol.TypeMemberLeft, Timestamp: now},
				Code:     r.Code,
				DeviceID: deviceID,
				Name:     member.Name,
			})
			if err != nil {
				continue
			}
			deliver(r.Broadcast(frame, ""))
		}
	}

	pruned := s.registry.PruneEmptyRooms()
	if len(pruned) > 0 {
		slog.Info("relay: pruned empty rooms after heartbeat sweep", "count", len(pruned))
	}

	if s.metrics != nil {
		s.metrics.ObserveHeartbeatSweep(time.Since(start).Seconds())
		s.metrics.SetRoomsActive(float64(len(s.registry.AllRooms())))
	}
}

// sweepExpiredRooms deletes rooms past their configured TTL.
func (s *Server) sweepExpiredRooms() {
	pruned := s.registry.PruneExpiredRooms(nowMillis())
	if len(pruned) > 0 {
		slog.Info("relay: pruned expired rooms", "count", len(pruned), "codes", pruned)
	}
	if s.metrics != nil {
		s.metrics.SetRoomsActive(float64(len(s.registry.AllRooms())))
	}
}

// deliver sends every pending outbound frame, ignoring individual
// send errors since broadcast delivery is best-effort with no receipts.
func deliver(outs []room.Outbound) {
	for _, o := range outs {
		_ = o.Conn.Send(o.Frame)
	}
}

func deliverOne(o *room.Outbound) {
	if o != nil {
		_ = o.Conn.Send(o.Frame)
	}
}
