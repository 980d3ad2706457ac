package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codehive-dev/codehive/internal/protocol"
)

// RunStatus joins code as a transient observer, requests the room's
// status snapshot, prints it as JSON, and exits.
func RunStatus(code string) error {
	ctx := context.Background()
	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	if err := c.JoinRoom(code, displayName(), roomPassword, roomBranch); err != nil {
		return fmt.Errorf("join room: %w", err)
	}
	if _, err := awaitRoomEntry(c); err != nil {
		return err
	}

	if err := c.RequestStatus(); err != nil {
		return fmt.Errorf("request status: %w", err)
	}

	env := c.OnceMessage(func(e *protocol.Envelope) bool {
		return e.Type == protocol.TypeRoomStatus
	}, 5*time.Second)
	if env == nil {
		return fmt.Errorf("timed out waiting for room_status")
	}

	var msg protocol.RoomStatusMsg
	if err := env.Unmarshal(&msg); err != nil {
		return fmt.Errorf("decode room_status: %w", err)
	}

	out, err := json.MarshalIndent(msg.Room, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
