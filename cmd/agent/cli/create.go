package cli

import (
	"context"
	"fmt"

	"github.com/codehive-dev/codehive/internal/protocol"
)

// RunCreate connects, creates a room, prints its invite details, and
// disconnects.
func RunCreate(name string) error {
	ctx := context.Background()
	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	if err := c.CreateRoom(name, roomPassword, roomPublic, roomExpires, roomBranch); err != nil {
		return fmt.Errorf("create room: %w", err)
	}

	env, err := awaitRoomEntry(c)
	if err != nil {
		return err
	}

	var msg protocol.RoomCreatedMsg
	if err := env.Unmarshal(&msg); err != nil {
		return fmt.Errorf("decode room_created: %w", err)
	}

	fmt.Printf("Room created: %s\n", msg.Code)
	fmt.Printf("Invite URL:   %s\n", msg.InviteURL)
	fmt.Printf("Device ID:    %s\n", c.DeviceID())
	return nil
}
