package cli

import (
	"context"
	"fmt"

	"github.com/codehive-dev/codehive/internal/protocol"
)

// RunJoin connects, joins an existing room, prints confirmation, and
// disconnects.
func RunJoin(code string) error {
	ctx := context.Background()
	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	if err := c.JoinRoom(code, displayName(), roomPassword, roomBranch); err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	env, err := awaitRoomEntry(c)
	if err != nil {
		return err
	}

	var msg protocol.RoomJoinedMsg
	if err := env.Unmarshal(&msg); err != nil {
		return fmt.Errorf("decode room_joined: %w", err)
	}

	fmt.Printf("Joined room: %s\n", msg.Code)
	fmt.Printf("Device ID:   %s\n", msg.DeviceID)
	if msg.Room != nil {
		fmt.Printf("Members:     %d\n", len(msg.Room.Members))
	}
	return nil
}
