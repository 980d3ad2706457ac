package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/codehive-dev/codehive/internal/protocol"
	"github.com/codehive-dev/codehive/internal/watch"
)

// RunWatch joins code (or creates a new room under this device's
// display name if code is empty), then watches root and relays every
// file_change to the room until interrupted.
func RunWatch(root, code string) error {
	ctx := context.Background()
	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	if code == "" {
		if err := c.CreateRoom(displayName(), roomPassword, roomPublic, roomExpires, roomBranch); err != nil {
			return fmt.Errorf("create room: %w", err)
		}
	} else {
		if err := c.JoinRoom(code, displayName(), roomPassword, roomBranch); err != nil {
			return fmt.Errorf("join room: %w", err)
		}
	}

	env, err := awaitRoomEntry(c)
	if err != nil {
		return err
	}
	roomCode := code
	if env.Type == protocol.TypeRoomCreated {
		var msg protocol.RoomCreatedMsg
		if err := env.Unmarshal(&msg); err == nil {
			roomCode = msg.Code
			fmt.Printf("Room created: %s\n", msg.Code)
			fmt.Printf("Invite URL:   %s\n", msg.InviteURL)
		}
	}
	slog.Info("agent: watching", "root", root, "room", roomCode, "device", c.DeviceID())

	c.OnMessage(func(env *protocol.Envelope) {
		slog.Info("agent: relay message", "type", env.Type)
	})

	w, err := watch.New(root, func(ch watch.Change) {
		slog.Info("agent: file change",
			"path", ch.Path, "type", ch.ChangeType,
			"linesAdded", ch.LinesAdded, "linesRemoved", ch.LinesRemoved)
		if err := c.ReportFileChange(ch.Path, ch.ChangeType, ch.Diff, ch.LinesAdded, ch.LinesRemoved, ch.SizeBefore, ch.SizeAfter); err != nil {
			slog.Warn("agent: failed to report file change", "path", ch.Path, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("agent: shutting down")
	return nil
}
