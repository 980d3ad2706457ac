// Package agent implements the developer-side counterpart to the
// relay: a reconnecting websocket client that joins a room, reports
// file changes, and exposes one-shot waiters for request/reply style
// calls over the envelope protocol.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/ids"
	"github.com/codehive-dev/codehive/internal/protocol"
)

const (
	maxQueuedChanges = 50
	maxReconnects    = 10
	heartbeatEvery   = domain.HeartbeatInterval
)

// Handler is invoked for every decoded server->client frame, on the
// client's single dispatch goroutine (one message at a time, matching
// the cooperative single-threaded dispatch the agent's state machine
// assumes).
type Handler func(env *protocol.Envelope)

// Client is one agent-side connection to a relay. All public methods
// are safe for concurrent use; the read/dispatch/heartbeat/reconnect
// loops each run on their own goroutine, coordinated through mu and
// the done channel.
type Client struct {
	url      string
	deviceID string

	mu              sync.Mutex
	conn            *websocket.Conn
	shouldReconnect bool
	attempts        int

	currentRoom     string
	currentPassword string
	currentBranch   string
	currentStatus   string
	currentName     string

	fileChangeQueue []protocol.FileChangeMsg

	handler Handler

	listenersMu sync.Mutex
	listeners   []*listener

	closeOnce sync.Once
	closed    chan struct{}
}

type listener struct {
	predicate func(*protocol.Envelope) bool
	reply     chan *protocol.Envelope
}

// New returns a disconnected Client for relayURL ("ws://host:port/ws").
func New(relayURL, deviceID string) *Client {
	if deviceID == "" {
		deviceID, _ = ids.GenerateDeviceID()
	}
	return &Client{
		url:           relayURL,
		deviceID:      deviceID,
		currentStatus: string(domain.StatusActive),
		closed:        make(chan struct{}),
	}
}

// OnMessage installs the handler invoked for every inbound frame in
// addition to one-shot waiters (both fire for the same frame).
func (c *Client) OnMessage(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// DeviceID returns the client's stable device identifier.
func (c *Client) DeviceID() string { return c.deviceID }

// Connect dials the relay and starts the read and heartbeat loops. If
// currentRoom is already set (a reconnect), it auto-rejoins.
func (c *Client) Connect(ctx context.Context) error {
	if _, err := url.Parse(c.url); err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.shouldReconnect = true
	c.attempts = 0
	room := c.currentRoom
	c.mu.Unlock()

	go c.readLoop(conn)
	go c.heartbeatLoop(conn)

	if room != "" {
		c.rejoin()
	}
	return nil
}

// readLoop decodes inbound frames and dispatches them one at a time;
// on a read error it triggers reconnection unless disconnect() already
// disabled it.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.onDisconnected(conn)
			return
		}

		env, decErr := protocol.Decode(data)
		if decErr != nil {
			slog.Warn("agent: dropped malformed frame", "err", decErr)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env *protocol.Envelope) {
	c.listenersMu.Lock()
	remaining := c.listeners[:0]
	var matched []*listener
	for _, l := range c.listeners {
		if l.predicate(env) {
			matched = append(matched, l)
		} else {
			remaining = append(remaining, l)
		}
	}
	c.listeners = remaining
	c.listenersMu.Unlock()

	for _, l := range matched {
		l.reply <- env
	}

	if env.Type == protocol.TypeRoomJoined {
		c.flushQueue()
	}
	if env.Type == protocol.TypeError {
		c.discardQueue()
	}

	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h(env)
	}
}

func (c *Client) onDisconnected(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	should := c.shouldReconnect
	c.mu.Unlock()
	if !should {
		return
	}
	go c.reconnectLoop()
}

// reconnectLoop retries with exponential backoff capped at 30s, up to
// maxReconnects attempts, then gives up silently.
func (c *Client) reconnectLoop() {
	for {
		c.mu.Lock()
		if !c.shouldReconnect || c.attempts >= maxReconnects {
			c.mu.Unlock()
			return
		}
		c.attempts++
		attempt := c.attempts
		c.mu.Unlock()

		backoff := time.Duration(1000*(1<<uint(attempt-1))) * time.Millisecond
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}

		select {
		case <-c.closed:
			return
		case <-time.After(backoff):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.Connect(ctx)
		cancel()
		if err == nil {
			return
		}
		slog.Warn("agent: reconnect attempt failed", "attempt", attempt, "err", err)
	}
}

func (c *Client) heartbeatLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(heartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.mu.Lock()
			room := c.currentRoom
			branch := c.currentBranch
			status := c.currentStatus
			same := c.conn == conn
			c.mu.Unlock()
			if room == "" || !same {
				continue
			}
			_ = c.send(conn, protocol.HeartbeatMsg{
				ClientHeader: c.header(protocol.TypeHeartbeat),
				Code:         room, Status: status, Branch: branch,
			})
		}
	}
}

func (c *Client) rejoin() {
	c.mu.Lock()
	conn := c.conn
	msg := protocol.JoinRoomMsg{
		ClientHeader: c.header(protocol.TypeJoinRoom),
		Code:         c.currentRoom, Name: c.currentName,
		Password: c.currentPassword, Branch: c.currentBranch,
	}
	c.mu.Unlock()
	if conn != nil {
		_ = c.send(conn, msg)
	}
}

func (c *Client) header(typ string) protocol.ClientHeader {
	return protocol.ClientHeader{
		Header:   protocol.Header{Type: typ, Timestamp: time.Now().UnixMilli()},
		DeviceID: c.deviceID,
	}
}

func (c *Client) send(conn *websocket.Conn, v any) error {
	frame, err := protocol.Encode(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// sendInRoom is a no-op (per spec) if the client isn't currently in a
// room.
func (c *Client) sendInRoom(v any) error {
	c.mu.Lock()
	conn := c.conn
	room := c.currentRoom
	c.mu.Unlock()
	if room == "" || conn == nil {
		return nil
	}
	return c.send(conn, v)
}

var ErrNotConnected = errors.New("agent: not connected")

// CreateRoom sends create_room; valid whether or not already in a room.
func (c *Client) CreateRoom(name, password string, isPublic bool, expiresInHours int, branch string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return c.send(conn, protocol.CreateRoomMsg{
		ClientHeader: c.header(protocol.TypeCreateRoom),
		Name:         name, Password: password, IsPublic: isPublic,
		ExpiresInHours: expiresInHours, Branch: branch,
	})
}

// JoinRoom sends join_room and remembers code/password/branch/name for
// auto-rejoin on reconnect.
func (c *Client) JoinRoom(code, name, password, branch string) error {
	c.mu.Lock()
	conn := c.conn
	c.currentRoom = code
	c.currentName = name
	c.currentPassword = password
	c.currentBranch = branch
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return c.send(conn, protocol.JoinRoomMsg{
		ClientHeader: c.header(protocol.TypeJoinRoom),
		Code:         code, Name: name, Password: password, Branch: branch,
	})
}

// ListRooms sends list_rooms; valid whether or not in a room.
func (c *Client) ListRooms() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return c.send(conn, protocol.ListRoomsMsg{ClientHeader: c.header(protocol.TypeListRooms)})
}

// ReportFileChange sends file_change if connected, otherwise queues it
// (dropping the oldest entry past maxQueuedChanges) for delivery after
// the next successful room_joined. It is a silent no-op outside a
// room, matching every other sending method.
func (c *Client) ReportFileChange(path, changeType string, diff *string, linesAdded, linesRemoved int, sizeBefore, sizeAfter *int64) error {
	c.mu.Lock()
	room := c.currentRoom
	conn := c.conn
	c.mu.Unlock()
	if room == "" {
		return nil
	}

	msg := protocol.FileChangeMsg{
		ClientHeader: c.header(protocol.TypeFileChange),
		Code:         room, Path: path, ChangeType: changeType,
		Diff: diff, LinesAdded: linesAdded, LinesRemoved: linesRemoved,
		SizeBefore: sizeBefore, SizeAfter: sizeAfter,
	}
	if conn == nil {
		c.enqueue(msg)
		return nil
	}
	return c.send(conn, msg)
}

func (c *Client) enqueue(msg protocol.FileChangeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileChangeQueue = append(c.fileChangeQueue, msg)
	if len(c.fileChangeQueue) > maxQueuedChanges {
		c.fileChangeQueue = c.fileChangeQueue[len(c.fileChangeQueue)-maxQueuedChanges:]
	}
}

func (c *Client) flushQueue() {
	c.mu.Lock()
	queue := c.fileChangeQueue
	c.fileChangeQueue = nil
	conn := c.conn
	c.mu.Unlock()

	for _, msg := range queue {
		if conn != nil {
			_ = c.send(conn, msg)
		}
	}
}

func (c *Client) discardQueue() {
	c.mu.Lock()
	c.fileChangeQueue = nil
	c.mu.Unlock()
}

// DeclareWorking sends declare_working for the current room.
func (c *Client) DeclareWorking(files []string) error {
	c.mu.Lock()
	room := c.currentRoom
	c.mu.Unlock()
	return c.sendInRoom(protocol.DeclareWorkingMsg{
		ClientHeader: c.header(protocol.TypeDeclareWorking), Code: room, Files: files,
	})
}

// ChatMessage sends chat_message for the current room.
func (c *Client) ChatMessage(content string) error {
	c.mu.Lock()
	room := c.currentRoom
	c.mu.Unlock()
	return c.sendInRoom(protocol.ChatMessageMsg{
		ClientHeader: c.header(protocol.TypeChatMessage), Code: room, Content: content,
	})
}

// LockFile sends lock_file for the current room.
func (c *Client) LockFile(file string) error {
	c.mu.Lock()
	room := c.currentRoom
	c.mu.Unlock()
	return c.sendInRoom(protocol.LockFileMsg{
		ClientHeader: c.header(protocol.TypeLockFile), Code: room, File: file,
	})
}

// UnlockFile sends unlock_file for the current room.
func (c *Client) UnlockFile(file string) error {
	c.mu.Lock()
	room := c.currentRoom
	c.mu.Unlock()
	return c.sendInRoom(protocol.UnlockFileMsg{
		ClientHeader: c.header(protocol.TypeUnlockFile), Code: room, File: file,
	})
}

// RequestStatus sends request_status for the current room.
func (c *Client) RequestStatus() error {
	c.mu.Lock()
	room := c.currentRoom
	c.mu.Unlock()
	return c.sendInRoom(protocol.RequestStatusMsg{
		ClientHeader: c.header(protocol.TypeRequestStatus), Code: room,
	})
}

// OnceMessage registers a one-shot listener that fires the next time
// an inbound frame satisfies predicate, or returns nil after timeout.
func (c *Client) OnceMessage(predicate func(*protocol.Envelope) bool, timeout time.Duration) *protocol.Envelope {
	l := &listener{predicate: predicate, reply: make(chan *protocol.Envelope, 1)}
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, l)
	c.listenersMu.Unlock()

	select {
	case env := <-l.reply:
		return env
	case <-time.After(timeout):
		c.removeListener(l)
		return nil
	case <-c.closed:
		return nil
	}
}

func (c *Client) removeListener(target *listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	out := c.listeners[:0]
	for _, l := range c.listeners {
		if l != target {
			out = append(out, l)
		}
	}
	c.listeners = out
}

// Disconnect stops reconnection, sends leave_room if seated, and
// closes the transport with a normal close code.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.shouldReconnect = false
	conn := c.conn
	room := c.currentRoom
	c.mu.Unlock()

	if conn != nil && room != "" {
		_ = c.send(conn, protocol.LeaveRoomMsg{
			ClientHeader: c.header(protocol.TypeLeaveRoom), Code: room,
		})
	}
	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Client disconnect"), deadline)
		_ = conn.Close()
	}

	c.closeOnce.Do(func() { close(c.closed) })

	c.mu.Lock()
	c.currentRoom = ""
	c.currentPassword = ""
	c.currentBranch = ""
	c.conn = nil
	c.mu.Unlock()
}
