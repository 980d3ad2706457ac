package relay

import (
	"time"

	"github.com/gorilla/websocket"
)

// wsConn adapts a gorilla websocket connection to room.Conn, serializing
// concurrent writers behind a one-slot channel the way the teacher's
// ws.wsConn does, since gorilla's Conn forbids concurrent writers.
type wsConn struct {
	conn    *websocket.Conn
	sendMu  chan struct{}
	closed  chan struct{}
}

func newWSConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(frame []byte) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()

	if !c.IsOpen() {
		return websocket.ErrCloseSent
	}
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return c.conn.Close()
}

func (c *wsConn) IsOpen() bool {
	select {
	case <-c.closed:
		return false
	default:
		return true
	}
}

func (c *wsConn) Ping() error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}
