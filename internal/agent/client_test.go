package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codehive-dev/codehive/internal/protocol"
)

// echoServer upgrades and, for every inbound message, sends whatever
// server frame reply returns for it, letting tests drive the
// client's dispatch path without a real relay.
func echoServer(t *testing.T, reply func(env *protocol.Envelope) (string, []byte)) *httptest.Server {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			env, err := protocol.Decode(data)
			if err != nil {
				continue
			}
			if reply == nil {
				continue
			}
			_, frame := reply(env)
			if frame != nil {
				_ = conn.WriteMessage(websocket.TextMessage, frame)
			}
		}
	}))
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestJoinRoomReceivesRoomJoined(t *testing.T) {
	srv := echoServer(t, func(env *protocol.Envelope) (string, []byte) {
		if env.Type != protocol.TypeJoinRoom {
			return "", nil
		}
		frame, _ := protocol.Encode(protocol.RoomJoinedMsg{
			Header:   protocol.Header{Type: protocol.TypeRoomJoined, Timestamp: 1},
			Code:     "HIVE-ABCDEF",
			DeviceID: "dev1",
		})
		return protocol.TypeRoomJoined, frame
	})
	defer srv.Close()

	c := New(wsURL(srv), "dev1")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	require.NoError(t, c.JoinRoom("HIVE-ABCDEF", "Zeus", "", ""))

	env := c.OnceMessage(func(e *protocol.Envelope) bool {
		return e.Type == protocol.TypeRoomJoined
	}, 2*time.Second)
	require.NotNil(t, env)
	assert.Equal(t, protocol.TypeRoomJoined, env.Type)
}

func TestReportFileChangeQueuesWhenDisconnected(t *testing.T) {
	c := New("ws://127.0.0.1:0/ws", "dev1")
	c.mu.Lock()
	c.currentRoom = "HIVE-ABCDEF"
	c.mu.Unlock()

	for i := 0; i < maxQueuedChanges+10; i++ {
		require.NoError(t, c.ReportFileChange("a.go", "change", nil, 1, 0, nil, nil))
	}

	c.mu.Lock()
	n := len(c.fileChangeQueue)
	c.mu.Unlock()
	assert.Equal(t, maxQueuedChanges, n)
}

func TestReportFileChangeNoopOutsideRoom(t *testing.T) {
	c := New("ws://127.0.0.1:0/ws", "dev1")
	require.NoError(t, c.ReportFileChange("a.go", "change", nil, 1, 0, nil, nil))
	c.mu.Lock()
	n := len(c.fileChangeQueue)
	c.mu.Unlock()
	assert.Equal(t, 0, n)
}

func TestOnceMessageTimesOutWithoutMatch(t *testing.T) {
	c := New("ws://127.0.0.1:0/ws", "dev1")
	env := c.OnceMessage(func(e *protocol.Envelope) bool { return false }, 50*time.Millisecond)
	assert.Nil(t, env)
}

func TestDisconnectSendsLeaveRoomAndClearsState(t *testing.T) {
	var gotLeave bool
	srv := echoServer(t, func(env *protocol.Envelope) (string, []byte) {
		if env.Type == protocol.TypeLeaveRoom {
			gotLeave = true
		}
		return "", nil
	})
	defer srv.Close()

	c := New(wsURL(srv), "dev1")
	require.NoError(t, c.Connect(context.Background()))
	c.mu.Lock()
	c.currentRoom = "HIVE-ABCDEF"
	c.mu.Unlock()

	c.Disconnect()
	time.Sleep(100 * time.Millisecond)

	assert.True(t, gotLeave)
	c.mu.Lock()
	room := c.currentRoom
	c.mu.Unlock()
	assert.Equal(t, "", room)
}
