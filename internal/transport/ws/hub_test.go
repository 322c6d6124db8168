package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
	}
	return Message{}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestHubRoutesByRoomAndPlayer(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	alice := NewConnection("c1", 8)
	bob := NewConnection("c2", 8)
	other := NewConnection("c3", 8)
	for _, c := range []*Connection{alice, bob, other} {
		hub.Register(c)
	}
	hub.Bind(alice, "ROOM01", "Alice", "s1")
	hub.Bind(bob, "ROOM01", "Bob", "s2")
	hub.Bind(other, "ROOM02", "Carol", "s3")
	waitFor(t, func() bool { return hub.RoomSize("ROOM01") == 2 })

	hub.BroadcastToRoom("ROOM01", "roomState", map[string]string{"gameId": "ROOM01"})
	assert.Equal(t, "roomState", receive(t, alice).Type)
	assert.Equal(t, "roomState", receive(t, bob).Type)

	hub.BroadcastToPlayer("ROOM01", "Bob", "boostApplied", map[string]int{"points": 30})
	assert.Equal(t, "boostApplied", receive(t, bob).Type)

	hub.Reply(other, "r1", "getState", map[string]bool{"success": true})
	ack := receive(t, other)
	assert.Equal(t, MsgAck, ack.Type)
	assert.Equal(t, "r1", ack.RequestID)

	assert.Len(t, alice.Send, 0)
	assert.Len(t, other.Send, 0)
}

func TestHubRebindMovesGroups(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	c := NewConnection("c1", 8)
	hub.Register(c)
	hub.Bind(c, "ROOM01", "Alice", "s1")
	hub.Bind(c, "ROOM02", "Alice", "s2")
	waitFor(t, func() bool { return hub.RoomSize("ROOM02") == 1 })
	assert.Equal(t, 0, hub.RoomSize("ROOM01"))

	hub.Bind(c, "", "", "")
	waitFor(t, func() bool { return hub.RoomSize("ROOM02") == 0 })
	roomID, _, _ := c.Identity()
	assert.Empty(t, roomID)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	slow := NewConnection("slow", 1)
	fast := NewConnection("fast", 8)
	hub.Register(slow)
	hub.Register(fast)
	hub.Bind(slow, "ROOM01", "Alice", "s1")
	hub.Bind(fast, "ROOM01", "Bob", "s2")

	for i := 0; i < 5; i++ {
		hub.BroadcastToRoom("ROOM01", "roomState", i)
	}
	waitFor(t, func() bool { return len(fast.Send) == 5 })
	assert.Len(t, slow.Send, 1)
}

func TestHubDisconnectRoomClosesSockets(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	c := NewConnection("c1", 8)
	hub.Register(c)
	hub.Bind(c, "ROOM01", "Alice", "s1")
	hub.DisconnectRoom("ROOM01")

	waitFor(t, func() bool { return hub.ConnectionCount() == 0 })
	_, ok := <-c.Send
	assert.False(t, ok)

	// unregistering after the room closed must not double close
	hub.Unregister(c)
	assert.Equal(t, 0, hub.RoomSize("ROOM01"))
}
