package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeshare/backend/internal/room"
)

func testHub() (*Hub, *room.Registry) {
	rooms := room.NewRegistry(zerolog.Nop())
	hub := NewHub(rooms, zerolog.Nop())
	go hub.Run()
	return hub, rooms
}

// addClient registers a transport-less client and waits for the hub's
// run loop to pick it up.
func addClient(t *testing.T, hub *Hub, id string, buffer int) *Client {
	t.Helper()

	client := &Client{
		hub:  hub,
		send: make(chan []byte, buffer),
		id:   id,
	}
	before := hub.ClientCount()
	hub.register <- client
	require.Eventually(t, func() bool {
		return hub.ClientCount() == before+1
	}, time.Second, time.Millisecond)
	return client
}

func decodeEnvelope(t *testing.T, frame []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env
}

func recvFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		return decodeEnvelope(t, frame)
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.id)
		return Envelope{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case frame := <-c.send:
		t.Fatalf("client %s unexpectedly received %s", c.id, frame)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubCreation(t *testing.T) {
	hub, _ := testHub()
	require.NotNil(t, hub)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestUnicast(t *testing.T) {
	hub, _ := testHub()
	c := addClient(t, hub, "conn-1", 4)

	hub.Unicast("conn-1", "initial-code", map[string]string{"code": "abc"})

	env := recvFrame(t, c)
	assert.Equal(t, "initial-code", env.Event)
	assert.JSONEq(t, `{"code":"abc"}`, string(env.Data))
}

func TestUnicastToUnknownConnection(t *testing.T) {
	hub, _ := testHub()

	// Nothing registered: silently dropped.
	hub.Unicast("ghost", "initial-code", map[string]string{"code": "abc"})
}

func TestBroadcastExcludesSender(t *testing.T) {
	hub, rooms := testHub()
	sender := addClient(t, hub, "conn-1", 4)
	peer := addClient(t, hub, "conn-2", 4)
	rooms.AddMember("r1", "conn-1")
	rooms.AddMember("r1", "conn-2")

	hub.Broadcast("r1", "cursor", json.RawMessage(`{"line":5}`), "conn-1")

	env := recvFrame(t, peer)
	assert.Equal(t, "cursor", env.Event)
	assert.JSONEq(t, `{"line":5}`, string(env.Data))

	assertNoFrame(t, sender)
}

func TestBroadcastRoomIsolation(t *testing.T) {
	hub, rooms := testHub()
	inRoom := addClient(t, hub, "conn-a", 4)
	elsewhere := addClient(t, hub, "conn-b", 4)
	rooms.AddMember("room-a", "conn-a")
	rooms.AddMember("room-b", "conn-b")

	hub.Broadcast("room-a", "presence", map[string]string{"sid": "x", "type": "join"}, "")

	env := recvFrame(t, inRoom)
	assert.Equal(t, "presence", env.Event)

	assertNoFrame(t, elsewhere)
}

func TestSlowRecipientDoesNotAbortBroadcast(t *testing.T) {
	hub, rooms := testHub()
	_ = addClient(t, hub, "conn-stuck", 0) // zero buffer: every send drops
	healthy := addClient(t, hub, "conn-ok", 4)
	rooms.AddMember("r1", "conn-stuck")
	rooms.AddMember("r1", "conn-ok")

	hub.Broadcast("r1", "code-update", map[string]string{"changes": "x"}, "")

	// The healthy recipient still gets the event.
	env := recvFrame(t, healthy)
	assert.Equal(t, "code-update", env.Event)
}

func TestBroadcastToDepartedMember(t *testing.T) {
	hub, rooms := testHub()
	c := addClient(t, hub, "conn-1", 4)
	rooms.AddMember("r1", "conn-1")
	// Membership says conn-2 is present but its transport is gone.
	rooms.AddMember("r1", "conn-2")

	hub.Broadcast("r1", "presence", map[string]string{"sid": "x", "type": "join"}, "")

	env := recvFrame(t, c)
	assert.Equal(t, "presence", env.Event)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub, _ := testHub()
	c := addClient(t, hub, "conn-1", 4)

	hub.unregister <- c
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, time.Millisecond)

	_, open := <-c.send
	assert.False(t, open, "send channel should be closed after unregister")
}
