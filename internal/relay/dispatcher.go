// Package relay routes inbound transport events through the room and
// session state and fans the results back out.
package relay

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/codeshare/backend/internal/room"
	"github.com/codeshare/backend/internal/session"
)

// Sender delivers outbound events. Implemented by the websocket hub.
type Sender interface {
	// Unicast delivers to exactly one connection.
	Unicast(connID, event string, payload any)
	// Broadcast delivers to every member of the room except exclude.
	// Delivery is fire-and-forget per recipient.
	Broadcast(roomID, event string, payload any, exclude string)
}

// Snapshots is the persistence bridge boundary: non-blocking writes,
// best-effort reads.
type Snapshots interface {
	Enqueue(roomID, code string)
	Load(roomID string) (string, bool)
}

// Dispatcher is the entry point for transport events. Each connection
// moves through connected -> in-room -> disconnected; events that need
// a room from a connection that has none are dropped silently, and no
// error ever crosses back into the transport layer.
type Dispatcher struct {
	sessions  *session.Store
	rooms     *room.Registry
	sender    Sender
	snapshots Snapshots
	log       zerolog.Logger
}

func NewDispatcher(sessions *session.Store, rooms *room.Registry, sender Sender, snapshots Snapshots, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sessions:  sessions,
		rooms:     rooms,
		sender:    sender,
		snapshots: snapshots,
		log:       log.With().Str("component", "dispatcher").Logger(),
	}
}

// Connect registers a new connection. No broadcast.
func (d *Dispatcher) Connect(connID string) {
	d.sessions.Create(connID)
	d.log.Debug().Str("conn_id", connID).Msg("connected")
}

// Disconnect tears down the connection's state and tells the room.
// Safe against double invocation by the transport layer.
func (d *Dispatcher) Disconnect(connID string) {
	roomID, inRoom := d.sessions.Room(connID)
	d.sessions.Remove(connID)
	if !inRoom {
		return
	}

	d.rooms.RemoveMember(roomID, connID)
	d.sender.Broadcast(roomID, EventUserDisconnected, UserDisconnectedPayload{SID: connID}, connID)
	d.log.Debug().Str("conn_id", connID).Str("room_id", roomID).Msg("disconnected from room")
}

// HandleEvent routes one inbound event. Malformed events are dropped
// here; nothing propagates to the caller.
func (d *Dispatcher) HandleEvent(connID, event string, data json.RawMessage) {
	switch event {
	case EventJoin:
		d.join(connID, data)
	case EventCursor:
		d.cursor(connID, data)
	case EventCodeChange:
		d.codeChange(connID, data)
	default:
		d.log.Debug().Str("conn_id", connID).Str("event", event).Msg("dropping unknown event")
	}
}

func (d *Dispatcher) join(connID string, data json.RawMessage) {
	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == "" {
		d.log.Debug().Str("conn_id", connID).Msg("dropping join without room_id")
		return
	}
	roomID := payload.RoomID

	// Switching rooms is leave-then-join: the old room must drop the
	// member and hear about it, or it would keep receiving broadcasts
	// for a connection that has moved on.
	if oldRoom, ok := d.sessions.Room(connID); ok && oldRoom != roomID {
		d.rooms.RemoveMember(oldRoom, connID)
		d.sender.Broadcast(oldRoom, EventUserDisconnected, UserDisconnectedPayload{SID: connID}, connID)
	}

	d.sessions.SetRoom(connID, roomID)
	d.rooms.AddMember(roomID, connID)

	// Presence goes out before any store round-trip so the room sees the
	// joiner promptly even when the snapshot fetch is slow.
	d.sender.Broadcast(roomID, EventPresence, PresencePayload{SID: connID, Type: "join"}, connID)

	code, ok := d.rooms.Code(roomID)
	if !ok {
		loaded, found := d.snapshots.Load(roomID)
		if !found {
			// Brand-new document, or the store is unreachable. Either
			// way the join proceeds without a snapshot.
			return
		}
		// A code_change may have landed while the load was in flight;
		// the newer text wins.
		d.rooms.SetCodeIfAbsent(roomID, loaded)
		code, ok = d.rooms.Code(roomID)
		if !ok {
			return
		}
	}

	d.sender.Unicast(connID, EventInitialCode, InitialCodePayload{Code: code})
}

func (d *Dispatcher) cursor(connID string, data json.RawMessage) {
	roomID, inRoom := d.sessions.Room(connID)
	if !inRoom {
		d.log.Debug().Str("conn_id", connID).Msg("dropping cursor from connection without room")
		return
	}

	// Cursor payloads are opaque: relayed verbatim, never validated.
	d.sender.Broadcast(roomID, EventCursor, data, connID)
}

func (d *Dispatcher) codeChange(connID string, data json.RawMessage) {
	roomID, inRoom := d.sessions.Room(connID)
	if !inRoom {
		d.log.Debug().Str("conn_id", connID).Msg("dropping code_change from connection without room")
		return
	}

	var payload CodeChangePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		d.log.Debug().Str("conn_id", connID).Msg("dropping malformed code_change")
		return
	}

	if len(payload.Changes) > 0 && string(payload.Changes) != "null" {
		d.sender.Broadcast(roomID, EventCodeUpdate, CodeUpdatePayload{Changes: payload.Changes}, connID)
	}

	if payload.Code != nil {
		// Cache first so a join racing this event sees the new text,
		// then hand the write off without waiting on it.
		d.rooms.SetCode(roomID, *payload.Code)
		d.snapshots.Enqueue(roomID, *payload.Code)
	}
}
