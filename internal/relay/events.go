package relay

import "encoding/json"

// Inbound event names. connect and disconnect are implicit in the
// transport lifecycle and have no wire event.
const (
	EventJoin       = "join"
	EventCursor     = "cursor"
	EventCodeChange = "code_change"
)

// Outbound event names.
const (
	EventInitialCode      = "initial-code"
	EventPresence         = "presence"
	EventCodeUpdate       = "code-update"
	EventUserDisconnected = "user-disconnected"
)

// KnownInbound reports whether event is one the dispatcher routes.
func KnownInbound(event string) bool {
	switch event {
	case EventJoin, EventCursor, EventCodeChange:
		return true
	}
	return false
}

type JoinPayload struct {
	RoomID string `json:"room_id"`
}

// CodeChangePayload carries an incremental delta, a full document, or
// both. Changes is relayed verbatim; the server never interprets it.
// Code is a pointer so an empty document is distinguishable from an
// absent field.
type CodeChangePayload struct {
	Changes json.RawMessage `json:"changes,omitempty"`
	Code    *string         `json:"code,omitempty"`
}

type CodeUpdatePayload struct {
	Changes json.RawMessage `json:"changes"`
}

type InitialCodePayload struct {
	Code string `json:"code"`
}

type PresencePayload struct {
	SID  string `json:"sid"`
	Type string `json:"type"`
}

type UserDisconnectedPayload struct {
	SID string `json:"sid"`
}
