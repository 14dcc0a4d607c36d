package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/codeshare/backend/internal/metrics"
	"github.com/codeshare/backend/internal/room"
)

// EventHandler receives transport lifecycle callbacks and inbound
// events. Implemented by the relay dispatcher.
type EventHandler interface {
	Connect(connID string)
	HandleEvent(connID, event string, data json.RawMessage)
	Disconnect(connID string)
}

// Envelope is the wire format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub tracks active clients and fans events out to room members.
// Membership lives in the room registry; the hub only maps connection
// IDs to transports.
type Hub struct {
	// Registered clients by connection ID
	clients map[string]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	rooms   *room.Registry
	handler EventHandler
	log     zerolog.Logger

	mu sync.RWMutex
}

func NewHub(rooms *room.Registry, log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      rooms,
		log:        log.With().Str("component", "hub").Logger(),
	}
}

// SetHandler wires the event handler. Must be called before Run; it is
// separate from the constructor because the dispatcher needs the hub as
// its Sender.
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			count := len(h.clients)
			h.mu.Unlock()

			metrics.ActiveConnections.Set(float64(count))
			h.log.Debug().Str("conn_id", client.id).Int("total", count).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			metrics.ActiveConnections.Set(float64(count))
			h.log.Debug().Str("conn_id", client.id).Int("total", count).Msg("client unregistered")
		}
	}
}

// Unicast delivers one event to exactly one connection. Delivery is
// best-effort: a missing or saturated client drops the event.
func (h *Hub) Unicast(connID, event string, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.log.Warn().Err(err).Str("event", event).Msg("encode frame")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(connID, frame)
}

// Broadcast delivers one event to every member of the room except
// exclude. A failed delivery to one recipient never aborts the rest and
// never surfaces an error; it is logged and counted only.
func (h *Hub) Broadcast(roomID, event string, payload any, exclude string) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.log.Warn().Err(err).Str("event", event).Msg("encode frame")
		return
	}

	members := h.rooms.Members(roomID, exclude)
	if len(members) == 0 {
		return
	}
	metrics.BroadcastsTotal.WithLabelValues(event).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, connID := range members {
		h.deliver(connID, frame)
	}
}

// deliver sends a frame to one client without blocking. Callers hold at
// least a read lock, which keeps the send channel open for the duration.
func (h *Hub) deliver(connID string, frame []byte) {
	client, ok := h.clients[connID]
	if !ok {
		// Transport mid-teardown; membership cleanup is on its way.
		metrics.DeliveryDrops.Inc()
		return
	}
	select {
	case client.send <- frame:
	default:
		metrics.DeliveryDrops.Inc()
		h.log.Debug().Str("conn_id", connID).Msg("send buffer full, dropping delivery")
	}
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
