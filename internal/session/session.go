// Package session maps live connection IDs to per-connection state.
package session

import (
	"sync"
)

// Store tracks which room, if any, each connection has joined.
// The registry of room state itself lives in the room package; a
// connection only ever holds the room's identifier.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]string // connection ID -> room ID ("" = no room)
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]string),
	}
}

// Create registers a connection with no room. No-op if already present.
func (s *Store) Create(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[connID]; !ok {
		s.rooms[connID] = ""
	}
}

// SetRoom associates the connection with a room, overwriting any prior
// association. Leave side effects are the dispatcher's responsibility.
func (s *Store) SetRoom(connID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[connID] = roomID
}

// Room returns the connection's room ID. ok is false when the connection
// is unknown or has not joined a room.
func (s *Store) Room(connID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID, present := s.rooms[connID]
	if !present || roomID == "" {
		return "", false
	}
	return roomID, true
}

// Remove deletes all state for the connection. Safe on an unknown ID.
func (s *Store) Remove(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, connID)
}

// Count returns the number of registered connections.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
