// Package room owns all room and membership state.
package room

import (
	"sync"
	"time"
)

// A collaborative editing session: the member set plus the last known
// full document text. Rooms are created lazily on first join and kept
// around when they empty out so the cached text survives reconnects.
type Room struct {
	ID string

	mu       sync.RWMutex
	members  map[string]struct{}
	code     string
	hasCode  bool
	idleFrom time.Time
}

func newRoom(id string) *Room {
	return &Room{
		ID:       id,
		members:  make(map[string]struct{}),
		idleFrom: time.Now(),
	}
}

func (r *Room) addMember(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[connID] = struct{}{}
}

func (r *Room) removeMember(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, connID)
	if len(r.members) == 0 {
		r.idleFrom = time.Now()
	}
}

// Members returns the current membership, minus exclude if non-empty.
func (r *Room) Members(exclude string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]string, 0, len(r.members))
	for id := range r.members {
		if id == exclude {
			continue
		}
		members = append(members, id)
	}
	return members
}

// SetCode replaces the cached document text. Last write wins.
func (r *Room) SetCode(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
	r.hasCode = true
}

// SetCodeIfAbsent caches text only when none is cached yet. Used when a
// store read resolves after the room may already have seen a newer write.
func (r *Room) SetCodeIfAbsent(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasCode {
		r.code = code
		r.hasCode = true
	}
}

// Code returns the cached document text, ok false if never set.
func (r *Room) Code() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.code, r.hasCode
}

func (r *Room) memberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Room) idleSince() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idleFrom
}
