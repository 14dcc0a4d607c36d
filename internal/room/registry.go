package room

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry maps room IDs to live Room state. It is the single owner of
// all rooms; everything else refers to a room by identifier only.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	log   zerolog.Logger

	// Eviction of empty rooms. idleTTL == 0 keeps rooms forever.
	idleTTL       time.Duration
	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		log:   log.With().Str("component", "room-registry").Logger(),
		stop:  make(chan struct{}),
	}
}

// Ensure returns the room for id, creating it if absent. Concurrent
// calls for the same unseen id resolve to a single Room instance.
func (reg *Registry) Ensure(id string) *Room {
	reg.mu.RLock()
	r, ok := reg.rooms[id]
	reg.mu.RUnlock()
	if ok {
		return r
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.ensureLocked(id)
}

// ensureLocked is Ensure for callers already holding the write lock.
func (reg *Registry) ensureLocked(id string) *Room {
	if r, ok := reg.rooms[id]; ok {
		return r
	}
	r := newRoom(id)
	reg.rooms[id] = r
	reg.log.Debug().Str("room_id", id).Msg("room created")
	return r
}

// Get returns the room for id without creating it.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// AddMember adds the connection to the room, creating the room if
// needed. The mutation happens under the registry lock so a concurrent
// Sweep can never evict the room between lookup and add, which would
// leave the member attached to a detached Room.
func (reg *Registry) AddMember(roomID, connID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.ensureLocked(roomID).addMember(connID)
}

// RemoveMember drops the connection from the room's member set. The room
// itself stays in place so its cached text is available to future joiners.
func (reg *Registry) RemoveMember(roomID, connID string) {
	if r, ok := reg.Get(roomID); ok {
		r.removeMember(connID)
	}
}

// Members returns the room's membership minus exclude. Unknown rooms
// have no members.
func (reg *Registry) Members(roomID, exclude string) []string {
	r, ok := reg.Get(roomID)
	if !ok {
		return nil
	}
	return r.Members(exclude)
}

// SetCode caches the latest full document text for the room. Held
// under the registry lock for the same reason as AddMember.
func (reg *Registry) SetCode(roomID, code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.ensureLocked(roomID).SetCode(code)
}

// SetCodeIfAbsent caches text only when the room has none yet. Used
// when a store read resolves after the room may already have seen a
// newer write.
func (reg *Registry) SetCodeIfAbsent(roomID, code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.ensureLocked(roomID).SetCodeIfAbsent(code)
}

// Code returns the room's cached document text, ok false if none.
func (reg *Registry) Code(roomID string) (string, bool) {
	r, ok := reg.Get(roomID)
	if !ok {
		return "", false
	}
	return r.Code()
}

// ActiveRooms returns member counts for rooms that currently have members.
func (reg *Registry) ActiveRooms() map[string]int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	active := make(map[string]int)
	for id, r := range reg.rooms {
		if n := r.memberCount(); n > 0 {
			active[id] = n
		}
	}
	return active
}

// Count returns the total number of rooms held in memory.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// StartEviction begins periodically dropping rooms that have been empty
// for longer than idleTTL. A zero idleTTL disables eviction entirely.
func (reg *Registry) StartEviction(idleTTL, sweepInterval time.Duration) {
	if idleTTL <= 0 {
		return
	}
	reg.idleTTL = idleTTL
	reg.sweepInterval = sweepInterval

	reg.wg.Add(1)
	go reg.sweepLoop()
	reg.log.Info().
		Dur("idle_ttl", idleTTL).
		Dur("interval", sweepInterval).
		Msg("room eviction started")
}

// Stop halts the eviction loop, if running. Safe to call twice.
func (reg *Registry) Stop() {
	reg.stopOnce.Do(func() { close(reg.stop) })
	reg.wg.Wait()
}

func (reg *Registry) sweepLoop() {
	defer reg.wg.Done()

	ticker := time.NewTicker(reg.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-reg.stop:
			return
		case <-ticker.C:
			reg.Sweep(time.Now(), reg.idleTTL)
		}
	}
}

// Sweep removes rooms that have been empty since before now-idleTTL and
// returns how many were evicted.
func (reg *Registry) Sweep(now time.Time, idleTTL time.Duration) int {
	cutoff := now.Add(-idleTTL)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	evicted := 0
	for id, r := range reg.rooms {
		if r.memberCount() == 0 && r.idleSince().Before(cutoff) {
			delete(reg.rooms, id)
			evicted++
		}
	}
	if evicted > 0 {
		reg.log.Info().Int("evicted", evicted).Msg("swept idle rooms")
	}
	return evicted
}
