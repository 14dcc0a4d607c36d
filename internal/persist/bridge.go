// Package persist decouples document persistence from the relay path.
package persist

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/codeshare/backend/internal/metrics"
)

// DocumentStore is the durable store boundary: one document per room,
// last write wins.
type DocumentStore interface {
	SaveDocument(roomID, code string) error
	// LoadDocument reports ok=false when no document exists for the room.
	LoadDocument(roomID string) (code string, ok bool, err error)
}

type saveJob struct {
	roomID string
	code   string
}

// Bridge flushes document text to the store through a bounded worker
// queue. Enqueue never blocks the caller: when the queue is full the
// job is dropped, which a superseding write will correct.
type Bridge struct {
	store   DocumentStore
	jobs    chan saveJob
	log     zerolog.Logger
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// NewBridge starts workers goroutines draining a queue of queueSize jobs.
func NewBridge(store DocumentStore, queueSize, workers int, log zerolog.Logger) *Bridge {
	b := &Bridge{
		store: store,
		jobs:  make(chan saveJob, queueSize),
		log:   log.With().Str("component", "persist-bridge").Logger(),
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

// Enqueue schedules a document save without blocking. Overload drops the
// job; the caller never learns of save failures either way.
func (b *Bridge) Enqueue(roomID, code string) {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()
	if b.closed {
		return
	}

	select {
	case b.jobs <- saveJob{roomID: roomID, code: code}:
		metrics.SavesEnqueued.Inc()
	default:
		metrics.SavesDropped.Inc()
		b.log.Warn().Str("room_id", roomID).Msg("save queue full, dropping write")
	}
}

// Load reads the room's stored document. A missing document and an
// unreachable store both come back as ok=false; the join flow treats
// them identically.
func (b *Bridge) Load(roomID string) (string, bool) {
	code, ok, err := b.store.LoadDocument(roomID)
	if err != nil {
		b.log.Warn().Err(err).Str("room_id", roomID).Msg("document load failed")
		return "", false
	}
	return code, ok
}

// Close stops accepting new saves, drains the queue, and waits for the
// workers to finish.
func (b *Bridge) Close() {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return
	}
	b.closed = true
	b.closeMu.Unlock()

	close(b.jobs)
	b.wg.Wait()
}

func (b *Bridge) worker() {
	defer b.wg.Done()
	for job := range b.jobs {
		if err := b.store.SaveDocument(job.roomID, job.code); err != nil {
			metrics.SavesFailed.Inc()
			b.log.Warn().Err(err).Str("room_id", job.roomID).Msg("document save failed")
		}
	}
}
