package telemetry

import (
	"sync"
	"time"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int
	events []Event
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Record(t EventType, meta Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.events = append(r.events, Event{
		ID:        r.nextID,
		Type:      t,
		Timestamp: time.Now(),
		Metadata:  meta,
	})
}

// List returns events at or after since, oldest first.
func (r *MemoryRepo) List(since time.Time) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, 0, len(r.events))
	for _, e := range r.events {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out
}
