// Package events records what the engine did to the workspace: one entry per
// applied mutation. The journal is a bounded in-memory ring; when capacity is
// reached the oldest entries fall off.
package events

import (
	"sync"
	"time"

	"conductor/internal/domain"
)

const defaultCapacity = 256

type Journal struct {
	mu      sync.Mutex
	entries []domain.Event
	nextID  int64
	cap     int
	Now     func() time.Time
}

func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Journal{cap: capacity, nextID: 1}
}

func (j *Journal) Append(evtType, entityKind, entityID string, payload map[string]any) domain.Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	evt := domain.Event{
		ID:         j.nextID,
		TS:         now().UTC().Format(time.RFC3339),
		Type:       evtType,
		EntityKind: entityKind,
		EntityID:   entityID,
		Payload:    payload,
	}
	j.nextID++
	j.entries = append(j.entries, evt)
	if len(j.entries) > j.cap {
		j.entries = j.entries[len(j.entries)-j.cap:]
	}
	return evt
}

// Latest returns up to n most recent entries, newest last.
func (j *Journal) Latest(n int) []domain.Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n <= 0 || n >= len(j.entries) {
		return append([]domain.Event(nil), j.entries...)
	}
	return append([]domain.Event(nil), j.entries[len(j.entries)-n:]...)
}
