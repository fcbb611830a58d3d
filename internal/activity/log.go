// Package activity keeps a bounded audit trail of user and system actions
// for display on the dashboard.
package activity

import "time"

type Kind string

const (
	KindAlert Kind = "alert"
	KindQuery Kind = "query"
	KindSave  Kind = "save"
	KindView  Kind = "view"
)

type Entry struct {
	ID          int64     `json:"id"`
	Kind        Kind      `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Log is an append-only ring of the most recent entries, newest first.
// It is owned by the event loop and never touched concurrently.
type Log struct {
	capacity int
	nextID   int64
	entries  []Entry
}

const defaultCapacity = 10

func NewLog() *Log {
	return &Log{
		capacity: defaultCapacity,
		// Seeded from the clock so ids stay unique across restarts when a
		// persisted snapshot is restored on top.
		nextID: time.Now().UnixMilli(),
	}
}

// Record prepends a new entry and evicts the oldest past capacity. IDs are
// strictly increasing regardless of call granularity.
func (l *Log) Record(kind Kind, description string) Entry {
	entry := Entry{
		ID:          l.nextID,
		Kind:        kind,
		Description: description,
		Timestamp:   time.Now(),
	}
	l.nextID++

	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	return entry
}

// List returns a copy of the entries, newest first.
func (l *Log) List() []Entry {
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Len() int {
	return len(l.entries)
}

// Snapshot exposes the current entries for persistence.
func (l *Log) Snapshot() []Entry {
	return l.List()
}

// Restore replaces the ring with a persisted snapshot, keeping the id
// sequence ahead of anything restored.
func (l *Log) Restore(entries []Entry) {
	l.entries = append([]Entry(nil), entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	for _, entry := range l.entries {
		if entry.ID >= l.nextID {
			l.nextID = entry.ID + 1
		}
	}
}
