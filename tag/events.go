package tag

import "time"

// EventType identifies a lifecycle or operation event on an entry.
type EventType uint8

const (
	EventCreating EventType = iota
	EventReady
	EventFaulted
	EventRead
	EventWrite
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventCreating:
		return "creating"
	case EventReady:
		return "ready"
	case EventFaulted:
		return "faulted"
	case EventRead:
		return "read"
	case EventWrite:
		return "write"
	case EventDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Event describes something that happened to an entry. Code carries
// the engine status code for failed operations, zero otherwise.
type Event struct {
	At      time.Time
	Key     string
	Elapsed time.Duration
	Type    EventType
	Code    int32
}

// Observer receives entry lifecycle and operation events. Callbacks
// run on the entry's worker goroutine and must not block.
type Observer interface {
	OnTagEvent(Event)
}
