package cycle

import (
	"sync"
	"time"
)

type EventType string

const (
	EventPhase    EventType = "phase"
	EventInterim  EventType = "interim"
	EventFinal    EventType = "final"
	EventAccepted EventType = "accepted"
	EventPending  EventType = "pending"
	EventResolved EventType = "resolved"
	EventReply    EventType = "reply"
	EventError    EventType = "error"
)

// Event is one entry in the host UI feed: phase changes, transcripts as
// they build, pending confirmations and errors by kind.
type Event struct {
	Type       EventType
	Phase      Phase
	Text       string
	Confidence float64
	Outcome    string
	Kind       string
	Deadline   time.Time
}

const feedBuffer = 32

// Feed fans events out to any number of watchers. Slow watchers drop
// events rather than stall the controller.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Event)}
}

// Subscribe registers a watcher. The returned cancel func must be
// called when the watcher goes away; it closes the channel.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	ch := make(chan Event, feedBuffer)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Emit delivers an event to every watcher, dropping for full buffers.
func (f *Feed) Emit(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Watchers reports the current subscriber count.
func (f *Feed) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
