package realtime

import (
	"context"
	"sync"
	"time"
)

// TopicRoomDirectory receives events about the room list as a whole.
const TopicRoomDirectory = "rooms"

// RoomTopic returns the topic carrying events for a single room.
func RoomTopic(roomID string) string {
	return "room:" + roomID
}

// EventKind enumerates the change notifications flowing through the dispatcher.
type EventKind string

const (
	EventRoomCreated EventKind = "room-created"
	EventRoomUpdated EventKind = "room-updated"
	EventRoomDeleted EventKind = "room-deleted"
	EventNoteCreated EventKind = "note-created"
	EventNoteUpdated EventKind = "note-updated"
	EventNoteDeleted EventKind = "note-deleted"
	EventNoteMoved   EventKind = "note-moved"
)

// Event describes one change to a room or one of its notes. ActorID names the
// authenticated user whose write produced the event, which lets consumers
// suppress notifications about their own writes.
type Event struct {
	Kind      EventKind
	RoomID    string
	NoteID    string
	ActorID   string
	Timestamp time.Time
}

// Dispatcher fans change events out to live subscribers keyed by topic.
// Publishing never blocks: a subscriber whose buffer is full misses the event
// and reconciles from the next full snapshot instead.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*subscriber
	nextID      int64
	bufferSize  int
}

type subscriber struct {
	id     int64
	stream chan Event
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subscribers: make(map[string]map[int64]*subscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a listener on the topic. The returned cleanup releases
// the registration; cancelling the context does the same.
func (d *Dispatcher) Subscribe(ctx context.Context, topic string) (<-chan Event, func()) {
	if topic == "" {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	listener := &subscriber{
		id:     d.nextSequence(),
		stream: make(chan Event, d.bufferSize),
	}
	d.register(topic, listener)
	cleanup := func() {
		d.unregister(topic, listener.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return listener.stream, cleanup
}

// Publish delivers the event to every current subscriber of the topic.
func (d *Dispatcher) Publish(topic string, event Event) {
	if topic == "" || event.Kind == "" {
		return
	}
	d.mu.RLock()
	listeners := d.subscribers[topic]
	if len(listeners) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*subscriber, 0, len(listeners))
	for _, listener := range listeners {
		copies = append(copies, listener)
	}
	d.mu.RUnlock()
	for _, listener := range copies {
		select {
		case listener.stream <- event:
		default:
		}
	}
}

func (d *Dispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *Dispatcher) register(topic string, listener *subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[topic]; !ok {
		d.subscribers[topic] = make(map[int64]*subscriber)
	}
	d.subscribers[topic][listener.id] = listener
}

func (d *Dispatcher) unregister(topic string, listenerID int64) {
	d.mu.Lock()
	listeners := d.subscribers[topic]
	if listeners != nil {
		delete(listeners, listenerID)
		if len(listeners) == 0 {
			delete(d.subscribers, topic)
		}
	}
	d.mu.Unlock()
}
