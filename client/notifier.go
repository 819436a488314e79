package client

import "sync"

// Notification reports that another user added a note to a subscribed room.
type Notification struct {
	RoomID string
	Note   Note
}

// Notifier fans Notifications out to registered callbacks.
type Notifier struct {
	mu          sync.Mutex
	nextID      int64
	subscribers map[int64]func(Notification)
}

func NewNotifier() *Notifier {
	return &Notifier{subscribers: map[int64]func(Notification){}}
}

// Subscribe registers a callback and returns its removal function.
func (n *Notifier) Subscribe(callback func(Notification)) func() {
	n.mu.Lock()
	n.nextID++
	subscriberID := n.nextID
	n.subscribers[subscriberID] = callback
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subscribers, subscriberID)
		n.mu.Unlock()
	}
}

// Publish delivers the notification to every subscriber. Callbacks run on
// the publishing goroutine, outside the notifier's lock.
func (n *Notifier) Publish(notification Notification) {
	n.mu.Lock()
	callbacks := make([]func(Notification), 0, len(n.subscribers))
	for _, callback := range n.subscribers {
		callbacks = append(callbacks, callback)
	}
	n.mu.Unlock()

	for _, callback := range callbacks {
		callback(notification)
	}
}

var (
	sharedNotifierOnce sync.Once
	sharedNotifier     *Notifier
)

// SharedNotifier returns the process-wide notifier. It is created exactly
// once, no matter how many clients or subscriptions exist.
func SharedNotifier() *Notifier {
	sharedNotifierOnce.Do(func() {
		sharedNotifier = NewNotifier()
	})
	return sharedNotifier
}

// SubscribeToNotifications registers a callback with the process-wide
// notifier.
func SubscribeToNotifications(callback func(Notification)) func() {
	return SharedNotifier().Subscribe(callback)
}
