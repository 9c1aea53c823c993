package core

import "sync"

// Broadcaster pings subscribers when a session's state changes.
// Subscribers re-read the state on each ping; pings carry no data.
type Broadcaster struct {
	mu        sync.Mutex
	listeners map[chan struct{}]struct{}
	closed    bool
}

// NewBroadcaster returns an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[chan struct{}]struct{})}
}

// Subscribe returns a channel that receives a ping after each change.
// The channel is closed by Unsubscribe or Close.
func (b *Broadcaster) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	b.listeners[ch] = struct{}{}
	return ch
}

// Unsubscribe removes ch and closes it. Unknown channels are ignored.
func (b *Broadcaster) Unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.listeners[ch]; ok {
		delete(b.listeners, ch)
		close(ch)
	}
}

// Broadcast pings every subscriber without blocking. A subscriber that has
// not consumed its last ping already has one pending and is skipped.
func (b *Broadcaster) Broadcast() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.listeners {
		close(ch)
		delete(b.listeners, ch)
	}
}

// Len returns the number of subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
