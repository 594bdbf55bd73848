// Package events is an in-process pub/sub broker keyed by game code. The
// watch endpoint subscribes to a code and recomputes the viewer's snapshot
// whenever an accepted action publishes to it.
package events

import "sync"

// Broker fans out change notifications per key. Notifications carry no
// payload; subscribers re-read state themselves, so a slow subscriber only
// coalesces notifications instead of buffering stale snapshots.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan struct{}]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe registers interest in a key. The returned cancel function must
// be called when done; afterwards the channel is never signalled again.
func (b *Broker) Subscribe(key string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	subscribers, ok := b.subs[key]
	if !ok {
		subscribers = make(map[chan struct{}]struct{})
		b.subs[key] = subscribers
	}
	subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[key], ch)
		if len(b.subs[key]) == 0 {
			delete(b.subs, key)
		}
	}
	return ch, cancel
}

// Publish signals every subscriber of the key without blocking. A signal
// already pending on a subscriber's channel coalesces with the new one.
func (b *Broker) Publish(key string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
