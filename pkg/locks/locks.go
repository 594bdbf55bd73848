// Package locks provides per-key mutual exclusion. Each game code gets its
// own lock, so mutations on one game serialize while different games never
// block each other.
package locks

import (
	"context"
	"fmt"
	"sync"
)

type ErrAcquireTimeout struct {
	Key string
}

func (e *ErrAcquireTimeout) Error() string {
	return fmt.Sprintf("timed out waiting for lock on %s", e.Key)
}

// IsAcquireTimeout reports whether err is a lock acquisition timeout. This
// is a transient failure; callers may retry.
func IsAcquireTimeout(err error) bool {
	_, ok := err.(*ErrAcquireTimeout)
	return ok
}

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is a set of mutexes addressed by string key. Entries are
// created on demand and removed when no goroutine holds or waits for them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

// Acquire blocks until the key's lock is held or ctx is done. On success it
// returns a release function that must be called exactly once. A deadline
// on ctx bounds the wait; expiry yields ErrAcquireTimeout.
func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			m.put(key, e)
		}, nil
	case <-ctx.Done():
		m.put(key, e)
		return nil, &ErrAcquireTimeout{Key: key}
	}
}

func (m *KeyedMutex) put(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}
