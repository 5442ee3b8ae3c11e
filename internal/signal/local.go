package signal

import (
	"context"
	"sync"
)

// Local is an in-process bus. Handlers run on the publisher's goroutine.
type Local struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func()
	closed bool
}

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[uint64]func())}
}

func (l *Local) Publish(_ context.Context, userID string) error {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := make([]func(), 0, len(l.subs[userID]))
	for _, fn := range l.subs[userID] {
		handlers = append(handlers, fn)
	}
	l.mu.RUnlock()

	for _, fn := range handlers {
		fn()
	}
	return nil
}

func (l *Local) Subscribe(_ context.Context, userID string, fn func()) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrBusClosed
	}

	l.nextID++
	id := l.nextID
	if l.subs[userID] == nil {
		l.subs[userID] = make(map[uint64]func())
	}
	l.subs[userID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs[userID], id)
			if len(l.subs[userID]) == 0 {
				delete(l.subs, userID)
			}
		})
	}, nil
}

// Subscribers returns the number of live registrations for userID.
func (l *Local) Subscribers(userID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs[userID])
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.subs = make(map[string]map[uint64]func())
	return nil
}
