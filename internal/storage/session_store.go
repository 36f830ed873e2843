package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore keeps per-visitor state in memory, keyed by a random UUID.
// Entries idle for longer than the TTL are dropped by Sweep. Nothing survives
// a restart.
type SessionStore[T any] struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

type sessionEntry[T any] struct {
	value    T
	lastSeen time.Time
}

func NewSessionStore[T any](ttl time.Duration) *SessionStore[T] {
	return &SessionStore[T]{
		entries: make(map[string]*sessionEntry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create stores the value returned by build under a fresh ID.
func (s *SessionStore[T]) Create(build func(id string) T) T {
	id := uuid.New().String()
	value := build(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &sessionEntry[T]{value: value, lastSeen: s.now()}
	return value
}

// Get returns the value for id and refreshes its idle timer.
func (s *SessionStore[T]) Get(id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || s.expired(entry) {
		var zero T
		return zero, ErrSessionNotFound
	}
	entry.lastSeen = s.now()
	return entry.value, nil
}

func (s *SessionStore[T]) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *SessionStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes expired entries and reports how many were dropped.
func (s *SessionStore[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *SessionStore[T]) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed := s.Sweep()
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

func (s *SessionStore[T]) expired(entry *sessionEntry[T]) bool {
	return s.now().Sub(entry.lastSeen) > s.ttl
}
