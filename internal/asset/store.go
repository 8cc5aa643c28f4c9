package asset

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a handle is requested before its key was registered.
var ErrNotFound = errors.New("asset: not found")

// Store holds the assets of one type, keyed by name.
type Store[T any] struct {
	kind string
	mu   sync.RWMutex
	byID map[string]*entry[T]
}

func NewStore[T any](kind string) *Store[T] {
	return &Store[T]{
		kind: kind,
		byID: make(map[string]*entry[T], 8),
	}
}

// Register publishes value under key and returns a handle to it. If key is
// already registered the existing value is kept and a clone of it returned.
// The bool reports whether this call created the entry.
func (s *Store[T]) Register(key string, value T) (Handle[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byID[key]; ok {
		return Handle[T]{e: e}.Clone(), false
	}
	e := &entry[T]{key: key, value: value}
	e.refs.Store(1) // the store's own reference
	s.byID[key] = e
	return Handle[T]{e: e}.Clone(), true
}

// Get returns a clone of the handle registered under key.
func (s *Store[T]) Get(key string) (Handle[T], error) {
	s.mu.RLock()
	e, ok := s.byID[key]
	s.mu.RUnlock()
	if !ok {
		return Handle[T]{}, fmt.Errorf("%s %q: %w", s.kind, key, ErrNotFound)
	}
	return Handle[T]{e: e}.Clone(), nil
}

// MustGet is Get for call sites where a missing asset is a programming error.
func (s *Store[T]) MustGet(key string) Handle[T] {
	h, err := s.Get(key)
	if err != nil {
		panic(err)
	}
	return h
}

func (s *Store[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[key]
	return ok
}

func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
