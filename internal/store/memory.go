package store

import (
	"context"
	"sync"
)

// MemoryStore keeps keys in process memory. It is the default backend for
// development and the backend used by tests.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Close marks the store closed; later calls fail with ErrStorageUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Ping reports whether the store is still open.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check("ping")
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("get"); err != nil {
		return "", false, err
	}
	v, ok := s.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("set"); err != nil {
		return err
	}
	s.data[key] = value
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("delete"); err != nil {
		return err
	}
	delete(s.data, key)
	return nil
}

// Update runs fn under the store lock.
func (s *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("update"); err != nil {
		return err
	}
	old, ok := s.data[key]
	next, err := fn(old, ok)
	if err != nil {
		return err
	}
	s.data[key] = next
	return nil
}

func (s *MemoryStore) check(op string) error {
	if s.closed {
		return unavailable(op, errStoreClosed)
	}
	return nil
}
