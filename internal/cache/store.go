package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrMiss is returned by Store.Get when the key holds nothing.
var ErrMiss = errors.New("cache: miss")

// Entry is a cached payload and the time it was fetched.
type Entry struct {
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
}

// LearningKey names the learning page entry of one user in one batch.
func LearningKey(batchID, userID uuid.UUID) string {
	return fmt.Sprintf("learning_%s_%s", batchID, userID)
}

// MemoryStore keeps entries for the life of the process, like a browser session.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	cp := Entry{Payload: append(json.RawMessage(nil), e.Payload...), Timestamp: e.Timestamp}
	return &cp, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Payload: append(json.RawMessage(nil), e.Payload...), Timestamp: e.Timestamp}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
