package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of both store interfaces,
// used in tests and as a degraded fallback when Redis is unreachable.
type MemoryStore struct {
	mu     sync.RWMutex
	kv     map[string]string
	drafts map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kv:     make(map[string]string),
		drafts: make(map[string]string),
	}
}

func (s *MemoryStore) Put(_ context.Context, token, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[SessionKey(token, key)] = value
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.kv[SessionKey(token, key)]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *MemoryStore) Clear(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range SessionKeys {
		delete(s.kv, SessionKey(token, k))
	}
	return nil
}

func (s *MemoryStore) SaveDraft(_ context.Context, token, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[DraftKey(token)] = payload
	return nil
}

func (s *MemoryStore) LoadDraft(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.drafts[DraftKey(token)]
	if !ok {
		return "", ErrNotFound
	}
	return payload, nil
}

func (s *MemoryStore) DeleteDraft(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, DraftKey(token))
	return nil
}

// Len reports how many ephemeral keys are held, for purge assertions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kv)
}
