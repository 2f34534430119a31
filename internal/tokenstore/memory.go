package tokenstore

import (
	"context"
	"sync"
)

// MemoryProvider держит данные всех экземпляров в памяти процесса.
type MemoryProvider struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryProvider создаёт пустое хранилище в памяти.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{data: make(map[string]map[string]string)}
}

// Open возвращает представление хранилища для экземпляра.
func (p *MemoryProvider) Open(_ context.Context, instance string) (Store, error) {
	return &memoryStore{p: p, instance: instance}, nil
}

// Close ничего не делает.
func (p *MemoryProvider) Close() error { return nil }

type memoryStore struct {
	p        *MemoryProvider
	instance string
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()

	v, ok := s.p.data[s.instance][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	kv, ok := s.p.data[s.instance]
	if !ok {
		kv = make(map[string]string)
		s.p.data[s.instance] = kv
	}
	kv[key] = value
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	delete(s.p.data[s.instance], key)
	return nil
}

func (s *memoryStore) Clear(_ context.Context) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	delete(s.p.data, s.instance)
	return nil
}
