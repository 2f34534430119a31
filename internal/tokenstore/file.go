package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FileProvider хранит данные каждого экземпляра в JSON-файле dir/<instance>.json.
type FileProvider struct {
	dir string

	mu     sync.Mutex
	stores map[string]*FileStore
}

// NewFileProvider создаёт провайдер в каталоге dir.
func NewFileProvider(dir string) (*FileProvider, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("token store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir token store dir: %w", err)
	}
	return &FileProvider{dir: dir, stores: make(map[string]*FileStore)}, nil
}

// Open загружает файл экземпляра. Идентификатор экземпляра обязан быть uuid,
// иначе его нельзя использовать как имя файла.
func (p *FileProvider) Open(_ context.Context, instance string) (Store, error) {
	if _, err := uuid.Parse(instance); err != nil {
		return nil, fmt.Errorf("invalid instance id %q: %w", instance, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.stores[instance]; ok {
		return s, nil
	}
	s := &FileStore{
		path: filepath.Join(p.dir, instance+".json"),
		kv:   make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	p.stores[instance] = s
	return s, nil
}

// Close забывает открытые хранилища; данные уже лежат на диске.
func (p *FileProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stores = make(map[string]*FileStore)
	return nil
}

// FileStore — хранилище одного экземпляра в JSON-файле.
type FileStore struct {
	path string

	mu sync.RWMutex
	kv map[string]string
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.kv[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return s.persistLocked()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kv[key]; !ok {
		return nil
	}
	delete(s.kv, key)
	return s.persistLocked()
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv = make(map[string]string)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token store file: %w", err)
	}
	return nil
}

func (s *FileStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read token store file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &s.kv); err != nil {
		return fmt.Errorf("decode token store file: %w", err)
	}
	return nil
}

func (s *FileStore) persistLocked() error {
	b, err := json.MarshalIndent(s.kv, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token store file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write token store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename token store file: %w", err)
	}
	return nil
}
