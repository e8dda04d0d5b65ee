package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ObjectStore is the durable store for rendered image bytes. Put returns a
// stable reference URL of the form /api/qr/image/{id}.{format}.
type ObjectStore interface {
	Put(id, format string, data []byte) (string, error)
	Get(id, format string) ([]byte, error)
}

func refURL(id, format string) string {
	return fmt.Sprintf("/api/qr/image/%s.%s", id, format)
}

// FileStore writes images under a base directory, one file per image.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Put(id, format string, data []byte) (string, error) {
	path := filepath.Join(s.dir, id+"."+format)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return refURL(id, format), nil
}

func (s *FileStore) Get(id, format string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, id+"."+format))
}

// MemoryStore keeps images in memory. Test use only.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(id, format string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id+"."+format] = data
	return refURL(id, format), nil
}

func (s *MemoryStore) Get(id, format string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[id+"."+format]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}
