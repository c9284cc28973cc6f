package basemap

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mohammed-shakir/geopreview/internal/cache/redisstore"
)

// Storage is the key-value persistence the store writes settings documents to.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, val []byte) error
}

type MemoryStorage struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{m: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return slices.Clone(v), ok, nil
}

func (s *MemoryStorage) Put(_ context.Context, key string, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = slices.Clone(val)
	return nil
}

// RedisStorage keeps settings documents in Redis without expiry.
type RedisStorage struct {
	c *redisstore.Client
}

func NewRedisStorage(c *redisstore.Client) *RedisStorage {
	return &RedisStorage{c: c}
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok, err := s.c.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("load settings: %w", err)
	}
	return b, ok, nil
}

func (s *RedisStorage) Put(ctx context.Context, key string, val []byte) error {
	if err := s.c.Set(ctx, key, val, 0); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Ping lets readiness probes check the backing Redis.
func (s *RedisStorage) Ping(ctx context.Context) error { return s.c.Ping(ctx) }
