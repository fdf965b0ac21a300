package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FlowStore holds in-flight flows. Two drivers: Redis for production and an
// in-process map for tests and development.
type FlowStore interface {
	Save(ctx context.Context, f *Flow) error
	Get(ctx context.Context, id string) (*Flow, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps each flow as a JSON blob with a TTL, so abandoned flows
// disappear on their own.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func flowKey(id string) string { return fmt.Sprintf("checkout:flow:%s", id) }

func (s *RedisStore) Save(ctx context.Context, f *Flow) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, flowKey(f.ID), b, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Flow, error) {
	b, err := s.rdb.Get(ctx, flowKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, err
	}
	var f Flow
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, flowKey(id)).Err()
}

// MemoryStore is the in-process driver. Not durable, no TTL.
type MemoryStore struct {
	mu    sync.Mutex
	flows map[string]Flow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flows: make(map[string]Flow)}
}

func (s *MemoryStore) Save(_ context.Context, f *Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[f.ID] = *f
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	cp := f
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
	return nil
}
