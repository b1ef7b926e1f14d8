package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StateStore guarda states de autorizacion de un solo uso para el flujo
// de login. Consume borra el state al validarlo: un replay del callback
// con el mismo state falla.
type StateStore interface {
	Create(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) (bool, error)
}

type memoryStateStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
}

func NewMemoryStateStore(ttl time.Duration) StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &memoryStateStore{
		ttl:   ttl,
		items: make(map[string]time.Time),
	}
}

func (s *memoryStateStore) Create(_ context.Context) (string, error) {
	state := uuid.NewString()
	s.mu.Lock()
	s.items[state] = time.Now().UTC().Add(s.ttl)
	s.mu.Unlock()
	return state, nil
}

func (s *memoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	if strings.TrimSpace(state) == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[state]
	if !ok {
		return false, nil
	}
	delete(s.items, state)
	if time.Now().UTC().After(exp) {
		return false, nil
	}
	return true, nil
}

type redisStateStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) StateStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisStateStore{
		client: client,
		ttl:    ttl,
		prefix: "oauth:state:",
	}
}

func (s *redisStateStore) Create(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.client.Set(ctx, s.prefix+state, "1", s.ttl).Err(); err != nil {
		return "", err
	}
	return state, nil
}

func (s *redisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	if strings.TrimSpace(state) == "" {
		return false, nil
	}
	_, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
