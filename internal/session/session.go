// Package session keeps per-browser-session key/value pairs, the server-side
// counterpart of the page's session storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys the play page reads.
const (
	KeyModelName = "modelName"
	KeyUserColor = "userColor"
)

// Store holds string values per session id.
type Store interface {
	Get(ctx context.Context, sid, key string) (string, bool, error)
	Set(ctx context.Context, sid, key, value string) error
}

// RedisStore keeps one hash per session. Every access extends its TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to the Redis server named by url.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStoreFromClient(rdb, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) key(sid string) string { return "whales:session:" + sid }

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, s.key(sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if s.ttl > 0 {
		_ = s.rdb.Expire(ctx, s.key(sid), s.ttl).Err()
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.key(sid), key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(sid), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error { return s.rdb.Close() }

// MemoryStore is the in-process fallback used when no Redis is configured.
// Sessions never expire.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[sid][key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[sid]
	if !ok {
		m = make(map[string]string)
		s.data[sid] = m
	}
	m[key] = value
	return nil
}

// Bound is a Store narrowed to one session.
type Bound struct {
	store Store
	sid   string
}

// Bind narrows store to the session sid.
func Bind(store Store, sid string) Bound { return Bound{store: store, sid: sid} }

func (b Bound) Get(ctx context.Context, key string) (string, bool, error) {
	return b.store.Get(ctx, b.sid, key)
}

func (b Bound) Set(ctx context.Context, key, value string) error {
	return b.store.Set(ctx, b.sid, key, value)
}
