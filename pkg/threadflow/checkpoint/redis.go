package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists checkpoints to Redis.
// Use it when several processes serve the same conversation threads.
//
// Each thread's checkpoint lives under prefix+threadID; a ZSET under
// prefix+"index" (scored by update time) supports List without
// scanning the keyspace. An optional TTL expires idle threads.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	mu     sync.RWMutex
	closed bool
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix. Defaults to "threadflow:checkpoint:".
// Give each agent its own prefix to keep their threads separate.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL sets the expiration for idle threads. Zero means no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a Redis checkpoint store with its own client.
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient creates a Redis checkpoint store from an
// existing client. The store takes ownership: Close closes the client.
func NewRedisStoreFromClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: "threadflow:checkpoint:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) key(threadID string) string {
	return s.prefix + threadID
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

func (s *RedisStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, threadID string, data []byte) error {
	if s.isClosed() {
		return ErrStoreClosed
	}

	pipe := s.client.Pipeline()

	pipe.Set(ctx, s.key(threadID), data, s.ttl)
	// Millisecond scores keep List ordering stable for rapid saves.
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: threadID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save checkpoint to redis: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, threadID string) ([]byte, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}

	data, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load checkpoint from redis: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}

	// Lazy cleanup: with a TTL, index entries older than the TTL point
	// at expired keys.
	if s.ttl > 0 {
		cutoff := float64(time.Now().Add(-s.ttl).UnixMilli())
		if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", cutoff)).Err(); err != nil {
			return nil, fmt.Errorf("prune expired checkpoints: %w", err)
		}
	}

	entries, err := s.client.ZRevRangeWithScores(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list checkpoints from redis: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		threadID, ok := entry.Member.(string)
		if !ok {
			continue
		}

		size, err := s.client.StrLen(ctx, s.key(threadID)).Result()
		if err != nil {
			return nil, fmt.Errorf("size checkpoint %s: %w", threadID, err)
		}
		if size == 0 {
			// Value expired but index survived; drop the stale entry.
			s.client.ZRem(ctx, s.indexKey(), threadID)
			continue
		}

		infos = append(infos, Info{
			ThreadID:  threadID,
			UpdatedAt: time.UnixMilli(int64(entry.Score)).UTC(),
			Size:      size,
		})
	}

	return infos, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, threadID string) error {
	if s.isClosed() {
		return ErrStoreClosed
	}

	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(threadID))
	pipe.ZRem(ctx, s.indexKey(), threadID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete checkpoint from redis: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
