package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/odiadev/naijatts/internal/speech/engine"
)

const (
	fieldFormat   = "format"
	fieldAudio    = "audio"
	fieldProvider = "provider"
)

// RedisStore shares entries between replicas. Each entry is a hash with
// format, audio and provider fields, stored without expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix. Default is "tts".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore returns a store using client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "tts"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) entryKey(key string) string {
	return s.prefix + ":audio:" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (*engine.Artifact, error) {
	vals, err := s.client.HMGet(ctx, s.entryKey(key), fieldFormat, fieldAudio, fieldProvider).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis hmget failed: %w", err)
	}

	format, _ := vals[0].(string)
	audio, _ := vals[1].(string)
	f, ok := engine.ParseFormat(format)
	if !ok || audio == "" {
		return nil, ErrMiss
	}
	producer, _ := vals[2].(string)
	if producer == "" {
		producer = ProducedBy
	}
	return &engine.Artifact{Audio: []byte(audio), Format: f, ProducedBy: producer}, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, art *engine.Artifact) error {
	err := s.client.HSet(ctx, s.entryKey(key),
		fieldFormat, string(art.Format),
		fieldAudio, art.Audio,
		fieldProvider, art.ProducedBy,
	).Err()
	if err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}
	return nil
}
