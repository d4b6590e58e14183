package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"personnel/pkg/platform/sentinel"
)

const keyPrefix = "personnel:baseline:"

// RedisStore keeps the latest Entry per stage as a JSON string.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

// WithTTL expires entries after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func key(stage string) string {
	return keyPrefix + stage
}

func (s *RedisStore) Save(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}
	if err := s.client.Set(ctx, key(e.Stage), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save baseline %s: %w", e.Stage, err)
	}
	return nil
}

func (s *RedisStore) Last(ctx context.Context, stage string) (*Entry, error) {
	raw, err := s.client.Get(ctx, key(stage)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load baseline %s: %w", stage, err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode baseline %s: %w", stage, err)
	}
	return &e, nil
}
