package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketpulse/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

const redisKey = "marketpulse:session:dashboard"

// RedisStore shares the credential between replicas via Redis. The key
// expires together with the credential so stale tokens age out on their
// own.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Load(ctx context.Context) (models.Credential, bool, error) {
	b, err := s.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Credential{}, false, nil
	}
	if err != nil {
		return models.Credential{}, false, fmt.Errorf("redis get: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal(b, &cred); err != nil {
		return models.Credential{}, false, nil
	}
	return cred, true, nil
}

func (s *RedisStore) Save(ctx context.Context, cred models.Credential) error {
	b, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	ttl := time.Until(cred.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.client.Set(ctx, redisKey, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
