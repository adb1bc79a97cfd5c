package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore range les codes sous otp:<purpose>:<ownerID>. La clé Redis
// vit deux fois plus longtemps que le TTL logique : dans cette fenêtre,
// un code périmé est encore lisible et Verify peut répondre ErrExpired
// au lieu d'ErrNotFound.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func key(ownerID string, purpose Purpose) string {
	return fmt.Sprintf("otp:%s:%s", purpose, ownerID)
}

func (s *RedisStore) Put(ctx context.Context, ownerID string, purpose Purpose, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(ownerID, purpose), data, 2*ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, ownerID string, purpose Purpose) (Record, bool, error) {
	data, err := s.rdb.Get(ctx, key(ownerID, purpose)).Result()
	if err == redis.Nil {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, ownerID string, purpose Purpose) error {
	return s.rdb.Del(ctx, key(ownerID, purpose)).Err()
}
