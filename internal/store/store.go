// Package store keeps search results, idempotency keys and finished
// recommendations in Redis.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key holds nothing.
var ErrMiss = errors.New("store: miss")

type Store struct {
	client *redis.Client
}

func New(addr string) *Store {
	return newStore(&redis.Options{Addr: addr})
}

func newStore(opts *redis.Options) *Store {
	return &Store{client: redis.NewClient(opts)}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	data, err := s.client.Get(ctx, key).Result()
	return getResult(key, data, err)
}

// getResult maps a GET reply; an absent key and an empty value are both a miss.
func getResult(key, data string, err error) (string, error) {
	if errors.Is(err, redis.Nil) || (err == nil && data == "") {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis GET %s: %w", key, err)
	}
	return data, nil
}

// Set stores value under key. A zero ttl keeps it forever.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Claim marks key as taken and reports whether this call took it.
func (s *Store) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX %s: %w", key, err)
	}
	return ok, nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func SearchKey(query string, limit int) string {
	return fmt.Sprintf("shopping_search:%d:%s", limit, query)
}

func ProcessedKey(processingID string) string {
	return fmt.Sprintf("recommendation:%s:processed", processingID)
}

func ResultKey(processingID string) string {
	return fmt.Sprintf("recommendation:%s", processingID)
}
