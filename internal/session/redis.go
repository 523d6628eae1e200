package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

type redisStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisStore stores sessions as JSON values that expire with the session.
func NewRedisStore(rdb *redis.Client, clock func() time.Time) Store {
	if clock == nil {
		clock = time.Now
	}
	return &redisStore{rdb: rdb, now: clock}
}

// Connect opens a client for addr and pings it. Callers fall back to the
// memory store when it fails.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func (r *redisStore) Create(ctx context.Context, s *Session) error {
	data, ttl, err := r.encode(s)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("failed to save session: already expired at %s", s.ExpiresAt)
	}
	if err := r.rdb.Set(ctx, key(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Save only overwrites an existing key (SET XX), so a session deleted by
// sign-out stays deleted.
func (r *redisStore) Save(ctx context.Context, s *Session) error {
	data, ttl, err := r.encode(s)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		if err := r.Delete(ctx, s.ID); err != nil {
			return err
		}
		return ErrNotFound
	}
	ok, err := r.rdb.SetXX(ctx, key(s.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *redisStore) encode(s *Session) ([]byte, time.Duration, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, s.ExpiresAt.Sub(r.now()), nil
}

func (r *redisStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := r.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

func (r *redisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.rdb.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
