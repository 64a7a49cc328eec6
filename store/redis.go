// Package store provides the Redis-backed session store. The in-memory
// store lives in the root package; this backend is selected when a Redis
// address is configured, so sessions survive bot restarts for the duration
// of their TTL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksana-psy/assistbot"
)

// RedisConfig configures the Redis session store.
type RedisConfig struct {
	// Prefix namespaces session keys, default "sess".
	Prefix string
	// TTL is the expiry for stored sessions, 0 = no expiry. An abandoned
	// in-progress test holds memory until it expires or is cancelled.
	TTL time.Duration
}

// RedisSessionStore implements assistbot.SessionStore on Redis. Sessions are
// stored as JSON under "{prefix}:{userID}". Redis serializes commands per
// key, which gives the per-user linearizability the store contract asks for.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore creates a session store over an existing client.
func NewRedisSessionStore(client *redis.Client, config ...RedisConfig) *RedisSessionStore {
	cfg := RedisConfig{Prefix: "sess"}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "sess"
	}
	return &RedisSessionStore{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}
}

func (r *RedisSessionStore) key(userID int64) string {
	return fmt.Sprintf("%s:%d", r.prefix, userID)
}

func (r *RedisSessionStore) Get(ctx context.Context, userID int64) (*assistbot.Session, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var sess assistbot.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (r *RedisSessionStore) Create(ctx context.Context, userID int64) (*assistbot.Session, error) {
	sess := &assistbot.Session{UserID: userID, State: assistbot.StateTestSelection}
	if err := r.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, sess *assistbot.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(sess.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Remove(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
