package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// Redis stores snapshots as JSON strings that expire after the max age.
// A sorted set indexes the session ids by expiry.
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*Redis)

// WithTTL sets the expiration of snapshots. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis connects to the redis server at address.
func NewRedis(address, password string, db int, opts ...RedisOption) *Redis {
	return NewRedisFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: "cribbage:snapshot:", ttl: DefaultMaxAge}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *Redis) indexKey() string {
	return r.prefix + "index"
}

func (r *Redis) Save(ctx context.Context, s *Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	score := float64(4102444800) // 2100-01-01
	if r.ttl > 0 {
		score = float64(time.Now().Add(r.ttl).Unix())
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(s.SessionID), data, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{Score: score, Member: s.SessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if err := checkFresh(&s, r.ttl); err != nil {
		_ = r.Delete(ctx, sessionID)
		return nil, err
	}
	return &s, nil
}

func (r *Redis) Delete(ctx context.Context, sessionID string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(sessionID))
	pipe.ZRem(ctx, r.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List prunes expired entries from the index and returns the rest.
func (r *Redis) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := r.client.ZRemRangeByScore(ctx, r.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired snapshots: %w", err)
	}
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return ids, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
