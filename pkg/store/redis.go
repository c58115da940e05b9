package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	backend "github.com/redis/go-redis/v9"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "graphbuilder:graph:"

// RedisStore stores documents as string keys and keeps a sorted set of
// names scored by last update time.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the expiration for stored graphs. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore connects to the Redis server at address.
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(rdb, opts...)
}

// NewRedisStoreFromClient creates a store from an existing client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks that the server is reachable, retrying transient failures.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := ping(ctx, func(ctx context.Context) error { return s.client.Ping(ctx).Err() }); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

func (s *RedisStore) indexKey() string { return s.prefix + "index" }

func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := apperr.ValidateGraphName(name); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("get %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get from redis: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, name string, data []byte) error {
	if err := apperr.ValidateGraphName(name); err != nil {
		return err
	}

	// The index score is the update time; expiry is derived from it in List.
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(name), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: name,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := apperr.ValidateGraphName(name); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(name))
	pipe.ZRem(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete from redis: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}
	return nil
}

// List prunes index entries whose keys have expired before returning.
func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	if s.ttl > 0 {
		cutoff := time.Now().Add(-s.ttl).UnixMilli()
		err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("(%d", cutoff)).Err()
		if err != nil {
			return nil, fmt.Errorf("prune expired graphs: %w", err)
		}
	}

	members, err := s.client.ZRangeWithScores(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}

	out := make([]Info, 0, len(members))
	for _, m := range members {
		name, ok := m.Member.(string)
		if !ok {
			continue
		}
		ms := int64(math.Round(m.Score))
		out = append(out, Info{Name: name, UpdatedAt: time.UnixMilli(ms)})
	}
	sortInfos(out)
	return out, nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
