package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sweetpotato0/docqa/config"
	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/memory"
)

// RedisStore keeps one JSON value per turn plus a sorted set of turn IDs
// scored by Seq, so reads come back in commit order.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ memory.MemoryStore = (*RedisStore)(nil)

// RedisConfig locates the server and namespaces the keys. A zero TTL keeps
// turns forever; expired turns drop out of the index on the next search.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore creates a Redis-backed store. It does not dial; use Ping to
// check connectivity.
func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil {
		cfg = RedisConfigFromEnv()
	}
	if err := config.ValidateRedisConfig(cfg.Addr, cfg.DB, cfg.Prefix); err != nil {
		return nil, fmt.Errorf("%w: %w", docerrors.ErrInvalidInput, err)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

func (s *RedisStore) turnKey(id string) string {
	return s.prefix + "turn:" + id
}

// AddMemory stores a snapshot and indexes it by Seq.
func (s *RedisStore) AddMemory(ctx context.Context, mem *memory.Memory) error {
	if err := checkSnapshot(mem); err != nil {
		return err
	}
	data, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("encode turn %s: %w", mem.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.turnKey(mem.ID), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(mem.Seq), Member: mem.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store turn %s: %w", mem.ID, err)
	}
	return nil
}

// SearchMemory returns snapshots whose question or answer contains query,
// in commit order. Index entries whose value expired are pruned.
func (s *RedisStore) SearchMemory(ctx context.Context, query string) ([]*memory.Memory, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read turn index: %w", err)
	}
	if len(ids) == 0 {
		return []*memory.Memory{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.turnKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}

	memories := make([]*memory.Memory, 0, len(values))
	var expired []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var mem memory.Memory
		if err := json.Unmarshal([]byte(raw), &mem); err != nil {
			return nil, fmt.Errorf("decode turn %s: %w", ids[i], err)
		}
		if mem.Matches(query) {
			memories = append(memories, &mem)
		}
	}
	if len(expired) > 0 {
		s.client.ZRem(ctx, s.indexKey(), expired...)
	}
	// ZRange breaks score ties by member, not by commit time.
	slices.SortStableFunc(memories, memory.ByCommitOrder)
	return memories, nil
}

// Clear deletes every indexed turn and the index itself.
func (s *RedisStore) Clear(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read turn index: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.turnKey(id))
	}
	keys = append(keys, s.indexKey())
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	count, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return int(count), nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }
