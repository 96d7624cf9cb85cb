package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/procurehq/vendorscout/internal/cache"
)

// ensure store implements cache.Store
var _ cache.Store = (*store)(nil)

const (
	batchSetKey    = "vendorscout:batches"
	batchKeyPrefix = "vendorscout:batch:"
)

// store caches ranked candidate lists in Redis. Entries expire via TTL;
// a per-batch set tracks the fingerprints owned by each batch so Clear can
// drop them without scanning the keyspace.
type store struct {
	rdb *redis.Client
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (cache.Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &store{rdb: rdb}, nil
}

func (s *store) Get(ctx context.Context, fp cache.Fingerprint) (*cache.Entry, error) {
	data, err := s.rdb.Get(ctx, string(fp)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var entry cache.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("cache entry corrupt: %w", err)
	}
	return &entry, nil
}

func (s *store) Set(ctx context.Context, fp cache.Fingerprint, entry *cache.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache entry marshal failed: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, string(fp), data, ttl)
	pipe.SAdd(ctx, batchSetKey, entry.BatchID)
	pipe.SAdd(ctx, batchKeyPrefix+entry.BatchID, string(fp))
	// The membership sets outlive entries slightly so Clear still finds
	// expired fingerprints; stale members are skipped on read.
	pipe.Expire(ctx, batchKeyPrefix+entry.BatchID, ttl+time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (s *store) Clear(ctx context.Context, batchID string) (int, error) {
	fps, err := s.rdb.SMembers(ctx, batchKeyPrefix+batchID).Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("cache clear failed: %w", err)
	}

	removed := 0
	if len(fps) > 0 {
		n, err := s.rdb.Del(ctx, fps...).Result()
		if err != nil {
			return 0, fmt.Errorf("cache clear failed: %w", err)
		}
		removed = int(n)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, batchKeyPrefix+batchID)
	pipe.SRem(ctx, batchSetKey, batchID)
	if _, err := pipe.Exec(ctx); err != nil {
		return removed, fmt.Errorf("cache clear failed: %w", err)
	}
	return removed, nil
}

func (s *store) Batches(ctx context.Context) ([]cache.BatchInfo, error) {
	ids, err := s.rdb.SMembers(ctx, batchSetKey).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("batch listing failed: %w", err)
	}

	var out []cache.BatchInfo
	for _, id := range ids {
		fps, err := s.rdb.SMembers(ctx, batchKeyPrefix+id).Result()
		if err != nil {
			continue
		}

		info := cache.BatchInfo{BatchID: id}
		for _, fp := range fps {
			entry, err := s.Get(ctx, cache.Fingerprint(fp))
			if err != nil || entry == nil {
				continue
			}
			info.Runs++
			info.CandidateCount += len(entry.Candidates)
			if info.CreatedAt.IsZero() || entry.CreatedAt.Before(info.CreatedAt) {
				info.CreatedAt = entry.CreatedAt
			}
		}
		if info.Runs > 0 {
			out = append(out, info)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out, nil
}

func (s *store) Close() error {
	return s.rdb.Close()
}
