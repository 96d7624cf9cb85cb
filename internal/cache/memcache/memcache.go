package memcache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/procurehq/vendorscout/internal/cache"
)

// ensure store implements cache.Store
var _ cache.Store = (*store)(nil)

type item struct {
	entry     *cache.Entry
	expiresAt time.Time
}

// store is an in-process TTL map. It serves tests and single-instance
// deployments; the Redis store covers everything else.
type store struct {
	mu    sync.RWMutex
	items map[cache.Fingerprint]item
	now   func() time.Time
}

// New creates an empty in-memory cache store.
func New() cache.Store {
	return &store{
		items: make(map[cache.Fingerprint]item),
		now:   time.Now,
	}
}

func (s *store) Get(ctx context.Context, fp cache.Fingerprint) (*cache.Entry, error) {
	s.mu.RLock()
	it, ok := s.items[fp]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if s.now().After(it.expiresAt) {
		s.mu.Lock()
		delete(s.items, fp)
		s.mu.Unlock()
		return nil, nil
	}
	return it.entry, nil
}

func (s *store) Set(ctx context.Context, fp cache.Fingerprint, entry *cache.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	s.mu.Lock()
	s.items[fp] = item{entry: entry, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *store) Clear(ctx context.Context, batchID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for fp, it := range s.items {
		if it.entry.BatchID == batchID {
			delete(s.items, fp)
			removed++
		}
	}
	return removed, nil
}

func (s *store) Batches(ctx context.Context) ([]cache.BatchInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byBatch := make(map[string]*cache.BatchInfo)
	now := s.now()
	for _, it := range s.items {
		if now.After(it.expiresAt) {
			continue
		}
		info, ok := byBatch[it.entry.BatchID]
		if !ok {
			info = &cache.BatchInfo{BatchID: it.entry.BatchID, CreatedAt: it.entry.CreatedAt}
			byBatch[it.entry.BatchID] = info
		}
		info.Runs++
		info.CandidateCount += len(it.entry.Candidates)
		if it.entry.CreatedAt.Before(info.CreatedAt) {
			info.CreatedAt = it.entry.CreatedAt
		}
	}

	out := make([]cache.BatchInfo, 0, len(byBatch))
	for _, info := range byBatch {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out, nil
}

func (s *store) Close() error { return nil }
