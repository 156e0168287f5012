package repository

import (
	"context"
	"log/slog"
	"sync"

	"claim-evaluation-service/internal/imaging"

	"github.com/redis/go-redis/v9"
)

// HashStore is the duplicate-detection capability: an atomic
// check-then-insert over the set of previously seen image hashes.
// CheckAndInsert returns whether the hash matches a stored one (exact
// or within the similarity threshold) and the similarity confidence as
// a percentage. Non-duplicates are inserted before returning, inside
// the same critical section, so two concurrent submissions of the same
// image cannot both pass as originals.
type HashStore interface {
	CheckAndInsert(ctx context.Context, hash string) (isDuplicate bool, confidence float64, err error)
	Size() int
}

// MemoryHashStore keeps the hash set in process memory guarded by a
// single mutex. The membership scan is O(n) over stored hashes, which
// is acceptable at claim-image volumes; a Hamming-space index is the
// upgrade path if the set ever grows past that.
type MemoryHashStore struct {
	mu        sync.Mutex
	hashes    map[string]struct{}
	threshold float64
}

func NewMemoryHashStore(threshold float64) *MemoryHashStore {
	return &MemoryHashStore{
		hashes:    make(map[string]struct{}),
		threshold: threshold,
	}
}

func (s *MemoryHashStore) CheckAndInsert(_ context.Context, hash string) (bool, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	isDup, confidence := s.checkLocked(hash)
	if !isDup {
		s.hashes[hash] = struct{}{}
	}
	return isDup, confidence, nil
}

func (s *MemoryHashStore) checkLocked(hash string) (bool, float64) {
	if len(s.hashes) == 0 {
		return false, 0.0
	}

	if _, ok := s.hashes[hash]; ok {
		return true, 100.0
	}

	maxSimilarity := 0.0
	for stored := range s.hashes {
		if sim := imaging.HammingSimilarity(hash, stored); sim > maxSimilarity {
			maxSimilarity = sim
		}
	}

	return maxSimilarity >= s.threshold, maxSimilarity * 100.0
}

// Size returns the number of stored hashes.
func (s *MemoryHashStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hashes)
}

// seed loads previously persisted hashes. Only used at startup.
func (s *MemoryHashStore) seed(hashes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hashes {
		s.hashes[h] = struct{}{}
	}
}

const redisHashSetKey = "claim:image_hashes"

// RedisHashStore wraps a MemoryHashStore with write-through persistence
// to a Redis set, so the duplicate database survives restarts. The
// similarity scan still runs in memory; Redis only mirrors membership.
type RedisHashStore struct {
	mem *MemoryHashStore
	rdb *redis.Client
}

func NewRedisHashStore(ctx context.Context, rdb *redis.Client, threshold float64) (*RedisHashStore, error) {
	mem := NewMemoryHashStore(threshold)

	stored, err := rdb.SMembers(ctx, redisHashSetKey).Result()
	if err != nil {
		return nil, err
	}
	mem.seed(stored)
	slog.Info("loaded image hash set from redis", "count", len(stored))

	return &RedisHashStore{mem: mem, rdb: rdb}, nil
}

func (s *RedisHashStore) CheckAndInsert(ctx context.Context, hash string) (bool, float64, error) {
	isDup, confidence, err := s.mem.CheckAndInsert(ctx, hash)
	if err != nil {
		return false, 0, err
	}

	if !isDup {
		if err := s.rdb.SAdd(ctx, redisHashSetKey, hash).Err(); err != nil {
			// The in-memory set already holds the hash, so duplicate
			// detection keeps working for this process; only restart
			// durability is degraded.
			slog.Warn("failed to persist image hash to redis", "error", err)
		}
	}
	return isDup, confidence, nil
}

func (s *RedisHashStore) Size() int {
	return s.mem.Size()
}
