package views

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RevisionRegistry remembers, per appointment id, the highest revision the
// store has confirmed to this process (or to any front-desk terminal, for the
// Redis implementation). It is the basis for stale-view detection: acting on
// a record older than the last accepted revision is refused.
type RevisionRegistry interface {
	// LastAccepted returns the highest recorded revision for the id, or 0
	// when the id has never been seen.
	LastAccepted(ctx context.Context, appointmentID string) (int64, error)
	// Record stores the revision if it is higher than the current one.
	Record(ctx context.Context, appointmentID string, revision int64) error
}

// MemoryRevisions is the single-terminal registry.
type MemoryRevisions struct {
	mu   sync.RWMutex
	revs map[string]int64
}

// NewMemoryRevisions creates an empty in-memory registry.
func NewMemoryRevisions() *MemoryRevisions {
	return &MemoryRevisions{revs: make(map[string]int64)}
}

func (m *MemoryRevisions) LastAccepted(_ context.Context, appointmentID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revs[appointmentID], nil
}

func (m *MemoryRevisions) Record(_ context.Context, appointmentID string, revision int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if revision > m.revs[appointmentID] {
		m.revs[appointmentID] = revision
	}
	return nil
}

// redisRevisionsKey is a sorted set: member appointment id, score revision.
const redisRevisionsKey = "frontdesk:appointment:revisions"

// RedisRevisions shares the registry between reception terminals. ZADD GT
// keeps the highest revision without a read-modify-write race.
type RedisRevisions struct {
	client *redis.Client
}

// NewRedisRevisions creates a registry backed by the given Redis client.
func NewRedisRevisions(client *redis.Client) *RedisRevisions {
	if client == nil {
		panic("views: redis client required")
	}
	return &RedisRevisions{client: client}
}

func (r *RedisRevisions) LastAccepted(ctx context.Context, appointmentID string) (int64, error) {
	score, err := r.client.ZScore(ctx, redisRevisionsKey, appointmentID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("views: read revision: %w", err)
	}
	return int64(score), nil
}

func (r *RedisRevisions) Record(ctx context.Context, appointmentID string, revision int64) error {
	err := r.client.ZAddGT(ctx, redisRevisionsKey, redis.Z{
		Score:  float64(revision),
		Member: appointmentID,
	}).Err()
	if err != nil {
		return fmt.Errorf("views: record revision: %w", err)
	}
	return nil
}
