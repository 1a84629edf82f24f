package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is a durably armed deadline.
type Entry struct {
	AssignmentID string
	FireAt       time.Time
}

// Store persists armed deadlines so a restarted process can re-arm them.
type Store interface {
	Save(ctx context.Context, assignmentID string, fireAt time.Time) error
	Remove(ctx context.Context, assignmentID string) error
	All(ctx context.Context) ([]Entry, error)
}

// DefaultKey is the sorted set holding armed deadlines.
const DefaultKey = "assignment:expiry"

// RedisStore keeps deadlines in a sorted set scored by unix milliseconds.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

// NewRedisStore creates a RedisStore using key, or DefaultKey when key is empty.
func NewRedisStore(rdb redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

// Save records fireAt for assignmentID, replacing any previous value.
func (s *RedisStore) Save(ctx context.Context, assignmentID string, fireAt time.Time) error {
	err := s.rdb.ZAdd(ctx, s.key, redis.Z{
		Score:  float64(fireAt.UnixMilli()),
		Member: assignmentID,
	}).Err()
	if err != nil {
		return fmt.Errorf("save expiry %s: %w", assignmentID, err)
	}
	return nil
}

// Remove forgets assignmentID.
func (s *RedisStore) Remove(ctx context.Context, assignmentID string) error {
	if err := s.rdb.ZRem(ctx, s.key, assignmentID).Err(); err != nil {
		return fmt.Errorf("remove expiry %s: %w", assignmentID, err)
	}
	return nil
}

// All returns every armed deadline, earliest first.
func (s *RedisStore) All(ctx context.Context) ([]Entry, error) {
	zs, err := s.rdb.ZRangeWithScores(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list expiries: %w", err)
	}
	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, Entry{AssignmentID: id, FireAt: time.UnixMilli(int64(z.Score)).UTC()})
	}
	return out, nil
}
