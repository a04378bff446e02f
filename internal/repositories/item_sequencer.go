package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemSequencer hands out the per-request sequence used in pickup item codes
type ItemSequencer interface {
	NextSequence(ctx context.Context, requestID primitive.ObjectID) (int64, error)
}

// countSequencer reads the current item count and adds one. Two concurrent
// creations can draw the same number; the unique index on code catches that.
type countSequencer struct {
	items PickupItemRepository
}

func NewCountSequencer(items PickupItemRepository) ItemSequencer {
	return &countSequencer{items: items}
}

func (s *countSequencer) NextSequence(ctx context.Context, requestID primitive.ObjectID) (int64, error) {
	n, err := s.items.CountItemsByRequestID(ctx, requestID)
	if err != nil {
		return 0, fmt.Errorf("count pickup items: %w", err)
	}
	return n + 1, nil
}

// redisSequencer keeps an atomic counter per request, seeded from the stored item count
type redisSequencer struct {
	client *redis.Client
	items  PickupItemRepository
}

func NewRedisSequencer(client *redis.Client, items PickupItemRepository) ItemSequencer {
	return &redisSequencer{client: client, items: items}
}

func itemSequenceKey(requestID primitive.ObjectID) string {
	return "pickup:item-seq:" + requestID.Hex()
}

func (s *redisSequencer) NextSequence(ctx context.Context, requestID primitive.ObjectID) (int64, error) {
	key := itemSequenceKey(requestID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists %s: %w", key, err)
	}
	if exists == 0 {
		n, err := s.items.CountItemsByRequestID(ctx, requestID)
		if err != nil {
			return 0, fmt.Errorf("count pickup items: %w", err)
		}
		// SETNX so a concurrent seeder cannot reset a counter that is already moving.
		if err := s.client.SetNX(ctx, key, n, 0).Err(); err != nil {
			return 0, fmt.Errorf("redis setnx %s: %w", key, err)
		}
	}
	seq, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return seq, nil
}
