package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stockwatch/internal/models"
)

// DedupGuard decides whether a product may be alerted on now. Allow is called
// once per dispatch, before any channel is attempted.
type DedupGuard interface {
	Allow(ctx context.Context, storeID string, productID int64, now time.Time) (bool, error)
}

// AlertHistory reads the newest audit record for a product.
type AlertHistory interface {
	LatestAlert(ctx context.Context, storeID string, productID int64) (*models.AlertRecord, error)
}

// RecordGuard compares against the latest AlertRecord. Two events racing
// through the window can both pass; the guard is best effort.
type RecordGuard struct {
	history AlertHistory
	window  time.Duration
}

func NewRecordGuard(history AlertHistory, window time.Duration) *RecordGuard {
	return &RecordGuard{history: history, window: window}
}

func (g *RecordGuard) Allow(ctx context.Context, storeID string, productID int64, now time.Time) (bool, error) {
	last, err := g.history.LatestAlert(ctx, storeID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to load latest alert: %w", err)
	}
	if last == nil {
		return true, nil
	}
	return now.Sub(last.CreatedAt) >= g.window, nil
}

const redisKeyPrefix = "stockwatch:alert"

// RedisGuard claims the window atomically with SET NX EX, so concurrent
// events for one product produce a single alert.
type RedisGuard struct {
	client redis.UniversalClient
	window time.Duration
}

func NewRedisGuard(client redis.UniversalClient, window time.Duration) *RedisGuard {
	return &RedisGuard{client: client, window: window}
}

func (g *RedisGuard) Allow(ctx context.Context, storeID string, productID int64, now time.Time) (bool, error) {
	ok, err := g.client.SetNX(ctx, dedupKey(storeID, productID), now.UTC().Format(time.RFC3339), g.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim alert window: %w", err)
	}
	return ok, nil
}

func dedupKey(storeID string, productID int64) string {
	return fmt.Sprintf("%s:%s:%d", redisKeyPrefix, storeID, productID)
}
