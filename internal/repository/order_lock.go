package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
)

const DefaultLockTTL = 30 * time.Second

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOrderLocker is an advisory per-order lock held in Redis.
type RedisOrderLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisOrderLocker(client *redis.Client, ttl time.Duration) *RedisOrderLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisOrderLocker{client: client, ttl: ttl}
}

// Acquire returns models.ErrOrderLocked when another holder owns the lock.
func (l *RedisOrderLocker) Acquire(ctx context.Context, orderID string) (func(), error) {
	key := fmt.Sprintf("order_lock:%s", orderID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock for order %s: %w", orderID, err)
	}
	if !ok {
		return nil, models.ErrOrderLocked
	}

	release := func() {
		if err := releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Err(); err != nil {
			telemetry.Logger.Warn("Failed to release order lock",
				zap.String("order_id", orderID),
				zap.Error(err),
			)
		}
	}
	return release, nil
}
