package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airorders/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const idempotencyProcessing = "PROCESSING"

// releaseScript deletes the lock only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// AcquireOrderLock takes the per-order lease. The returned token must be passed to ReleaseOrderLock.
func (c *RedisCache) AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, orderLockKey(orderID), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire order lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (c *RedisCache) ReleaseOrderLock(ctx context.Context, orderID, token string) error {
	if err := releaseScript.Run(ctx, c.client, []string{orderLockKey(orderID)}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release order lock: %w", err)
	}
	return nil
}

// ReserveIdempotencyKey marks key as in progress. It returns false when the key was already seen.
func (c *RedisCache) ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, idempotencyKey(key), idempotencyProcessing, ttl).Result()
}

// StoreIdempotentResponse replaces the in-progress marker with the final response.
func (c *RedisCache) StoreIdempotentResponse(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return c.client.Set(ctx, idempotencyKey(key), response, ttl).Err()
}

// IdempotentResponse returns the stored response; done is false while the first request is still running.
func (c *RedisCache) IdempotentResponse(ctx context.Context, key string) (response []byte, done bool, err error) {
	data, err := c.client.Get(ctx, idempotencyKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if string(data) == idempotencyProcessing {
		return nil, false, nil
	}
	return data, true, nil
}

func (c *RedisCache) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.client.Del(ctx, idempotencyKey(key)).Err()
}

func orderLockKey(orderID string) string {
	return fmt.Sprintf("lock:order:%s", orderID)
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}
