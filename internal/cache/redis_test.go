package cache

import (
	"testing"

	"github.com/Domenick1991/airorders/config"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379"})
	assert.NotNil(t, c)
	assert.NoError(t, c.Close())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "lock:order:ord_1", orderLockKey("ord_1"))
	assert.Equal(t, "idempotency:abc", idempotencyKey("abc"))
}
