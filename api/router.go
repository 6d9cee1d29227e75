package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestsPerMinute int
	Burst             int
	IdempotencyTTL    time.Duration
}

// NewRouter mounts the order routes under /v1 behind auth, rate limiting and
// idempotency. idem may be nil.
func NewRouter(logger *zap.Logger, handler *OrderHandler, resolver PrincipalResolver, idem IdempotencyStore, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	v1 := router.Group("/v1", Auth(resolver), RateLimit(cfg.RequestsPerMinute, cfg.Burst, logger))
	if idem != nil {
		v1.Use(Idempotency(idem, cfg.IdempotencyTTL, logger))
	}
	handler.Register(v1)
	return router
}
