package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const principalKey = "principal"

// PrincipalResolver turns a bearer token into the caller's id.
type PrincipalResolver interface {
	Principal(token string) (string, error)
}

func principal(c *gin.Context) string {
	return c.GetString(principalKey)
}

// Auth requires a valid bearer token and stores its subject as the principal.
func Auth(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if !strings.HasPrefix(header, "Bearer ") || token == "" {
			writeError(c, domain.ErrAuthRequired(), true)
			return
		}
		sub, err := resolver.Principal(token)
		if err != nil {
			writeError(c, domain.ErrAuthRequired(), true)
			return
		}
		c.Set(principalKey, sub)
		c.Next()
	}
}

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// limiterStore drops limiters idle for longer than idle. An entry idle that
// long has refilled its bucket, so a fresh limiter behaves the same.
type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(limit rate.Limit, burst int) *limiterStore {
	idle := limiterIdleTTL
	if refill := time.Duration(float64(burst) / float64(limit) * float64(time.Second)); refill > idle {
		idle = refill
	}
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		burst:    burst,
		idle:     idle,
		now:      time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idle {
		s.sweep(now)
	}
	e, ok := s.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = e
	}
	e.seen = now
	return e.limiter
}

func (s *limiterStore) sweep(now time.Time) {
	for key, e := range s.limiters {
		if now.Sub(e.seen) >= s.idle {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimit limits requests per principal, falling back to the client IP.
func RateLimit(requestsPerMinute, burst int, logger *zap.Logger) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 120
	}
	if burst <= 0 {
		burst = 1
	}
	store := newLimiterStore(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
	return func(c *gin.Context) {
		key := principal(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !store.get(key).Allow() {
			logger.Warn("rate limit exceeded", zap.String("caller", key))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorBody{Code: "RATE_LIMITED", Message: "too many requests"}})
			return
		}
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("principal", principal(c)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

// IdempotencyStore keeps the first response of a request sent with an Idempotency-Key.
type IdempotencyStore interface {
	ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	StoreIdempotentResponse(ctx context.Context, key string, response []byte, ttl time.Duration) error
	IdempotentResponse(ctx context.Context, key string) ([]byte, bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated mutating request.
// Keys are scoped to the principal, method and path. A store outage lets the
// request through unprotected.
func Idempotency(store IdempotencyStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
			c.Next()
			return
		}
		header := c.GetHeader("Idempotency-Key")
		if header == "" {
			c.Next()
			return
		}
		key := principal(c) + ":" + method + ":" + c.Request.URL.Path + ":" + header
		ctx := c.Request.Context()

		data, done, err := store.IdempotentResponse(ctx, key)
		if err != nil {
			logger.Warn("idempotency lookup", zap.Error(err))
			c.Next()
			return
		}
		if done {
			var stored storedResponse
			if err := json.Unmarshal(data, &stored); err == nil {
				c.Header("Idempotent-Replayed", "true")
				c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
				c.Abort()
				return
			}
		}

		reserved, err := store.ReserveIdempotencyKey(ctx, key, ttl)
		if err != nil {
			logger.Warn("idempotency reserve", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			writeError(c, domain.NewError(domain.CodeConflict, "a request with this Idempotency-Key is still in progress"), true)
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		bg := context.WithoutCancel(ctx)
		status := rec.Status()
		if status >= http.StatusInternalServerError || rec.body.Len() == 0 {
			if err := store.ReleaseIdempotencyKey(bg, key); err != nil {
				logger.Warn("idempotency release", zap.Error(err))
			}
			return
		}
		payload, err := json.Marshal(storedResponse{Status: status, Body: rec.body.Bytes()})
		if err == nil {
			err = store.StoreIdempotentResponse(bg, key, payload, ttl)
		}
		if err != nil {
			logger.Warn("idempotency store", zap.Error(err))
		}
	}
}
