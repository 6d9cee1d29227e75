package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/airorders/internal/auth"
	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/Domenick1991/airorders/internal/service/orders"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type memoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	fail    bool
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{entries: make(map[string][]byte)}
}

func (s *memoryIdempotencyStore) ReserveIdempotencyKey(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false, errors.New("redis down")
	}
	if _, ok := s.entries[key]; ok {
		return false, nil
	}
	s.entries[key] = nil
	return true, nil
}

func (s *memoryIdempotencyStore) StoreIdempotentResponse(_ context.Context, key string, response []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = response
	return nil
}

func (s *memoryIdempotencyStore) IdempotentResponse(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, false, errors.New("redis down")
	}
	data, ok := s.entries[key]
	return data, ok && data != nil, nil
}

func (s *memoryIdempotencyStore) ReleaseIdempotencyKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func newTestRouter(t *testing.T, svc orders.OrderUseCase, idem IdempotencyStore) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	verifier := auth.NewTokenVerifier("test-secret")
	token, err := verifier.Issue("user_1", time.Hour)
	require.NoError(t, err)

	router := NewRouter(zap.NewNop(), NewOrderHandler(svc, false), verifier, idem, RouterConfig{
		RequestsPerMinute: 600,
		Burst:             100,
		IdempotencyTTL:    time.Hour,
	})
	return router, token
}

func TestAuth_RejectsMissingAndInvalidTokens(t *testing.T) {
	router, _ := newTestRouter(t, &MockOrderUseCase{}, nil)

	for _, header := range []string{"", "Bearer", "Bearer not-a-jwt", "Basic dXNlcjpwYXNz"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/orders/ord_1", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Body.String(), string(domain.CodeAuthRequired))
	}
}

func TestAuth_SetsPrincipal(t *testing.T) {
	svc := &MockOrderUseCase{}
	router, token := newTestRouter(t, svc, nil)
	svc.On("GetOrder", mock.Anything, "user_1", "ord_1").Return(&orders.OrderResult{Order: &domain.Order{ID: "ord_1"}}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/orders/ord_1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(60, 2, zap.NewNop()))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLimiterStore_EvictsIdleCallers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newLimiterStore(rate.Every(time.Second), 2)
	store.now = func() time.Time { return now }

	store.get("idle")
	now = now.Add(5 * time.Minute)
	active := store.get("active")
	now = now.Add(6 * time.Minute)
	store.get("new")

	assert.Equal(t, 2, store.size())
	assert.Same(t, active, store.get("active"))
	assert.NotContains(t, store.limiters, "idle")
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	svc := &MockOrderUseCase{}
	store := newMemoryIdempotencyStore()
	router, token := newTestRouter(t, svc, store)
	svc.On("CancelOrder", mock.Anything, "user_1", "ord_1").
		Return(&orders.OrderResult{Booking: &domain.BookingRecord{OrderID: "ord_1", Status: domain.OrderStatusCancelled}}, nil).Once()

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/orders/ord_1/actions/cancel", strings.NewReader(""))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "cancel-1")
		router.ServeHTTP(w, req)
		return w
	}

	first := send()
	second := send()

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	svc.AssertNumberOfCalls(t, "CancelOrder", 1)
}

func TestIdempotency_ReleasesKeyOnServerError(t *testing.T) {
	svc := &MockOrderUseCase{}
	store := newMemoryIdempotencyStore()
	router, token := newTestRouter(t, svc, store)
	svc.On("CancelOrder", mock.Anything, "user_1", "ord_1").Return(nil, domain.NewError(domain.CodeUpstreamFailure, "boom")).Twice()

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/orders/ord_1/actions/cancel", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "cancel-2")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	}
	svc.AssertNumberOfCalls(t, "CancelOrder", 2)
}

func TestIdempotency_InProgressConflict(t *testing.T) {
	svc := &MockOrderUseCase{}
	store := newMemoryIdempotencyStore()
	router, token := newTestRouter(t, svc, store)
	_, _ = store.ReserveIdempotencyKey(context.Background(), "user_1:POST:/v1/orders/ord_1/actions/cancel:cancel-3", time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders/ord_1/actions/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", "cancel-3")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	svc.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdempotency_StoreOutageFailsOpen(t *testing.T) {
	svc := &MockOrderUseCase{}
	store := newMemoryIdempotencyStore()
	store.fail = true
	router, token := newTestRouter(t, svc, store)
	svc.On("CancelOrder", mock.Anything, "user_1", "ord_1").Return(&orders.OrderResult{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders/ord_1/actions/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", "cancel-4")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
