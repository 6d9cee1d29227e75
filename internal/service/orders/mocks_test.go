package orders

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/airorders/internal/airline"
	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/Domenick1991/airorders/internal/lease"
	"github.com/Domenick1991/airorders/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockAirline struct {
	mock.Mock
}

func (m *MockAirline) GetOffer(ctx context.Context, offerID string) (*domain.Offer, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *MockAirline) CreateOrder(ctx context.Context, in airline.CreateOrderInput) (*domain.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockAirline) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockAirline) CancelOrder(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockAirline) PayOrder(ctx context.Context, orderID string, payment domain.Payment) error {
	args := m.Called(ctx, orderID, payment)
	return args.Error(0)
}

func (m *MockAirline) CreateChangeRequest(ctx context.Context, orderID string, mutation domain.Mutation) (*domain.Proposal, error) {
	args := m.Called(ctx, orderID, mutation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Proposal), args.Error(1)
}

func (m *MockAirline) GetChangeRequest(ctx context.Context, requestID string) (*domain.ChangeRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChangeRequest), args.Error(1)
}

func (m *MockAirline) GetChangeOffer(ctx context.Context, offerID string) (*domain.ChangeOffer, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChangeOffer), args.Error(1)
}

func (m *MockAirline) ConfirmChangeOffer(ctx context.Context, requestID, offerID string, payment *domain.Payment) (*domain.Order, error) {
	args := m.Called(ctx, requestID, offerID, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockAirline) RemoveServices(ctx context.Context, orderID string, serviceIDs []string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, serviceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockAirline) SeatMaps(ctx context.Context, q airline.SeatMapQuery) ([]domain.SeatMap, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatMap), args.Error(1)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Insert(ctx context.Context, record *domain.BookingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.BookingRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRecord), args.Error(1)
}

func (m *MockBookingRepository) GetForUser(ctx context.Context, orderID, userID string) (*domain.BookingRecord, error) {
	args := m.Called(ctx, orderID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRecord), args.Error(1)
}

// Patch accepts either a record or a func(patch) record as its first return value.
func (m *MockBookingRepository) Patch(ctx context.Context, orderID string, patch domain.BookingPatch) (*domain.BookingRecord, error) {
	args := m.Called(ctx, orderID, patch)
	if fn, ok := args.Get(0).(func(domain.BookingPatch) *domain.BookingRecord); ok {
		return fn(patch), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRecord), args.Error(1)
}

type MockChangeRepository struct {
	mock.Mock
}

func (m *MockChangeRepository) Insert(ctx context.Context, change *domain.OrderChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockChangeRepository) GetByRequestID(ctx context.Context, changeRequestID string) (*domain.OrderChange, error) {
	args := m.Called(ctx, changeRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderChange), args.Error(1)
}

func (m *MockChangeRepository) UpdateOutcome(ctx context.Context, id string, status domain.ChangeRequestStatus, selectedOfferID string, delta *domain.Money) error {
	args := m.Called(ctx, id, status, selectedOfferID, delta)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, orderID, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) ReleaseOrderLock(ctx context.Context, orderID, token string) error {
	args := m.Called(ctx, orderID, token)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// memoryBookings holds a single booking record; reads see every earlier patch.
type memoryBookings struct {
	mu  sync.Mutex
	rec domain.BookingRecord
}

func (m *memoryBookings) Insert(_ context.Context, record *domain.BookingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = *record
	return nil
}

func (m *memoryBookings) GetByOrderID(ctx context.Context, orderID string) (*domain.BookingRecord, error) {
	return m.GetForUser(ctx, orderID, m.current().UserID)
}

func (m *memoryBookings) GetForUser(_ context.Context, orderID, userID string) (*domain.BookingRecord, error) {
	rec := m.current()
	if rec.OrderID != orderID || rec.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (m *memoryBookings) Patch(_ context.Context, orderID string, patch domain.BookingPatch) (*domain.BookingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec.OrderID != orderID {
		return nil, repository.ErrNotFound
	}
	m.rec = patch.Apply(m.rec, fixedNow)
	rec := m.rec
	return &rec, nil
}

func (m *memoryBookings) current() domain.BookingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec
}

// interleavingLocker runs before once, just ahead of granting the first lease,
// so another request can commit while the first one waits.
type interleavingLocker struct {
	inner  *lease.Memory
	before func()
}

func (l *interleavingLocker) AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (string, bool, error) {
	if run := l.before; run != nil {
		l.before = nil
		run()
	}
	return l.inner.AcquireOrderLock(ctx, orderID, ttl)
}

func (l *interleavingLocker) ReleaseOrderLock(ctx context.Context, orderID, token string) error {
	return l.inner.ReleaseOrderLock(ctx, orderID, token)
}
