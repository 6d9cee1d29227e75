// Package orders is the order lifecycle and change orchestration engine.
//
// Every operation checks the caller owns the order, takes a per-order lease
// before mutating, talks to the airline first and only then writes the local
// booking record. Errors crossing this package boundary are *domain.Error.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/airorders/internal/airline"
	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/Domenick1991/airorders/internal/lease"
	"github.com/Domenick1991/airorders/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultHoldWindow         = 20 * time.Minute
	defaultExtensionWindow    = 20 * time.Minute
	defaultLockTTL            = 30 * time.Second
	defaultSeatMapConcurrency = 4
)

type OrderUseCase interface {
	CreateOrder(ctx context.Context, principal string, input CreateOrderInput) (*OrderResult, error)
	ExtendHold(ctx context.Context, principal, orderID string) (*OrderResult, error)
	ConfirmHold(ctx context.Context, principal, orderID string, payment *domain.Payment) (*OrderResult, error)
	CancelOrder(ctx context.Context, principal, orderID string) (*OrderResult, error)
	GetOrder(ctx context.Context, principal, orderID string) (*OrderResult, error)
	ListChangeOptions(ctx context.Context, principal, orderID string, mutation domain.Mutation) (*ChangeResult, error)
	CreateChangeRequest(ctx context.Context, principal, orderID string, mutation domain.Mutation) (*ChangeResult, error)
	ConfirmChangeOffer(ctx context.Context, principal, orderID, requestID, offerID string, payment *domain.Payment) (*OrderResult, error)
	AddSeats(ctx context.Context, principal, orderID string, selections []domain.ServiceSelection, payment *domain.Payment) (*ChangeResult, error)
	RemoveSeat(ctx context.Context, principal, orderID, serviceID string) (*OrderResult, error)
	AddBaggage(ctx context.Context, principal, orderID string, selections []domain.ServiceSelection, payment *domain.Payment) (*ChangeResult, error)
	RemoveBaggage(ctx context.Context, principal, orderID, serviceID string) (*OrderResult, error)
	GetSeatMap(ctx context.Context, principal, orderID string) ([]domain.SeatMap, error)
}

// Airline is the subset of the distribution API the engine drives.
type Airline interface {
	GetOffer(ctx context.Context, offerID string) (*domain.Offer, error)
	CreateOrder(ctx context.Context, in airline.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	PayOrder(ctx context.Context, orderID string, payment domain.Payment) error
	CreateChangeRequest(ctx context.Context, orderID string, mutation domain.Mutation) (*domain.Proposal, error)
	GetChangeRequest(ctx context.Context, requestID string) (*domain.ChangeRequest, error)
	GetChangeOffer(ctx context.Context, offerID string) (*domain.ChangeOffer, error)
	ConfirmChangeOffer(ctx context.Context, requestID, offerID string, payment *domain.Payment) (*domain.Order, error)
	RemoveServices(ctx context.Context, orderID string, serviceIDs []string) (*domain.Order, error)
	SeatMaps(ctx context.Context, q airline.SeatMapQuery) ([]domain.SeatMap, error)
}

// OrderLocker hands out short-lived per-order leases.
type OrderLocker interface {
	AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseOrderLock(ctx context.Context, orderID, token string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// OrderResult is returned by lifecycle operations. Booking is the record as
// written, or as it would have been written when PersistenceWarning is set.
type OrderResult struct {
	Order              *domain.Order         `json:"order,omitempty"`
	Booking            *domain.BookingRecord `json:"booking,omitempty"`
	PersistenceWarning bool                  `json:"persistence_warning,omitempty"`
}

// ChangeResult is returned by change operations. Offers is set while the
// request awaits a selection, Order once the change is applied.
type ChangeResult struct {
	State              string                `json:"state"`
	Request            domain.ChangeRequest  `json:"request"`
	Offers             []domain.ChangeOffer  `json:"offers,omitempty"`
	SelectedOfferID    string                `json:"selected_offer_id,omitempty"`
	Order              *domain.Order         `json:"order,omitempty"`
	Booking            *domain.BookingRecord `json:"booking,omitempty"`
	PersistenceWarning bool                  `json:"persistence_warning,omitempty"`
}

type OrderService struct {
	airline            Airline
	bookings           repository.BookingRepository
	changes            repository.ChangeRepository
	locker             OrderLocker
	sync               *synchronizer
	logger             *zap.Logger
	now                func() time.Time
	holdWindow         time.Duration
	extensionWindow    time.Duration
	lockTTL            time.Duration
	seatMapConcurrency int
}

type OrderServiceOption func(*OrderService)

func WithLocker(locker OrderLocker, ttl time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithEvents publishes an order event to topic after every booking record write.
func WithEvents(producer Producer, topic string) OrderServiceOption {
	return func(s *OrderService) {
		s.sync.producer = producer
		s.sync.topic = topic
	}
}

func WithHoldWindows(hold, extension time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if hold > 0 {
			s.holdWindow = hold
		}
		if extension > 0 {
			s.extensionWindow = extension
		}
	}
}

func WithSeatMapConcurrency(n int) OrderServiceOption {
	return func(s *OrderService) {
		if n > 0 {
			s.seatMapConcurrency = n
		}
	}
}

func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) {
		s.now = now
		s.sync.now = now
	}
}

func NewOrderService(
	client Airline,
	bookings repository.BookingRepository,
	changes repository.ChangeRepository,
	logger *zap.Logger,
	opts ...OrderServiceOption,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OrderService{
		airline:            client,
		bookings:           bookings,
		changes:            changes,
		locker:             lease.NewMemory(),
		logger:             logger,
		now:                time.Now,
		holdWindow:         defaultHoldWindow,
		extensionWindow:    defaultExtensionWindow,
		lockTTL:            defaultLockTTL,
		seatMapConcurrency: defaultSeatMapConcurrency,
	}
	s.sync = newSynchronizer(bookings, logger, s.now)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadOwned returns the caller's booking record; a foreign or missing order is NOT_FOUND.
func (s *OrderService) loadOwned(ctx context.Context, principal, orderID string) (*domain.BookingRecord, error) {
	if principal == "" {
		return nil, domain.ErrAuthRequired()
	}
	if orderID == "" {
		return nil, domain.ErrValidation("order id is required")
	}
	rec, err := s.bookings.GetForUser(ctx, orderID, principal)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrOrderNotFound()
		}
		s.logger.Error("load booking record", zap.String("order_id", orderID), zap.Error(err))
		return nil, domain.WrapError(domain.CodeUpstreamFailure, "failed to load booking", err)
	}
	return rec, nil
}

// withLease runs fn while holding the order's lease.
func (s *OrderService) withLease(ctx context.Context, orderID string, fn func() error) error {
	token, ok, err := s.locker.AcquireOrderLock(ctx, orderID, s.lockTTL)
	if err != nil {
		s.logger.Error("acquire order lease", zap.String("order_id", orderID), zap.Error(err))
		return domain.WrapError(domain.CodeUpstreamFailure, "failed to acquire order lease", err)
	}
	if !ok {
		return domain.NewError(domain.CodeConflict, "order is being modified by another request")
	}
	defer func() {
		// The lease expires on its own if release fails.
		if err := s.locker.ReleaseOrderLock(context.WithoutCancel(ctx), orderID, token); err != nil {
			s.logger.Warn("release order lease", zap.String("order_id", orderID), zap.Error(err))
		}
	}()
	return fn()
}

// lockOwned checks the caller owns the order, takes its lease and re-reads
// the record under the lease, so fn works on the last committed state.
func (s *OrderService) lockOwned(ctx context.Context, principal, orderID string, fn func(rec *domain.BookingRecord) error) error {
	if _, err := s.loadOwned(ctx, principal, orderID); err != nil {
		return err
	}
	return s.withLease(ctx, orderID, func() error {
		rec, err := s.loadOwned(ctx, principal, orderID)
		if err != nil {
			return err
		}
		return fn(rec)
	})
}

// lockMutable is lockOwned for operations that need a live order: lazy
// expiry is applied and terminal states are rejected.
func (s *OrderService) lockMutable(ctx context.Context, principal, orderID string, fn func(rec *domain.BookingRecord) error) error {
	return s.lockOwned(ctx, principal, orderID, func(rec *domain.BookingRecord) error {
		s.expireIfLapsed(ctx, rec)
		if err := checkMutable(rec); err != nil {
			return err
		}
		return fn(rec)
	})
}

// sameOrder refuses to sync an airline order other than the record's own.
func (s *OrderService) sameOrder(rec *domain.BookingRecord, order *domain.Order) error {
	if order != nil && order.ID == rec.OrderID {
		return nil
	}
	got := ""
	if order != nil {
		got = order.ID
	}
	s.logger.Error("airline returned a different order", zap.String("order_id", rec.OrderID), zap.String("airline_order_id", got))
	return domain.NewError(domain.CodeUpstreamFailure, "airline answered for a different order")
}

// expireIfLapsed marks a held record expired once its local hold window has passed.
func (s *OrderService) expireIfLapsed(ctx context.Context, rec *domain.BookingRecord) (warning bool) {
	if !rec.HoldLapsed(s.now()) {
		return false
	}
	status := domain.OrderStatusExpired
	updated, warning := s.sync.apply(ctx, rec, domain.BookingPatch{Status: &status}, EventHoldExpired)
	*rec = updated
	return warning
}

// checkMutable rejects mutation of orders in a terminal state.
func checkMutable(rec *domain.BookingRecord) error {
	if rec.Status.Terminal() {
		return domain.ErrInvalidState("order is %s", rec.Status)
	}
	return nil
}
