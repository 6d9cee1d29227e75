package orders

import (
	"context"
	"time"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/Domenick1991/airorders/internal/kafka"
	"github.com/Domenick1991/airorders/internal/repository"
	"go.uber.org/zap"
)

const (
	EventOrderCreated    = "order.created"
	EventHoldCreated     = "order.hold_created"
	EventHoldExtended    = "order.hold_extended"
	EventHoldConfirmed   = "order.hold_confirmed"
	EventHoldExpired     = "order.hold_expired"
	EventOrderCancelled  = "order.cancelled"
	EventOrderChanged    = "order.changed"
	EventServicesChanged = "order.services_changed"
	EventOrderReconciled = "order.reconciled"
)

// synchronizer is the only writer of booking records. A failed write never
// fails the operation: the airline already holds the new state, so the
// caller gets the result with a persistence warning.
type synchronizer struct {
	bookings repository.BookingRepository
	producer Producer
	topic    string
	logger   *zap.Logger
	now      func() time.Time
}

func newSynchronizer(bookings repository.BookingRepository, logger *zap.Logger, now func() time.Time) *synchronizer {
	return &synchronizer{bookings: bookings, logger: logger, now: now}
}

func (s *synchronizer) insert(ctx context.Context, rec *domain.BookingRecord, event string) (warning bool) {
	if err := s.bookings.Insert(ctx, rec); err != nil {
		s.logger.Error("persist booking record",
			zap.String("order_id", rec.OrderID),
			zap.String("user_id", rec.UserID),
			zap.Error(err),
		)
		now := s.now()
		rec.CreatedAt, rec.UpdatedAt = now, now
		return true
	}
	s.publish(ctx, rec, event)
	return false
}

// apply writes exactly one patch keyed by the airline order id.
func (s *synchronizer) apply(ctx context.Context, rec *domain.BookingRecord, patch domain.BookingPatch, event string) (domain.BookingRecord, bool) {
	if patch.Empty() {
		return *rec, false
	}
	updated, err := s.bookings.Patch(ctx, rec.OrderID, patch)
	if err != nil || updated == nil {
		s.logger.Error("update booking record",
			zap.String("order_id", rec.OrderID),
			zap.String("event", event),
			zap.Error(err),
		)
		return patch.Apply(*rec, s.now()), true
	}
	s.publish(ctx, updated, event)
	return *updated, false
}

func (s *synchronizer) publish(ctx context.Context, rec *domain.BookingRecord, event string) {
	if s.producer == nil || s.topic == "" || event == "" {
		return
	}
	msg := kafka.OrderEvent{
		Type:          event,
		OrderID:       rec.OrderID,
		UserID:        rec.UserID,
		Status:        string(rec.Status),
		TotalAmount:   rec.Total.AmountString(),
		TotalCurrency: rec.Total.Currency,
		HoldExpiresAt: rec.HoldExpiresAt,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.topic, rec.OrderID, msg); err != nil {
		s.logger.Warn("publish order event", zap.String("order_id", rec.OrderID), zap.String("event", event), zap.Error(err))
	}
}

func statusPtr(s domain.OrderStatus) *domain.OrderStatus      { return &s }
func paymentPtr(p domain.PaymentStatus) *domain.PaymentStatus { return &p }
func timePtr(t time.Time) *time.Time                          { return &t }
func moneyPtr(m domain.Money) *domain.Money                   { return &m }

func snapshotPtr(o *domain.Order) *domain.BookingSnapshot {
	snap := o.Snapshot()
	return &snap
}
