package orders

import (
	"context"

	"github.com/Domenick1991/airorders/internal/airline"
	"github.com/Domenick1991/airorders/internal/domain"
	"go.uber.org/zap"
)

// ExtendHold pushes the local hold expiry forward by the extension window.
// The airline is only asked whether the order is still held.
func (s *OrderService) ExtendHold(ctx context.Context, principal, orderID string) (*OrderResult, error) {
	var result *OrderResult
	err := s.lockOwned(ctx, principal, orderID, func(rec *domain.BookingRecord) error {
		if err := s.requireHeld(ctx, rec); err != nil {
			return err
		}

		order, err := s.airline.GetOrder(ctx, orderID)
		if err != nil {
			return airline.Classify(err)
		}
		if err := s.reconcileHeld(ctx, rec, order); err != nil {
			return err
		}

		now := s.now()
		expiresAt := now.Add(s.extensionWindow)
		if rec.HoldExpiresAt != nil && !expiresAt.After(*rec.HoldExpiresAt) {
			expiresAt = rec.HoldExpiresAt.Add(s.extensionWindow)
		}

		updated, warning := s.sync.apply(ctx, rec, domain.BookingPatch{HoldExpiresAt: timePtr(expiresAt)}, EventHoldExtended)
		order.HoldExpiresAt = updated.HoldExpiresAt
		order.Status = domain.OrderStatusHeld
		result = &OrderResult{Order: order, Booking: &updated, PersistenceWarning: warning}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("hold extended", zap.String("order_id", orderID), zap.Timep("hold_expires_at", result.Booking.HoldExpiresAt))
	return result, nil
}

// ConfirmHold pays for a held order. The airline order is re-read first and
// its answer wins over the local hold clock.
func (s *OrderService) ConfirmHold(ctx context.Context, principal, orderID string, payment *domain.Payment) (*OrderResult, error) {
	if principal == "" {
		return nil, domain.ErrAuthRequired()
	}
	if !payment.Valid() {
		return nil, domain.ErrValidation("a payment with type, amount and currency is required")
	}

	var result *OrderResult
	err := s.lockOwned(ctx, principal, orderID, func(rec *domain.BookingRecord) error {
		if err := s.requireHeld(ctx, rec); err != nil {
			return err
		}

		order, err := s.airline.GetOrder(ctx, orderID)
		if err != nil {
			return airline.Classify(err)
		}
		if err := s.reconcileHeld(ctx, rec, order); err != nil {
			return err
		}
		if !payment.Amount.SameCurrency(order.Total) {
			return domain.ErrValidation("payment currency %s does not match order currency %s", payment.Amount.Currency, order.Total.Currency)
		}

		pay := domain.Payment{Type: payment.Type, Amount: order.Total}
		if err := s.airline.PayOrder(ctx, orderID, pay); err != nil {
			s.logger.Warn("airline pay order", zap.String("order_id", orderID), zap.Error(err))
			return airline.Classify(err)
		}

		order.Status = domain.OrderStatusConfirmed
		order.HoldExpiresAt = nil
		updated, warning := s.sync.apply(ctx, rec, domain.BookingPatch{
			Status:        statusPtr(domain.OrderStatusConfirmed),
			PaymentStatus: paymentPtr(domain.PaymentStatusPaid),
			Total:         moneyPtr(order.Total),
			Metadata:      snapshotPtr(order),
		}, EventHoldConfirmed)
		result = &OrderResult{Order: order, Booking: &updated, PersistenceWarning: warning}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("hold confirmed", zap.String("order_id", orderID), zap.String("total", result.Order.Total.String()))
	return result, nil
}

// CancelOrder cancels at the airline and marks the record cancelled.
// Cancelling an already cancelled order succeeds without calling the airline.
func (s *OrderService) CancelOrder(ctx context.Context, principal, orderID string) (*OrderResult, error) {
	var result *OrderResult
	err := s.lockOwned(ctx, principal, orderID, func(rec *domain.BookingRecord) error {
		if rec.Status == domain.OrderStatusCancelled {
			result = &OrderResult{Booking: rec}
			return nil
		}
		if err := checkMutable(rec); err != nil {
			return err
		}

		if err := s.airline.CancelOrder(ctx, orderID); err != nil {
			if !airline.IsAlreadyCancelled(err) {
				s.logger.Warn("airline cancel order", zap.String("order_id", orderID), zap.Error(err))
				return airline.Classify(err)
			}
			s.logger.Info("order already cancelled at airline", zap.String("order_id", orderID))
		}

		patch := domain.BookingPatch{Status: statusPtr(domain.OrderStatusCancelled)}
		if rec.PaymentStatus == domain.PaymentStatusPaid {
			patch.PaymentStatus = paymentPtr(domain.PaymentStatusRefunded)
		}
		updated, warning := s.sync.apply(ctx, rec, patch, EventOrderCancelled)
		result = &OrderResult{Booking: &updated, PersistenceWarning: warning}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order cancelled", zap.String("order_id", orderID))
	return result, nil
}

// GetOrder returns the airline's current view of the order with the local record.
func (s *OrderService) GetOrder(ctx context.Context, principal, orderID string) (*OrderResult, error) {
	rec, err := s.loadOwned(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	warning := s.expireIfLapsed(ctx, rec)

	order, err := s.airline.GetOrder(ctx, orderID)
	if err != nil {
		return nil, airline.Classify(err)
	}
	order.Mode = rec.Mode
	if rec.Mode == domain.OrderModeHold && rec.HoldExpiresAt != nil {
		order.HoldExpiresAt = rec.HoldExpiresAt
	}
	if rec.Status == domain.OrderStatusExpired && order.Status == domain.OrderStatusHeld {
		order.Status = domain.OrderStatusExpired
	}
	return &OrderResult{Order: order, Booking: rec, PersistenceWarning: warning}, nil
}

// requireHeld applies lazy expiry and rejects anything but a live hold.
func (s *OrderService) requireHeld(ctx context.Context, rec *domain.BookingRecord) error {
	s.expireIfLapsed(ctx, rec)
	if rec.Status == domain.OrderStatusExpired {
		return domain.ErrInvalidState("hold has expired")
	}
	if err := checkMutable(rec); err != nil {
		return err
	}
	if rec.Mode != domain.OrderModeHold || rec.Status != domain.OrderStatusHeld {
		return domain.ErrInvalidState("order is not on hold")
	}
	return nil
}

// reconcileHeld records what the airline says when it no longer holds the order.
func (s *OrderService) reconcileHeld(ctx context.Context, rec *domain.BookingRecord, order *domain.Order) error {
	switch order.Status {
	case domain.OrderStatusHeld:
		return nil
	case domain.OrderStatusCancelled, domain.OrderStatusExpired:
		updated, _ := s.sync.apply(ctx, rec, domain.BookingPatch{Status: statusPtr(order.Status)}, EventOrderReconciled)
		*rec = updated
		return domain.ErrInvalidState("airline reports order %s", order.Status)
	case domain.OrderStatusConfirmed:
		updated, _ := s.sync.apply(ctx, rec, domain.BookingPatch{
			Status:        statusPtr(domain.OrderStatusConfirmed),
			PaymentStatus: paymentPtr(domain.PaymentStatusPaid),
		}, EventOrderReconciled)
		*rec = updated
		return domain.ErrInvalidState("order is already confirmed")
	default:
		return domain.ErrInvalidState("airline reports order %s", order.Status)
	}
}
