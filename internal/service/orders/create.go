package orders

import (
	"context"

	"github.com/Domenick1991/airorders/internal/airline"
	"github.com/Domenick1991/airorders/internal/domain"
	"go.uber.org/zap"
)

// CreateOrder books an offer either instantly or as a time-limited hold.
func (s *OrderService) CreateOrder(ctx context.Context, principal string, in CreateOrderInput) (*OrderResult, error) {
	if err := validateCreate(principal, in); err != nil {
		return nil, err
	}

	offer, err := s.airline.GetOffer(ctx, in.OfferID)
	if err != nil {
		return nil, airline.Classify(err)
	}
	now := s.now()
	if err := validateOffer(offer, now); err != nil {
		return nil, err
	}

	mode := domain.OrderModeInstant
	if in.Hold {
		mode = domain.OrderModeHold
	}
	req := airline.CreateOrderInput{
		OfferID:    offer.ID,
		Mode:       mode,
		Passengers: normalizePassengers(in.Passengers, offer.Passengers),
	}
	if mode == domain.OrderModeInstant {
		payment, err := instantPayment(in.Payment, offer.Total)
		if err != nil {
			return nil, err
		}
		req.Payment = payment
	}

	order, err := s.airline.CreateOrder(ctx, req)
	if err != nil {
		s.logger.Warn("airline create order", zap.String("offer_id", offer.ID), zap.Error(err))
		return nil, airline.Classify(err)
	}
	order.Mode = mode
	if order.Total.IsZero() {
		order.Total = offer.Total
	}

	rec := &domain.BookingRecord{
		UserID:           principal,
		OrderID:          order.ID,
		BookingReference: order.BookingReference,
		Mode:             mode,
		Total:            order.Total,
		Metadata:         order.Snapshot(),
	}
	event := EventOrderCreated
	if mode == domain.OrderModeHold {
		window := in.HoldDuration
		if window <= 0 {
			window = s.holdWindow
		}
		expiresAt := now.Add(window)
		order.Status = domain.OrderStatusHeld
		order.HoldExpiresAt = &expiresAt
		rec.Status = domain.OrderStatusHeld
		rec.PaymentStatus = domain.PaymentStatusPending
		rec.HoldExpiresAt = &expiresAt
		event = EventHoldCreated
	} else {
		order.Status = domain.OrderStatusConfirmed
		rec.Status = domain.OrderStatusConfirmed
		rec.PaymentStatus = domain.PaymentStatusPaid
	}

	warning := s.sync.insert(ctx, rec, event)
	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("mode", string(mode)),
		zap.String("total", order.Total.String()),
		zap.Bool("persistence_warning", warning),
	)
	return &OrderResult{Order: order, Booking: rec, PersistenceWarning: warning}, nil
}

// instantPayment uses the caller's payment, or a balance payment for the offer total.
func instantPayment(p *domain.Payment, total domain.Money) (*domain.Payment, error) {
	if p == nil {
		return &domain.Payment{Type: domain.PaymentTypeBalance, Amount: total}, nil
	}
	if !p.Amount.SameCurrency(total) {
		return nil, domain.ErrValidation("payment currency %s does not match offer currency %s", p.Amount.Currency, total.Currency)
	}
	out := *p
	if out.Amount.Amount.IsZero() {
		out.Amount = total
	}
	return &out, nil
}
