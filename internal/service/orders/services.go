package orders

import (
	"context"

	"github.com/Domenick1991/airorders/internal/airline"
	"github.com/Domenick1991/airorders/internal/domain"
	"go.uber.org/zap"
)

func (s *OrderService) AddSeats(ctx context.Context, principal, orderID string, selections []domain.ServiceSelection, payment *domain.Payment) (*ChangeResult, error) {
	return s.addServices(ctx, principal, orderID, domain.ServiceTypeSeat, selections, payment)
}

func (s *OrderService) AddBaggage(ctx context.Context, principal, orderID string, selections []domain.ServiceSelection, payment *domain.Payment) (*ChangeResult, error) {
	return s.addServices(ctx, principal, orderID, domain.ServiceTypeBaggage, selections, payment)
}

func (s *OrderService) RemoveSeat(ctx context.Context, principal, orderID, serviceID string) (*OrderResult, error) {
	return s.removeService(ctx, principal, orderID, domain.ServiceTypeSeat, serviceID)
}

func (s *OrderService) RemoveBaggage(ctx context.Context, principal, orderID, serviceID string) (*OrderResult, error) {
	return s.removeService(ctx, principal, orderID, domain.ServiceTypeBaggage, serviceID)
}

// addServices proposes the selections and confirms the cheapest offer.
func (s *OrderService) addServices(ctx context.Context, principal, orderID string, kind domain.ServiceType, selections []domain.ServiceSelection, payment *domain.Payment) (*ChangeResult, error) {
	var result *ChangeResult
	err := s.lockMutable(ctx, principal, orderID, func(rec *domain.BookingRecord) error {
		valid, err := validateSelections(kind, selections, rec.Metadata)
		if err != nil {
			return err
		}
		selections = valid

		out, err := s.proposeThenConfirm(ctx, rec, domain.ServiceChange{Type: kind, Add: selections}, Cheapest(), payment)
		if err != nil {
			if domain.CodeOf(err) == domain.CodeServiceUnavailable {
				return domain.WrapError(domain.CodeServiceUnavailable, string(kind)+" is no longer available", err)
			}
			return err
		}
		result = out.result()
		updated, warning := s.syncApplied(ctx, rec, out.order, EventServicesChanged)
		result.Booking, result.PersistenceWarning = &updated, warning
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("services added",
		zap.String("order_id", orderID),
		zap.String("type", string(kind)),
		zap.Int("count", len(selections)),
		zap.String("offer_id", result.SelectedOfferID),
	)
	return result, nil
}

// removeService drops one service directly; the airline prices the refund.
func (s *OrderService) removeService(ctx context.Context, principal, orderID string, kind domain.ServiceType, serviceID string) (*OrderResult, error) {
	if principal == "" {
		return nil, domain.ErrAuthRequired()
	}
	if serviceID == "" {
		return nil, domain.ErrValidation("%s service id is required", kind)
	}

	var result *OrderResult
	err := s.lockMutable(ctx, principal, orderID, func(rec *domain.BookingRecord) error {
		if len(rec.Metadata.Services) > 0 && !hasService(rec.Metadata.Services, kind, serviceID) {
			return domain.NewError(domain.CodeNotFound, string(kind)+" service not found on order")
		}

		order, err := s.airline.RemoveServices(ctx, orderID, []string{serviceID})
		if err != nil {
			s.logger.Warn("airline remove service", zap.String("order_id", orderID), zap.String("service_id", serviceID), zap.Error(err))
			return airline.Classify(err)
		}
		if err := s.sameOrder(rec, order); err != nil {
			return err
		}
		updated, warning := s.syncApplied(ctx, rec, order, EventServicesChanged)
		result = &OrderResult{Order: order, Booking: &updated, PersistenceWarning: warning}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("service removed", zap.String("order_id", orderID), zap.String("service_id", serviceID))
	return result, nil
}

func hasService(services []domain.Service, kind domain.ServiceType, id string) bool {
	for _, svc := range services {
		if svc.ID == id && svc.Type == kind {
			return true
		}
	}
	return false
}
