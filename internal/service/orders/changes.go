package orders

import (
	"context"
	"errors"

	"github.com/Domenick1991/airorders/internal/airline"
	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/Domenick1991/airorders/internal/pricing"
	"github.com/Domenick1991/airorders/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const stateConfirmed = "confirmed"

type policyKind int

const (
	policyManual policyKind = iota
	policyCheapest
	policyByID
)

// SelectionPolicy decides which change offer, if any, is confirmed automatically.
type SelectionPolicy struct {
	kind    policyKind
	offerID string
}

// Manual returns the offers to the caller without confirming any.
func Manual() SelectionPolicy { return SelectionPolicy{kind: policyManual} }

// Cheapest confirms the offer with the lowest delta.
func Cheapest() SelectionPolicy { return SelectionPolicy{kind: policyCheapest} }

func ByID(offerID string) SelectionPolicy { return SelectionPolicy{kind: policyByID, offerID: offerID} }

func (p SelectionPolicy) pick(offers []domain.ChangeOffer) (domain.ChangeOffer, error) {
	switch p.kind {
	case policyByID:
		for _, o := range offers {
			if o.ID == p.offerID {
				return o, nil
			}
		}
		return domain.ChangeOffer{}, domain.NewError(domain.CodeNotFound, "change offer not found")
	default:
		best, ok := pricing.Cheapest(offers)
		if !ok {
			return domain.ChangeOffer{}, domain.NewError(domain.CodeServiceUnavailable, "no change offers available")
		}
		return best, nil
	}
}

type changeOutcome struct {
	proposal *domain.Proposal
	selected *domain.ChangeOffer
	order    *domain.Order
}

func (o *changeOutcome) applied() bool { return o.order != nil }

func (o *changeOutcome) state() string {
	if o.selected != nil {
		return stateConfirmed
	}
	return o.proposal.State().String()
}

func (o *changeOutcome) result() *ChangeResult {
	r := &ChangeResult{
		State:   o.state(),
		Request: o.proposal.Request,
		Order:   o.order,
	}
	if !o.applied() {
		r.Offers = o.proposal.Offers
	}
	if o.selected != nil {
		r.SelectedOfferID = o.selected.ID
		r.Request.Status = domain.ChangeRequestConfirmed
	}
	return r
}

// proposeThenConfirm submits the mutation and, unless the policy is Manual or
// the airline applied it outright, confirms the offer the policy selects.
func (s *OrderService) proposeThenConfirm(ctx context.Context, rec *domain.BookingRecord, m domain.Mutation, policy SelectionPolicy, payment *domain.Payment) (*changeOutcome, error) {
	proposal, err := s.airline.CreateChangeRequest(ctx, rec.OrderID, m)
	if err != nil {
		s.logger.Warn("airline change request", zap.String("order_id", rec.OrderID), zap.String("kind", string(m.Kind())), zap.Error(err))
		return nil, airline.Classify(err)
	}
	out := &changeOutcome{proposal: proposal}

	if proposal.State() == domain.AlreadyApplied {
		if err := s.sameOrder(rec, proposal.Order); err != nil {
			return nil, err
		}
		out.order = proposal.Order
		return out, nil
	}
	if policy.kind == policyManual {
		return out, nil
	}

	offer, err := policy.pick(proposal.Offers)
	if err != nil {
		return nil, err
	}
	if offer.RequestID == "" {
		offer.RequestID = proposal.Request.ID
	}
	order, err := s.confirmOffer(ctx, rec, offer, payment)
	if err != nil {
		return nil, err
	}
	out.selected = &offer
	out.order = order
	return out, nil
}

// confirmOffer checks expiry, currency and payment locally, then confirms.
// The returned order carries the reconciled total current + delta.
func (s *OrderService) confirmOffer(ctx context.Context, rec *domain.BookingRecord, offer domain.ChangeOffer, payment *domain.Payment) (*domain.Order, error) {
	if offer.ExpiredAt(s.now()) {
		return nil, domain.NewError(domain.CodeOfferExpired, "change offer has expired")
	}
	total, err := pricing.Apply(rec.Total, offer.Delta)
	if err != nil {
		return nil, err
	}

	var pay *domain.Payment
	if pricing.RequiresPayment(offer.Delta) {
		if payment == nil {
			return nil, domain.NewError(domain.CodePaymentRequired, "change costs "+offer.Delta.String()+" and needs a payment")
		}
		if !payment.Valid() {
			return nil, domain.ErrValidation("payment requires a type and currency")
		}
		if err := pricing.SameCurrency(offer.Delta, payment.Amount); err != nil {
			return nil, err
		}
		pay = &domain.Payment{Type: payment.Type, Amount: offer.Delta}
	}

	order, err := s.airline.ConfirmChangeOffer(ctx, offer.RequestID, offer.ID, pay)
	if err != nil {
		s.logger.Warn("airline confirm change", zap.String("order_id", rec.OrderID), zap.String("offer_id", offer.ID), zap.Error(err))
		return nil, airline.Classify(err)
	}
	if err := s.sameOrder(rec, order); err != nil {
		return nil, err
	}
	if !order.Total.IsZero() && !order.Total.Amount.Equal(total.Amount) {
		s.logger.Warn("airline total differs from reconciled total",
			zap.String("order_id", rec.OrderID),
			zap.String("airline_total", order.Total.String()),
			zap.String("reconciled_total", total.String()),
		)
	}
	order.Total = total
	return order, nil
}

// syncApplied writes the applied order's total and contents to the record.
func (s *OrderService) syncApplied(ctx context.Context, rec *domain.BookingRecord, order *domain.Order, event string) (domain.BookingRecord, bool) {
	order.Mode = rec.Mode
	patch := domain.BookingPatch{Metadata: snapshotPtr(order)}
	if !order.Total.IsZero() {
		patch.Total = moneyPtr(order.Total)
	}
	if order.BookingReference != "" && order.BookingReference != rec.BookingReference {
		patch.BookingReference = &order.BookingReference
	}
	return s.sync.apply(ctx, rec, patch, event)
}

// ListChangeOptions prices a change without selecting an offer.
func (s *OrderService) ListChangeOptions(ctx context.Context, principal, orderID string, m domain.Mutation) (*ChangeResult, error) {
	if err := validateMutation(m); err != nil {
		return nil, err
	}
	var result *ChangeResult
	err := s.lockMutable(ctx, principal, orderID, func(rec *domain.BookingRecord) error {
		out, err := s.proposeThenConfirm(ctx, rec, m, Manual(), nil)
		if err != nil {
			return err
		}
		result = out.result()
		if out.applied() {
			updated, warning := s.syncApplied(ctx, rec, out.order, EventOrderChanged)
			result.Booking, result.PersistenceWarning = &updated, warning
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateChangeRequest submits an itinerary or passenger change and keeps an
// audit row of it whatever the airline answers.
func (s *OrderService) CreateChangeRequest(ctx context.Context, principal, orderID string, m domain.Mutation) (*ChangeResult, error) {
	if err := validateMutation(m); err != nil {
		return nil, err
	}
	var result *ChangeResult
	err := s.lockMutable(ctx, principal, orderID, func(rec *domain.BookingRecord) error {
		audit := &domain.OrderChange{
			ID:       uuid.NewString(),
			OrderID:  rec.OrderID,
			UserID:   rec.UserID,
			Kind:     m.Kind(),
			Payload:  m,
			Snapshot: rec.Metadata,
		}

		out, perr := s.proposeThenConfirm(ctx, rec, m, Manual(), nil)
		if perr != nil {
			audit.Status = domain.ChangeRequestFailed
			audit.Reason = perr.Error()
			s.recordChange(ctx, audit)
			return perr
		}

		audit.ChangeRequestID = out.proposal.Request.ID
		audit.Status = out.proposal.Request.Status
		result = out.result()
		if out.applied() {
			audit.Status = domain.ChangeRequestConfirmed
			if out.order.Total.SameCurrency(rec.Total) && !out.order.Total.IsZero() {
				audit.Delta = &domain.Money{Amount: out.order.Total.Amount.Sub(rec.Total.Amount), Currency: rec.Total.Currency}
			}
			updated, warning := s.syncApplied(ctx, rec, out.order, EventOrderChanged)
			result.Booking, result.PersistenceWarning = &updated, warning
		}
		if !s.recordChange(ctx, audit) {
			result.PersistenceWarning = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("change request created",
		zap.String("order_id", orderID),
		zap.String("request_id", result.Request.ID),
		zap.String("state", result.State),
		zap.Int("offers", len(result.Offers)),
	)
	return result, nil
}

// ConfirmChangeOffer confirms one offer of an earlier change request. The
// request must have been raised on this order, by its owner when audited.
func (s *OrderService) ConfirmChangeOffer(ctx context.Context, principal, orderID, requestID, offerID string, payment *domain.Payment) (*OrderResult, error) {
	if offerID == "" {
		return nil, domain.ErrValidation("offer id is required")
	}

	var result *OrderResult
	err := s.lockMutable(ctx, principal, orderID, func(rec *domain.BookingRecord) error {
		offer, err := s.airline.GetChangeOffer(ctx, offerID)
		if err != nil {
			return airline.Classify(err)
		}
		switch {
		case offer.RequestID == "":
			offer.RequestID = requestID
		case requestID != "" && offer.RequestID != requestID:
			return domain.NewError(domain.CodeNotFound, "change offer not found")
		}
		if offer.RequestID == "" {
			return domain.ErrValidation("change request id is required")
		}

		audit, err := s.ownedChangeRequest(ctx, rec, offer.RequestID)
		if err != nil {
			return err
		}

		order, err := s.confirmOffer(ctx, rec, *offer, payment)
		if err != nil {
			if code := domain.CodeOf(err); code != domain.CodePaymentRequired && code != domain.CodeValidation {
				s.recordOutcome(ctx, audit, domain.ChangeRequestFailed, offerID, nil)
			}
			return err
		}

		updated, warning := s.syncApplied(ctx, rec, order, EventOrderChanged)
		if !s.recordOutcome(ctx, audit, domain.ChangeRequestConfirmed, offerID, &offer.Delta) {
			warning = true
		}
		result = &OrderResult{Order: order, Booking: &updated, PersistenceWarning: warning}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("change offer confirmed", zap.String("order_id", orderID), zap.String("offer_id", offerID), zap.String("total", result.Order.Total.String()))
	return result, nil
}

// ownedChangeRequest checks requestID was raised on rec's order. The audit row
// answers when there is one; otherwise the airline is asked. A foreign
// request is NOT_FOUND.
func (s *OrderService) ownedChangeRequest(ctx context.Context, rec *domain.BookingRecord, requestID string) (*domain.OrderChange, error) {
	change, err := s.changes.GetByRequestID(ctx, requestID)
	switch {
	case err == nil:
		if change.OrderID != rec.OrderID || change.UserID != rec.UserID {
			s.logger.Warn("change request belongs to another order", zap.String("order_id", rec.OrderID), zap.String("request_id", requestID))
			return nil, domain.NewError(domain.CodeNotFound, "change request not found")
		}
		return change, nil
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.Error("load order change", zap.String("request_id", requestID), zap.Error(err))
		return nil, domain.WrapError(domain.CodeUpstreamFailure, "failed to load change request", err)
	}

	req, err := s.airline.GetChangeRequest(ctx, requestID)
	if err != nil {
		return nil, airline.Classify(err)
	}
	if req.OrderID != rec.OrderID {
		s.logger.Warn("change request belongs to another order", zap.String("order_id", rec.OrderID), zap.String("request_id", requestID))
		return nil, domain.NewError(domain.CodeNotFound, "change request not found")
	}
	return nil, nil
}

func (s *OrderService) recordChange(ctx context.Context, change *domain.OrderChange) bool {
	if err := s.changes.Insert(ctx, change); err != nil {
		s.logger.Error("persist order change", zap.String("order_id", change.OrderID), zap.String("request_id", change.ChangeRequestID), zap.Error(err))
		return false
	}
	return true
}

// recordOutcome updates a change request's audit row; unaudited requests have none.
func (s *OrderService) recordOutcome(ctx context.Context, change *domain.OrderChange, status domain.ChangeRequestStatus, offerID string, delta *domain.Money) bool {
	if change == nil {
		return true
	}
	if err := s.changes.UpdateOutcome(ctx, change.ID, status, offerID, delta); err != nil {
		s.logger.Error("update order change", zap.String("request_id", change.ChangeRequestID), zap.Error(err))
		return false
	}
	return true
}
