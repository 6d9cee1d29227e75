package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airorders/internal/domain"
)

const dateLayout = "2006-01-02"

// CreateOrderInput describes a new order. HoldDuration overrides the default
// hold window for hold orders.
type CreateOrderInput struct {
	OfferID      string             `json:"offer_id"`
	Passengers   []domain.Passenger `json:"passengers"`
	Hold         bool               `json:"hold"`
	HoldDuration time.Duration      `json:"-"`
	Payment      *domain.Payment    `json:"payment,omitempty"`
}

func passengerError(format string, args ...any) *domain.Error {
	return domain.NewError(domain.CodeInvalidPassengerData, fmt.Sprintf(format, args...))
}

// validateCreate runs every check that needs no network call.
func validateCreate(principal string, in CreateOrderInput) error {
	if principal == "" {
		return domain.ErrAuthRequired()
	}
	if strings.TrimSpace(in.OfferID) == "" {
		return domain.ErrValidation("offer_id is required")
	}
	if len(in.Passengers) == 0 {
		return passengerError("at least one passenger is required")
	}
	for i, p := range in.Passengers {
		if err := validatePassenger(i, p); err != nil {
			return err
		}
	}
	if in.HoldDuration < 0 {
		return domain.ErrValidation("hold duration must not be negative")
	}
	if in.Payment != nil && !in.Payment.Valid() {
		return domain.ErrValidation("payment requires a type and a non-negative amount with currency")
	}
	return nil
}

func validatePassenger(i int, p domain.Passenger) error {
	if strings.TrimSpace(p.GivenName) == "" {
		return passengerError("passenger %d: given_name is required", i)
	}
	if strings.TrimSpace(p.FamilyName) == "" {
		return passengerError("passenger %d: family_name is required", i)
	}
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return passengerError("passenger %d: email is required", i)
	}
	if !strings.Contains(email, "@") {
		return passengerError("passenger %d: email %q is not valid", i, email)
	}
	if _, err := time.Parse(dateLayout, strings.TrimSpace(p.BornOn)); err != nil {
		return passengerError("passenger %d: born_on must be YYYY-MM-DD", i)
	}
	if p.Type != "" && !p.Type.Valid() {
		return passengerError("passenger %d: unknown type %q", i, p.Type)
	}
	return nil
}

// validateOffer gates order creation on an offer that is still live.
func validateOffer(offer *domain.Offer, now time.Time) error {
	if offer == nil {
		return domain.ErrValidation("offer not found")
	}
	if offer.ExpiredAt(now) {
		return domain.NewError(domain.CodeOfferExpired, fmt.Sprintf("offer %s expired at %s", offer.ID, offer.ExpiresAt.UTC().Format(time.RFC3339)))
	}
	return nil
}

func validateMutation(m domain.Mutation) error {
	if m == nil || m.Empty() {
		return domain.ErrValidation("change must add or remove at least one item")
	}
	if pc, ok := m.(domain.PassengerChange); ok {
		for i, p := range pc.Add {
			if err := validatePassenger(i, p); err != nil {
				return err
			}
		}
	}
	if sc, ok := m.(domain.SliceChange); ok {
		for i, spec := range sc.Add {
			if spec.Origin == "" || spec.Destination == "" {
				return domain.ErrValidation("slice %d: origin and destination are required", i)
			}
			if _, err := time.Parse(dateLayout, spec.DepartureDate); err != nil {
				return domain.ErrValidation("slice %d: departure_date must be YYYY-MM-DD", i)
			}
		}
	}
	return nil
}

// validateSelections checks add-only service selections against the known order contents.
func validateSelections(kind domain.ServiceType, selections []domain.ServiceSelection, snapshot domain.BookingSnapshot) ([]domain.ServiceSelection, error) {
	if len(selections) == 0 {
		return nil, domain.ErrValidation("at least one %s selection is required", kind)
	}
	passengers := make(map[string]bool, len(snapshot.Passengers))
	for _, p := range snapshot.Passengers {
		passengers[p.ID] = true
	}
	segments := make(map[string]bool)
	for _, sl := range snapshot.Slices {
		for _, seg := range sl.Segments {
			segments[seg.ID] = true
		}
	}

	out := make([]domain.ServiceSelection, 0, len(selections))
	for i, sel := range selections {
		if sel.ServiceID == "" {
			return nil, domain.ErrValidation("%s %d: id is required", kind, i)
		}
		if sel.PassengerID == "" || sel.SegmentID == "" {
			return nil, domain.ErrValidation("%s %d: passenger_id and segment_id are required", kind, i)
		}
		if len(passengers) > 0 && !passengers[sel.PassengerID] {
			return nil, domain.ErrValidation("%s %d: passenger %s is not on this order", kind, i, sel.PassengerID)
		}
		if len(segments) > 0 && !segments[sel.SegmentID] {
			return nil, domain.ErrValidation("%s %d: segment %s is not on this order", kind, i, sel.SegmentID)
		}
		if sel.Quantity == 0 {
			sel.Quantity = 1
		}
		if sel.Quantity < 1 {
			return nil, domain.ErrValidation("%s %d: quantity must be at least 1", kind, i)
		}
		if kind == domain.ServiceTypeSeat && sel.Quantity != 1 {
			return nil, domain.ErrValidation("seat %d: quantity must be 1", i)
		}
		out = append(out, sel)
	}
	return out, nil
}
