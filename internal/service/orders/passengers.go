package orders

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/airorders/internal/domain"
)

// normalizePassengers cleans caller input and binds each passenger to an id
// the airline accepts: the caller's own, else the offer slot at the same
// position, else pas_<index>.
func normalizePassengers(in []domain.Passenger, slots []domain.OfferPassenger) []domain.Passenger {
	out := make([]domain.Passenger, len(in))
	for i, p := range in {
		p.GivenName = strings.TrimSpace(p.GivenName)
		p.FamilyName = strings.TrimSpace(p.FamilyName)
		p.Email = strings.ToLower(strings.TrimSpace(p.Email))
		p.Title = strings.ToLower(strings.TrimSpace(p.Title))
		p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
		p.Phone = strings.ReplaceAll(strings.TrimSpace(p.Phone), " ", "")
		p.BornOn = strings.TrimSpace(p.BornOn)
		p.ID = strings.TrimSpace(p.ID)

		if p.ID == "" {
			if i < len(slots) && slots[i].ID != "" {
				p.ID = slots[i].ID
			} else {
				p.ID = fmt.Sprintf("pas_%d", i)
			}
		}
		if p.Type == "" {
			if i < len(slots) && slots[i].Type != "" {
				p.Type = slots[i].Type
			} else {
				p.Type = domain.PassengerTypeAdult
			}
		}
		if p.Loyalty != nil && (p.Loyalty.AccountNumber == "" || p.Loyalty.AirlineIATACode == "") {
			p.Loyalty = nil
		}
		out[i] = p
	}
	return out
}
