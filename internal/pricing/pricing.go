// Package pricing reconciles order totals with change deltas.
package pricing

import (
	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/shopspring/decimal"
)

// Apply returns current + delta rounded to minor units. The delta must be in the
// order's settlement currency; cross-currency changes are rejected.
func Apply(current, delta domain.Money) (domain.Money, error) {
	if err := SameCurrency(current, delta); err != nil {
		return domain.Money{}, err
	}
	return domain.Money{
		Amount:   current.Amount.Add(delta.Amount).Round(domain.MinorUnits),
		Currency: current.Currency,
	}, nil
}

func SameCurrency(a, b domain.Money) error {
	if !a.SameCurrency(b) {
		return domain.ErrValidation("currency mismatch: %s vs %s", a.Currency, b.Currency)
	}
	return nil
}

// RequiresPayment reports whether a delta charges the traveler.
func RequiresPayment(delta domain.Money) bool {
	return delta.Amount.GreaterThan(decimal.Zero)
}

// Cheapest picks the offer with the lowest delta, the first one on ties.
func Cheapest(offers []domain.ChangeOffer) (domain.ChangeOffer, bool) {
	if len(offers) == 0 {
		return domain.ChangeOffer{}, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.Delta.Amount.LessThan(best.Delta.Amount) {
			best = o
		}
	}
	return best, true
}
