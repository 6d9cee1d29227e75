package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of fractional digits kept for every settlement currency.
const MinorUnits = 2

// Money is an amount in a single ISO 4217 currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: strings.ToUpper(currency)}, nil
}

// MustMoney is NewMoney for literals known to be valid.
func MustMoney(amount, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero() && m.Currency == ""
}

func (m Money) String() string {
	return m.Amount.StringFixed(MinorUnits) + " " + m.Currency
}

// AmountString renders the amount the way the airline API and the database expect it.
func (m Money) AmountString() string {
	return m.Amount.StringFixed(MinorUnits)
}

func (m Money) SameCurrency(other Money) bool {
	return strings.EqualFold(m.Currency, other.Currency)
}
