package domain

import "time"

type OrderMode string

const (
	OrderModeInstant OrderMode = "instant"
	OrderModeHold    OrderMode = "hold"
)

type PassengerType string

const (
	PassengerTypeAdult             PassengerType = "adult"
	PassengerTypeChild             PassengerType = "child"
	PassengerTypeInfantWithoutSeat PassengerType = "infant_without_seat"
)

func (t PassengerType) Valid() bool {
	switch t {
	case PassengerTypeAdult, PassengerTypeChild, PassengerTypeInfantWithoutSeat:
		return true
	}
	return false
}

type ServiceType string

const (
	ServiceTypeSeat    ServiceType = "seat"
	ServiceTypeBaggage ServiceType = "baggage"
)

// Offer is a priced, time-limited purchase option quoted by the airline.
type Offer struct {
	ID         string           `json:"id"`
	ExpiresAt  time.Time        `json:"expires_at"`
	Total      Money            `json:"total"`
	Passengers []OfferPassenger `json:"passengers"`
}

// OfferPassenger is a passenger slot on an offer.
type OfferPassenger struct {
	ID   string        `json:"id"`
	Type PassengerType `json:"type"`
}

func (o *Offer) ExpiredAt(now time.Time) bool {
	return !o.ExpiresAt.After(now)
}

type LoyaltyAccount struct {
	AirlineIATACode string `json:"airline_iata_code"`
	AccountNumber   string `json:"account_number"`
}

type Passenger struct {
	ID         string          `json:"id"`
	Type       PassengerType   `json:"type"`
	Title      string          `json:"title,omitempty"`
	GivenName  string          `json:"given_name"`
	FamilyName string          `json:"family_name"`
	Gender     string          `json:"gender,omitempty"`
	BornOn     string          `json:"born_on"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone_number,omitempty"`
	Loyalty    *LoyaltyAccount `json:"loyalty_programme_account,omitempty"`
}

type Segment struct {
	ID            string    `json:"id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartingAt   time.Time `json:"departing_at"`
	ArrivingAt    time.Time `json:"arriving_at"`
	MarketingCode string    `json:"marketing_carrier_flight_number,omitempty"`
}

// Slice is one itinerary leg.
type Slice struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Segments    []Segment `json:"segments"`
}

// Service is a seat or baggage add-on attached to a passenger and segment.
type Service struct {
	ID          string      `json:"id"`
	Type        ServiceType `json:"type"`
	PassengerID string      `json:"passenger_id"`
	SegmentID   string      `json:"segment_id"`
	Quantity    int         `json:"quantity"`
	UnitPrice   Money       `json:"unit_price"`
}

type OrderStatus string

const (
	OrderStatusHeld      OrderStatus = "held"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusFailed    OrderStatus = "failed"
)

// Terminal reports whether no further mutation of the order lifecycle is allowed.
// Confirmed orders still accept service and itinerary changes.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusExpired || s == OrderStatusFailed
}

// Order is the airline-side booking.
type Order struct {
	ID                string      `json:"id"`
	BookingReference  string      `json:"booking_reference"`
	Mode              OrderMode   `json:"mode"`
	Status            OrderStatus `json:"status"`
	Total             Money       `json:"total"`
	Passengers        []Passenger `json:"passengers"`
	Slices            []Slice     `json:"slices"`
	Services          []Service   `json:"services"`
	HoldExpiresAt     *time.Time  `json:"hold_expires_at,omitempty"`
	PaymentRequiredBy *time.Time  `json:"payment_required_by,omitempty"`
	CancelledAt       *time.Time  `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}

func (o *Order) SegmentIDs() []string {
	var ids []string
	for _, s := range o.Slices {
		for _, seg := range s.Segments {
			ids = append(ids, seg.ID)
		}
	}
	return ids
}

// Snapshot is the display copy kept on the booking record.
func (o *Order) Snapshot() BookingSnapshot {
	return BookingSnapshot{
		BookingReference: o.BookingReference,
		Passengers:       o.Passengers,
		Slices:           o.Slices,
		Services:         o.Services,
	}
}

// Payment is the instrument data forwarded to the airline.
type Payment struct {
	Type   string `json:"type"`
	Amount Money  `json:"amount"`
}

const PaymentTypeBalance = "balance"

func (p *Payment) Valid() bool {
	return p != nil && p.Type != "" && p.Amount.Currency != "" && !p.Amount.Amount.IsNegative()
}
