package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// BookingSnapshot is the last known passengers/slices/services for display.
type BookingSnapshot struct {
	BookingReference string      `json:"booking_reference,omitempty"`
	Passengers       []Passenger `json:"passengers"`
	Slices           []Slice     `json:"slices"`
	Services         []Service   `json:"services"`
}

// BookingRecord is the local mirror of an airline order, one row per order.
type BookingRecord struct {
	ID               int64           `json:"id"`
	UserID           string          `json:"user_id"`
	OrderID          string          `json:"order_id"`
	BookingReference string          `json:"booking_reference"`
	Mode             OrderMode       `json:"mode"`
	Status           OrderStatus     `json:"status"`
	Total            Money           `json:"total"`
	HoldExpiresAt    *time.Time      `json:"hold_expires_at,omitempty"`
	Metadata         BookingSnapshot `json:"metadata"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// HoldLapsed reports whether a held record is past its local expiry.
func (b *BookingRecord) HoldLapsed(now time.Time) bool {
	return b.Status == OrderStatusHeld && b.HoldExpiresAt != nil && !b.HoldExpiresAt.After(now)
}

// BookingPatch carries only the fields a mutation changed; nil fields are left untouched.
type BookingPatch struct {
	Status           *OrderStatus
	Total            *Money
	HoldExpiresAt    *time.Time
	Metadata         *BookingSnapshot
	PaymentStatus    *PaymentStatus
	BookingReference *string
}

func (p BookingPatch) Empty() bool {
	return p.Status == nil && p.Total == nil && p.HoldExpiresAt == nil &&
		p.Metadata == nil && p.PaymentStatus == nil && p.BookingReference == nil
}

// Apply returns a copy of the record with the patch applied.
func (p BookingPatch) Apply(r BookingRecord, now time.Time) BookingRecord {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Total != nil {
		r.Total = *p.Total
	}
	if p.HoldExpiresAt != nil {
		t := *p.HoldExpiresAt
		r.HoldExpiresAt = &t
	}
	if p.Metadata != nil {
		r.Metadata = *p.Metadata
	}
	if p.PaymentStatus != nil {
		r.PaymentStatus = *p.PaymentStatus
	}
	if p.BookingReference != nil {
		r.BookingReference = *p.BookingReference
	}
	r.UpdatedAt = now
	return r
}

// OrderChange is the audit row kept for every itinerary or passenger change request.
type OrderChange struct {
	ID              string
	OrderID         string
	UserID          string
	ChangeRequestID string
	Kind            MutationKind
	Payload         Mutation
	Snapshot        BookingSnapshot
	Status          ChangeRequestStatus
	Reason          string
	SelectedOfferID string
	Delta           *Money
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SeatMap struct {
	ID        string      `json:"id"`
	SegmentID string      `json:"segment_id"`
	SliceID   string      `json:"slice_id"`
	Cabins    []SeatCabin `json:"cabins"`
}

type SeatCabin struct {
	CabinClass string    `json:"cabin_class"`
	Rows       []SeatRow `json:"rows"`
}

type SeatRow struct {
	Seats []Seat `json:"seats"`
}

// Seat is one designator on a seat map; Services lists the sellable options per passenger.
type Seat struct {
	Designator string        `json:"designator"`
	Available  bool          `json:"available"`
	Services   []SeatService `json:"services,omitempty"`
}

type SeatService struct {
	ID          string `json:"id"`
	PassengerID string `json:"passenger_id"`
	Price       Money  `json:"total"`
}
