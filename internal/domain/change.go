package domain

import "time"

type MutationKind string

const (
	MutationSlices     MutationKind = "slices"
	MutationPassengers MutationKind = "passengers"
	MutationServices   MutationKind = "services"
)

// Mutation is one of SliceChange, PassengerChange or ServiceChange.
type Mutation interface {
	Kind() MutationKind
	Empty() bool
}

type SliceSpec struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	CabinClass    string `json:"cabin_class,omitempty"`
}

type SliceChange struct {
	Add    []SliceSpec `json:"add,omitempty"`
	Remove []string    `json:"remove,omitempty"`
}

func (SliceChange) Kind() MutationKind { return MutationSlices }
func (c SliceChange) Empty() bool      { return len(c.Add) == 0 && len(c.Remove) == 0 }

type PassengerChange struct {
	Add    []Passenger `json:"add,omitempty"`
	Remove []string    `json:"remove,omitempty"`
}

func (PassengerChange) Kind() MutationKind { return MutationPassengers }
func (c PassengerChange) Empty() bool      { return len(c.Add) == 0 && len(c.Remove) == 0 }

// ServiceSelection asks for a quantity of an available service for one passenger on one segment.
type ServiceSelection struct {
	ServiceID   string `json:"id"`
	PassengerID string `json:"passenger_id"`
	SegmentID   string `json:"segment_id"`
	Quantity    int    `json:"quantity"`
}

type ServiceChange struct {
	Type   ServiceType        `json:"type"`
	Add    []ServiceSelection `json:"add,omitempty"`
	Remove []string           `json:"remove,omitempty"`
}

func (ServiceChange) Kind() MutationKind { return MutationServices }
func (c ServiceChange) Empty() bool      { return len(c.Add) == 0 && len(c.Remove) == 0 }

type ChangeRequestStatus string

const (
	ChangeRequestPending   ChangeRequestStatus = "pending"
	ChangeRequestOffered   ChangeRequestStatus = "offered"
	ChangeRequestConfirmed ChangeRequestStatus = "confirmed"
	ChangeRequestExpired   ChangeRequestStatus = "expired"
	ChangeRequestFailed    ChangeRequestStatus = "failed"
)

type ChangeRequest struct {
	ID        string              `json:"id"`
	OrderID   string              `json:"order_id"`
	Mutation  Mutation            `json:"-"`
	Status    ChangeRequestStatus `json:"status"`
	Reason    string              `json:"reason,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ChangeOffer is a priced option that fulfils a change request.
type ChangeOffer struct {
	ID         string      `json:"id"`
	RequestID  string      `json:"order_change_request_id"`
	Delta      Money       `json:"change_total"`
	NewTotal   Money       `json:"new_total"`
	ExpiresAt  time.Time   `json:"expires_at"`
	Slices     []Slice     `json:"slices,omitempty"`
	Passengers []Passenger `json:"passengers,omitempty"`
	Services   []Service   `json:"services,omitempty"`
}

func (o *ChangeOffer) ExpiredAt(now time.Time) bool {
	return !o.ExpiresAt.After(now)
}

// Proposal is what the airline returns for a submitted change request.
// Order is set only when the airline applied the change without confirmation.
type Proposal struct {
	Request              ChangeRequest `json:"request"`
	Offers               []ChangeOffer `json:"offers"`
	RequiresConfirmation bool          `json:"requires_confirmation"`
	Order                *Order        `json:"order,omitempty"`
}

type ProposalState int

const (
	NeedsSelection ProposalState = iota
	AlreadyApplied
)

func (s ProposalState) String() string {
	if s == AlreadyApplied {
		return "already_applied"
	}
	return "needs_selection"
}

func (p *Proposal) State() ProposalState {
	if !p.RequiresConfirmation && p.Order != nil {
		return AlreadyApplied
	}
	return NeedsSelection
}
