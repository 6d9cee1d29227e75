package airline

import (
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/shopspring/decimal"
)

// timestamp accepts both zoned datetimes and the airline's local departure times.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

func (t timestamp) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type place struct {
	IATACode string `json:"iata_code"`
}

func money(amount, currency string) domain.Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		d = decimal.Zero
	}
	return domain.Money{Amount: d, Currency: strings.ToUpper(currency)}
}

type offerPassengerDTO struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type offerDTO struct {
	ID            string              `json:"id"`
	ExpiresAt     timestamp           `json:"expires_at"`
	TotalAmount   string              `json:"total_amount"`
	TotalCurrency string              `json:"total_currency"`
	Passengers    []offerPassengerDTO `json:"passengers"`
}

func (o offerDTO) toDomain() *domain.Offer {
	offer := &domain.Offer{
		ID:        o.ID,
		ExpiresAt: o.ExpiresAt.Time,
		Total:     money(o.TotalAmount, o.TotalCurrency),
	}
	for _, p := range o.Passengers {
		offer.Passengers = append(offer.Passengers, domain.OfferPassenger{ID: p.ID, Type: domain.PassengerType(p.Type)})
	}
	return offer
}

type loyaltyDTO struct {
	AirlineIATACode string `json:"airline_iata_code"`
	AccountNumber   string `json:"account_number"`
}

type passengerDTO struct {
	ID         string       `json:"id"`
	Type       string       `json:"type,omitempty"`
	Title      string       `json:"title,omitempty"`
	GivenName  string       `json:"given_name"`
	FamilyName string       `json:"family_name"`
	Gender     string       `json:"gender,omitempty"`
	BornOn     string       `json:"born_on"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone_number,omitempty"`
	Loyalty    []loyaltyDTO `json:"loyalty_programme_accounts,omitempty"`
}

func passengerFromDomain(p domain.Passenger) passengerDTO {
	dto := passengerDTO{
		ID:         p.ID,
		Type:       string(p.Type),
		Title:      p.Title,
		GivenName:  p.GivenName,
		FamilyName: p.FamilyName,
		Gender:     p.Gender,
		BornOn:     p.BornOn,
		Email:      p.Email,
		Phone:      p.Phone,
	}
	if p.Loyalty != nil {
		dto.Loyalty = []loyaltyDTO{{AirlineIATACode: p.Loyalty.AirlineIATACode, AccountNumber: p.Loyalty.AccountNumber}}
	}
	return dto
}

func (p passengerDTO) toDomain() domain.Passenger {
	out := domain.Passenger{
		ID:         p.ID,
		Type:       domain.PassengerType(p.Type),
		Title:      p.Title,
		GivenName:  p.GivenName,
		FamilyName: p.FamilyName,
		Gender:     p.Gender,
		BornOn:     p.BornOn,
		Email:      p.Email,
		Phone:      p.Phone,
	}
	if len(p.Loyalty) > 0 {
		out.Loyalty = &domain.LoyaltyAccount{AirlineIATACode: p.Loyalty[0].AirlineIATACode, AccountNumber: p.Loyalty[0].AccountNumber}
	}
	return out
}

type segmentDTO struct {
	ID                           string    `json:"id"`
	Origin                       place     `json:"origin"`
	Destination                  place     `json:"destination"`
	DepartingAt                  timestamp `json:"departing_at"`
	ArrivingAt                   timestamp `json:"arriving_at"`
	MarketingCarrierFlightNumber string    `json:"marketing_carrier_flight_number"`
}

type sliceDTO struct {
	ID          string       `json:"id"`
	Origin      place        `json:"origin"`
	Destination place        `json:"destination"`
	Segments    []segmentDTO `json:"segments"`
}

func (s sliceDTO) toDomain() domain.Slice {
	out := domain.Slice{ID: s.ID, Origin: s.Origin.IATACode, Destination: s.Destination.IATACode}
	for _, seg := range s.Segments {
		out.Segments = append(out.Segments, domain.Segment{
			ID:            seg.ID,
			Origin:        seg.Origin.IATACode,
			Destination:   seg.Destination.IATACode,
			DepartingAt:   seg.DepartingAt.Time,
			ArrivingAt:    seg.ArrivingAt.Time,
			MarketingCode: seg.MarketingCarrierFlightNumber,
		})
	}
	return out
}

type serviceDTO struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	PassengerIDs  []string `json:"passenger_ids"`
	SegmentIDs    []string `json:"segment_ids"`
	Quantity      int      `json:"quantity"`
	TotalAmount   string   `json:"total_amount"`
	TotalCurrency string   `json:"total_currency"`
}

func (s serviceDTO) toDomain() domain.Service {
	qty := s.Quantity
	if qty <= 0 {
		qty = 1
	}
	total := money(s.TotalAmount, s.TotalCurrency)
	out := domain.Service{
		ID:       s.ID,
		Type:     domain.ServiceType(s.Type),
		Quantity: qty,
		UnitPrice: domain.Money{
			Amount:   total.Amount.Div(decimal.NewFromInt(int64(qty))).Round(domain.MinorUnits),
			Currency: total.Currency,
		},
	}
	if len(s.PassengerIDs) > 0 {
		out.PassengerID = s.PassengerIDs[0]
	}
	if len(s.SegmentIDs) > 0 {
		out.SegmentID = s.SegmentIDs[0]
	}
	return out
}

type paymentStatusDTO struct {
	AwaitingPayment   bool      `json:"awaiting_payment"`
	PaymentRequiredBy timestamp `json:"payment_required_by"`
}

type orderDTO struct {
	ID               string           `json:"id"`
	BookingReference string           `json:"booking_reference"`
	Type             string           `json:"type"`
	TotalAmount      string           `json:"total_amount"`
	TotalCurrency    string           `json:"total_currency"`
	Passengers       []passengerDTO   `json:"passengers"`
	Slices           []sliceDTO       `json:"slices"`
	Services         []serviceDTO     `json:"services"`
	PaymentStatus    paymentStatusDTO `json:"payment_status"`
	CancelledAt      timestamp        `json:"cancelled_at"`
	CreatedAt        timestamp        `json:"created_at"`
}

// toDomain derives the lifecycle status from the airline's payment and cancellation fields.
// Hold expiry is not set here; it is computed locally by the caller.
func (o orderDTO) toDomain(now time.Time) *domain.Order {
	order := &domain.Order{
		ID:                o.ID,
		BookingReference:  o.BookingReference,
		Mode:              domain.OrderModeInstant,
		Total:             money(o.TotalAmount, o.TotalCurrency),
		PaymentRequiredBy: o.PaymentStatus.PaymentRequiredBy.ptr(),
		CancelledAt:       o.CancelledAt.ptr(),
		CreatedAt:         o.CreatedAt.Time,
	}
	if o.Type == string(domain.OrderModeHold) {
		order.Mode = domain.OrderModeHold
	}

	switch {
	case order.CancelledAt != nil:
		order.Status = domain.OrderStatusCancelled
	case o.PaymentStatus.AwaitingPayment:
		order.Status = domain.OrderStatusHeld
		if order.PaymentRequiredBy != nil && !order.PaymentRequiredBy.After(now) {
			order.Status = domain.OrderStatusExpired
		}
	default:
		order.Status = domain.OrderStatusConfirmed
	}

	for _, p := range o.Passengers {
		order.Passengers = append(order.Passengers, p.toDomain())
	}
	for _, s := range o.Slices {
		order.Slices = append(order.Slices, s.toDomain())
	}
	for _, s := range o.Services {
		order.Services = append(order.Services, s.toDomain())
	}
	return order
}

type paymentDTO struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func paymentFromDomain(p domain.Payment) paymentDTO {
	return paymentDTO{Type: p.Type, Amount: p.Amount.AmountString(), Currency: p.Amount.Currency}
}

type changeOfferDTO struct {
	ID                   string         `json:"id"`
	OrderChangeRequestID string         `json:"order_change_request_id"`
	ChangeTotalAmount    string         `json:"change_total_amount"`
	ChangeTotalCurrency  string         `json:"change_total_currency"`
	NewTotalAmount       string         `json:"new_total_amount"`
	NewTotalCurrency     string         `json:"new_total_currency"`
	ExpiresAt            timestamp      `json:"expires_at"`
	Slices               changeSlices   `json:"slices"`
	Passengers           []passengerDTO `json:"passengers"`
	Services             []serviceDTO   `json:"services"`
}

type changeSlices struct {
	Add []sliceDTO `json:"add"`
}

func (o changeOfferDTO) toDomain(requestID string) domain.ChangeOffer {
	if o.OrderChangeRequestID != "" {
		requestID = o.OrderChangeRequestID
	}
	offer := domain.ChangeOffer{
		ID:        o.ID,
		RequestID: requestID,
		Delta:     money(o.ChangeTotalAmount, o.ChangeTotalCurrency),
		NewTotal:  money(o.NewTotalAmount, o.NewTotalCurrency),
		ExpiresAt: o.ExpiresAt.Time,
	}
	for _, s := range o.Slices.Add {
		offer.Slices = append(offer.Slices, s.toDomain())
	}
	for _, p := range o.Passengers {
		offer.Passengers = append(offer.Passengers, p.toDomain())
	}
	for _, s := range o.Services {
		offer.Services = append(offer.Services, s.toDomain())
	}
	return offer
}

type changeRequestDTO struct {
	ID                   string           `json:"id"`
	OrderID              string           `json:"order_id"`
	OrderChangeOffers    []changeOfferDTO `json:"order_change_offers"`
	RequiresConfirmation *bool            `json:"requires_confirmation"`
	Order                *orderDTO        `json:"order"`
	CreatedAt            timestamp        `json:"created_at"`
}

type seatServiceDTO struct {
	ID            string `json:"id"`
	PassengerID   string `json:"passenger_id"`
	TotalAmount   string `json:"total_amount"`
	TotalCurrency string `json:"total_currency"`
}

type seatElementDTO struct {
	Type              string           `json:"type"`
	Designator        string           `json:"designator"`
	AvailableServices []seatServiceDTO `json:"available_services"`
}

type seatSectionDTO struct {
	Elements []seatElementDTO `json:"elements"`
}

type seatRowDTO struct {
	Sections []seatSectionDTO `json:"sections"`
}

type cabinDTO struct {
	CabinClass string       `json:"cabin_class"`
	Rows       []seatRowDTO `json:"rows"`
}

type seatMapDTO struct {
	ID        string     `json:"id"`
	SegmentID string     `json:"segment_id"`
	SliceID   string     `json:"slice_id"`
	Cabins    []cabinDTO `json:"cabins"`
}

// toDomain flattens sections into rows, keeping only seat elements.
func (m seatMapDTO) toDomain() domain.SeatMap {
	out := domain.SeatMap{ID: m.ID, SegmentID: m.SegmentID, SliceID: m.SliceID}
	for _, c := range m.Cabins {
		cabin := domain.SeatCabin{CabinClass: c.CabinClass}
		for _, r := range c.Rows {
			var row domain.SeatRow
			for _, sec := range r.Sections {
				for _, el := range sec.Elements {
					if el.Type != "seat" {
						continue
					}
					seat := domain.Seat{Designator: el.Designator, Available: len(el.AvailableServices) > 0}
					for _, svc := range el.AvailableServices {
						seat.Services = append(seat.Services, domain.SeatService{
							ID:          svc.ID,
							PassengerID: svc.PassengerID,
							Price:       money(svc.TotalAmount, svc.TotalCurrency),
						})
					}
					row.Seats = append(row.Seats, seat)
				}
			}
			cabin.Rows = append(cabin.Rows, row)
		}
		out.Cabins = append(out.Cabins, cabin)
	}
	return out
}
