package orders

import (
	"testing"
	"time"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

const (
	testUser    = "user_1"
	testOrderID = "ord_1"
	eventsTopic = "orders.events"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	airline  *MockAirline
	bookings *MockBookingRepository
	changes  *MockChangeRepository
	producer *MockProducer
	svc      *OrderService
}

func newFixture(t *testing.T, opts ...OrderServiceOption) *fixture {
	t.Helper()
	f := &fixture{
		airline:  &MockAirline{},
		bookings: &MockBookingRepository{},
		changes:  &MockChangeRepository{},
		producer: &MockProducer{},
	}
	f.producer.On("Publish", mock.Anything, eventsTopic, mock.Anything, mock.Anything).Return(nil).Maybe()

	all := append([]OrderServiceOption{
		WithClock(func() time.Time { return fixedNow }),
		WithEvents(f.producer, eventsTopic),
	}, opts...)
	f.svc = NewOrderService(f.airline, f.bookings, f.changes, zap.NewNop(), all...)

	t.Cleanup(func() {
		f.airline.AssertExpectations(t)
		f.bookings.AssertExpectations(t)
		f.changes.AssertExpectations(t)
	})
	return f
}

// owns serves rec for the ownership check and again for the re-read under the lease.
func (f *fixture) owns(rec *domain.BookingRecord) {
	f.bookings.On("GetForUser", mock.Anything, rec.OrderID, rec.UserID).Return(rec, nil)
}

// patchOf applies whatever patch the service sends to a copy of rec.
func patchOf(rec *domain.BookingRecord) func(domain.BookingPatch) *domain.BookingRecord {
	base := *rec
	return func(p domain.BookingPatch) *domain.BookingRecord {
		r := p.Apply(base, fixedNow)
		return &r
	}
}

func usd(amount string) domain.Money {
	return domain.MustMoney(amount, "USD")
}

func testSnapshot() domain.BookingSnapshot {
	return domain.BookingSnapshot{
		BookingReference: "ABC123",
		Passengers:       []domain.Passenger{{ID: "pas_1", GivenName: "Amelia", FamilyName: "Earhart"}},
		Slices: []domain.Slice{
			{ID: "sli_1", Origin: "LHR", Destination: "JFK", Segments: []domain.Segment{{ID: "seg_1"}, {ID: "seg_2"}}},
			{ID: "sli_2", Origin: "JFK", Destination: "LHR", Segments: []domain.Segment{{ID: "seg_3"}}},
		},
		Services: []domain.Service{
			{ID: "ser_seat_1", Type: domain.ServiceTypeSeat, PassengerID: "pas_1", SegmentID: "seg_1", Quantity: 1, UnitPrice: usd("15.00")},
			{ID: "ser_bag_1", Type: domain.ServiceTypeBaggage, PassengerID: "pas_1", SegmentID: "seg_1", Quantity: 1, UnitPrice: usd("40.00")},
		},
	}
}

func heldRecord(expiresAt time.Time) *domain.BookingRecord {
	return &domain.BookingRecord{
		ID:               1,
		UserID:           testUser,
		OrderID:          testOrderID,
		BookingReference: "ABC123",
		Mode:             domain.OrderModeHold,
		Status:           domain.OrderStatusHeld,
		Total:            usd("500.00"),
		HoldExpiresAt:    &expiresAt,
		Metadata:         testSnapshot(),
		PaymentStatus:    domain.PaymentStatusPending,
		CreatedAt:        fixedNow.Add(-10 * time.Minute),
	}
}

func confirmedRecord() *domain.BookingRecord {
	return &domain.BookingRecord{
		ID:               1,
		UserID:           testUser,
		OrderID:          testOrderID,
		BookingReference: "ABC123",
		Mode:             domain.OrderModeInstant,
		Status:           domain.OrderStatusConfirmed,
		Total:            usd("500.00"),
		Metadata:         testSnapshot(),
		PaymentStatus:    domain.PaymentStatusPaid,
		CreatedAt:        fixedNow.Add(-24 * time.Hour),
	}
}

func airlineOrder(status domain.OrderStatus, total string) *domain.Order {
	snap := testSnapshot()
	return &domain.Order{
		ID:               testOrderID,
		BookingReference: snap.BookingReference,
		Status:           status,
		Total:            usd(total),
		Passengers:       snap.Passengers,
		Slices:           snap.Slices,
		Services:         snap.Services,
		CreatedAt:        fixedNow.Add(-time.Hour),
	}
}

func assertCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	if assert.Error(t, err) {
		var de *domain.Error
		if assert.ErrorAs(t, err, &de) {
			assert.Equal(t, code, de.Code, de.Error())
		}
	}
}
