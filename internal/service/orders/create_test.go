package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/airorders/internal/airline"
	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func liveOffer() *domain.Offer {
	return &domain.Offer{
		ID:        "off_1",
		ExpiresAt: fixedNow.Add(30 * time.Minute),
		Total:     usd("500.00"),
		Passengers: []domain.OfferPassenger{
			{ID: "pas_slot_0", Type: domain.PassengerTypeAdult},
		},
	}
}

func validPassenger() domain.Passenger {
	return domain.Passenger{
		GivenName:  " Amelia ",
		FamilyName: "Earhart",
		Email:      "Amelia@Example.com",
		BornOn:     "1987-07-24",
		Title:      "Ms",
		Gender:     "F",
	}
}

func TestOrderService_CreateOrder_HoldSuccess(t *testing.T) {
	f := newFixture(t)
	f.airline.On("GetOffer", mock.Anything, "off_1").Return(liveOffer(), nil)
	f.airline.On("CreateOrder", mock.Anything, mock.MatchedBy(func(in airline.CreateOrderInput) bool {
		return in.OfferID == "off_1" &&
			in.Mode == domain.OrderModeHold &&
			in.Payment == nil &&
			len(in.Passengers) == 1 &&
			in.Passengers[0].ID == "pas_slot_0" &&
			in.Passengers[0].GivenName == "Amelia" &&
			in.Passengers[0].Email == "amelia@example.com"
	})).Return(airlineOrder(domain.OrderStatusHeld, "500.00"), nil)

	expiresAt := fixedNow.Add(20 * time.Minute)
	f.bookings.On("Insert", mock.Anything, mock.MatchedBy(func(r *domain.BookingRecord) bool {
		return r.UserID == testUser &&
			r.OrderID == testOrderID &&
			r.Status == domain.OrderStatusHeld &&
			r.PaymentStatus == domain.PaymentStatusPending &&
			r.HoldExpiresAt != nil && r.HoldExpiresAt.Equal(expiresAt) &&
			r.Total.String() == "500.00 USD"
	})).Return(nil)

	res, err := f.svc.CreateOrder(context.Background(), testUser, CreateOrderInput{
		OfferID:    "off_1",
		Passengers: []domain.Passenger{validPassenger()},
		Hold:       true,
	})

	require.NoError(t, err)
	assert.False(t, res.PersistenceWarning)
	assert.Equal(t, domain.OrderStatusHeld, res.Order.Status)
	require.NotNil(t, res.Order.HoldExpiresAt)
	assert.Equal(t, expiresAt, *res.Order.HoldExpiresAt)
	f.producer.AssertCalled(t, "Publish", mock.Anything, eventsTopic, testOrderID, mock.Anything)
}

func TestOrderService_CreateOrder_CustomHoldDuration(t *testing.T) {
	f := newFixture(t)
	f.airline.On("GetOffer", mock.Anything, "off_1").Return(liveOffer(), nil)
	f.airline.On("CreateOrder", mock.Anything, mock.Anything).Return(airlineOrder(domain.OrderStatusHeld, "500.00"), nil)
	f.bookings.On("Insert", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.CreateOrder(context.Background(), testUser, CreateOrderInput{
		OfferID:      "off_1",
		Passengers:   []domain.Passenger{validPassenger()},
		Hold:         true,
		HoldDuration: 45 * time.Minute,
	})

	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(45*time.Minute), *res.Booking.HoldExpiresAt)
}

func TestOrderService_CreateOrder_InstantDefaultsToBalancePayment(t *testing.T) {
	f := newFixture(t)
	f.airline.On("GetOffer", mock.Anything, "off_1").Return(liveOffer(), nil)
	f.airline.On("CreateOrder", mock.Anything, mock.MatchedBy(func(in airline.CreateOrderInput) bool {
		return in.Mode == domain.OrderModeInstant &&
			in.Payment != nil &&
			in.Payment.Type == domain.PaymentTypeBalance &&
			in.Payment.Amount.String() == "500.00 USD"
	})).Return(airlineOrder(domain.OrderStatusConfirmed, "500.00"), nil)
	f.bookings.On("Insert", mock.Anything, mock.MatchedBy(func(r *domain.BookingRecord) bool {
		return r.Status == domain.OrderStatusConfirmed && r.PaymentStatus == domain.PaymentStatusPaid && r.HoldExpiresAt == nil
	})).Return(nil)

	res, err := f.svc.CreateOrder(context.Background(), testUser, CreateOrderInput{
		OfferID:    "off_1",
		Passengers: []domain.Passenger{validPassenger()},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, res.Order.Status)
	assert.Nil(t, res.Order.HoldExpiresAt)
}

func TestOrderService_CreateOrder_InstantPaymentCurrencyMismatch(t *testing.T) {
	f := newFixture(t)
	f.airline.On("GetOffer", mock.Anything, "off_1").Return(liveOffer(), nil)

	_, err := f.svc.CreateOrder(context.Background(), testUser, CreateOrderInput{
		OfferID:    "off_1",
		Passengers: []domain.Passenger{validPassenger()},
		Payment:    &domain.Payment{Type: "card", Amount: domain.MustMoney("500.00", "EUR")},
	})

	assertCode(t, err, domain.CodeValidation)
	f.airline.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_OfferExpired(t *testing.T) {
	f := newFixture(t)
	offer := liveOffer()
	offer.ExpiresAt = fixedNow
	f.airline.On("GetOffer", mock.Anything, "off_1").Return(offer, nil)

	_, err := f.svc.CreateOrder(context.Background(), testUser, CreateOrderInput{
		OfferID:    "off_1",
		Passengers: []domain.Passenger{validPassenger()},
		Hold:       true,
	})

	assertCode(t, err, domain.CodeOfferExpired)
	f.airline.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	f.bookings.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_RejectsBeforeNetwork(t *testing.T) {
	missingEmail := validPassenger()
	missingEmail.Email = ""
	badBirth := validPassenger()
	badBirth.BornOn = "24/07/1987"

	tests := []struct {
		name      string
		principal string
		input     CreateOrderInput
		code      domain.ErrorCode
	}{
		{"no principal", "", CreateOrderInput{OfferID: "off_1", Passengers: []domain.Passenger{validPassenger()}}, domain.CodeAuthRequired},
		{"no offer", testUser, CreateOrderInput{Passengers: []domain.Passenger{validPassenger()}}, domain.CodeValidation},
		{"no passengers", testUser, CreateOrderInput{OfferID: "off_1"}, domain.CodeInvalidPassengerData},
		{"missing email", testUser, CreateOrderInput{OfferID: "off_1", Passengers: []domain.Passenger{missingEmail}}, domain.CodeInvalidPassengerData},
		{"bad born_on", testUser, CreateOrderInput{OfferID: "off_1", Passengers: []domain.Passenger{badBirth}}, domain.CodeInvalidPassengerData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateOrder(context.Background(), tt.principal, tt.input)
			assertCode(t, err, tt.code)
			f.airline.AssertNotCalled(t, "GetOffer", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_CreateOrder_AirlineFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.airline.On("GetOffer", mock.Anything, "off_1").Return(liveOffer(), nil)
	f.airline.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &airline.APIError{StatusCode: 422, Errors: []airline.APIErrorItem{{Code: "offer_no_longer_available"}}})

	_, err := f.svc.CreateOrder(context.Background(), testUser, CreateOrderInput{
		OfferID:    "off_1",
		Passengers: []domain.Passenger{validPassenger()},
		Hold:       true,
	})

	assertCode(t, err, domain.CodeOfferExpired)
	f.bookings.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_PersistenceWarning(t *testing.T) {
	f := newFixture(t)
	f.airline.On("GetOffer", mock.Anything, "off_1").Return(liveOffer(), nil)
	f.airline.On("CreateOrder", mock.Anything, mock.Anything).Return(airlineOrder(domain.OrderStatusHeld, "500.00"), nil)
	f.bookings.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	res, err := f.svc.CreateOrder(context.Background(), testUser, CreateOrderInput{
		OfferID:    "off_1",
		Passengers: []domain.Passenger{validPassenger()},
		Hold:       true,
	})

	require.NoError(t, err)
	assert.True(t, res.PersistenceWarning)
	assert.Equal(t, testOrderID, res.Order.ID)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
