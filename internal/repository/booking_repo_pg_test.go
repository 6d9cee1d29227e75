package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

// fakeRow feeds fixed values into Scan destinations in column order.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *string:
			*d = v.(string)
		case *domain.OrderMode:
			*d = domain.OrderMode(v.(string))
		case *domain.OrderStatus:
			*d = domain.OrderStatus(v.(string))
		case *domain.PaymentStatus:
			*d = domain.PaymentStatus(v.(string))
		case **time.Time:
			*d = v.(*time.Time)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

func TestScanBooking(t *testing.T) {
	now := time.Now().UTC()
	exp := now.Add(20 * time.Minute)
	row := fakeRow{values: []any{
		int64(7), "user_1", "ord_1", "RZPVBD", "hold", "held", "500.00", "USD",
		&exp, []byte(`{"booking_reference":"RZPVBD","passengers":[{"id":"pas_1","given_name":"Amelia"}],"slices":[],"services":[]}`),
		"pending", now, now,
	}}

	b, err := scanBooking(row)
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.ID)
	assert.Equal(t, domain.OrderStatusHeld, b.Status)
	assert.Equal(t, "500.00 USD", b.Total.String())
	assert.Equal(t, &exp, b.HoldExpiresAt)
	require.Len(t, b.Metadata.Passengers, 1)
	assert.Equal(t, "Amelia", b.Metadata.Passengers[0].GivenName)
}

func TestScanBooking_NoRows(t *testing.T) {
	_, err := scanBooking(fakeRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, ErrNotFound)
}
