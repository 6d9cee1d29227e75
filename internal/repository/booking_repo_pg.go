package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("record not found")

type BookingRepository interface {
	Insert(ctx context.Context, record *domain.BookingRecord) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.BookingRecord, error)
	GetForUser(ctx context.Context, orderID, userID string) (*domain.BookingRecord, error)
	Patch(ctx context.Context, orderID string, patch domain.BookingPatch) (*domain.BookingRecord, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, order_id, booking_reference, mode, status, total_amount::text, total_currency,
	hold_expires_at, metadata, payment_status, created_at, updated_at`

func (r *PGBookingRepository) Insert(ctx context.Context, record *domain.BookingRecord) error {
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	return r.db.QueryRow(ctx, `INSERT INTO flight_bookings
		(user_id, order_id, booking_reference, mode, status, total_amount, total_currency, hold_expires_at, metadata, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		record.UserID, record.OrderID, record.BookingReference, record.Mode, record.Status,
		record.Total.AmountString(), record.Total.Currency, record.HoldExpiresAt, metadata, record.PaymentStatus).
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

func (r *PGBookingRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.BookingRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM flight_bookings WHERE order_id=$1`, orderID)
	return scanBooking(row)
}

// GetForUser filters on owner in SQL so another tenant's order is indistinguishable from a missing one.
func (r *PGBookingRepository) GetForUser(ctx context.Context, orderID, userID string) (*domain.BookingRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM flight_bookings WHERE order_id=$1 AND user_id=$2`, orderID, userID)
	return scanBooking(row)
}

// Patch updates only the non-nil fields of patch.
func (r *PGBookingRepository) Patch(ctx context.Context, orderID string, patch domain.BookingPatch) (*domain.BookingRecord, error) {
	var (
		status, paymentStatus, reference *string
		amount, currency                 *string
		metadata                         []byte
	)
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	if patch.PaymentStatus != nil {
		s := string(*patch.PaymentStatus)
		paymentStatus = &s
	}
	if patch.BookingReference != nil {
		reference = patch.BookingReference
	}
	if patch.Total != nil {
		a, c := patch.Total.AmountString(), patch.Total.Currency
		amount, currency = &a, &c
	}
	if patch.Metadata != nil {
		data, err := json.Marshal(patch.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = data
	}

	row := r.db.QueryRow(ctx, `UPDATE flight_bookings SET
		status = COALESCE($2, status),
		total_amount = COALESCE($3::numeric, total_amount),
		total_currency = COALESCE($4, total_currency),
		hold_expires_at = COALESCE($5, hold_expires_at),
		metadata = COALESCE($6::jsonb, metadata),
		payment_status = COALESCE($7, payment_status),
		booking_reference = COALESCE($8, booking_reference),
		updated_at = now()
		WHERE order_id = $1
		RETURNING `+bookingColumns,
		orderID, status, amount, currency, patch.HoldExpiresAt, metadata, paymentStatus, reference)
	return scanBooking(row)
}

func scanBooking(row pgx.Row) (*domain.BookingRecord, error) {
	var (
		b        domain.BookingRecord
		amount   string
		currency string
		holdExp  *time.Time
		metadata []byte
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.OrderID, &b.BookingReference, &b.Mode, &b.Status, &amount, &currency,
		&holdExp, &metadata, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse total_amount: %w", err)
	}
	b.Total = domain.Money{Amount: d, Currency: currency}
	b.HoldExpiresAt = holdExp
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &b.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
