package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const flightBookingsDDL = `CREATE TABLE IF NOT EXISTS flight_bookings (
	id                BIGSERIAL PRIMARY KEY,
	user_id           TEXT NOT NULL,
	order_id          TEXT NOT NULL UNIQUE,
	booking_reference TEXT NOT NULL DEFAULT '',
	mode              TEXT NOT NULL,
	status            TEXT NOT NULL,
	total_amount      NUMERIC(12, 2) NOT NULL,
	total_currency    CHAR(3) NOT NULL,
	hold_expires_at   TIMESTAMPTZ,
	metadata          JSONB NOT NULL DEFAULT '{}'::jsonb,
	payment_status    TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS flight_bookings_user_id_idx ON flight_bookings (user_id);`

const orderChangesDDL = `CREATE TABLE IF NOT EXISTS order_changes (
	id                 UUID PRIMARY KEY,
	order_id           TEXT NOT NULL,
	user_id            TEXT NOT NULL,
	change_request_id  TEXT NOT NULL DEFAULT '',
	kind               TEXT NOT NULL,
	payload            JSONB NOT NULL,
	snapshot           JSONB NOT NULL,
	status             TEXT NOT NULL,
	reason             TEXT NOT NULL DEFAULT '',
	selected_offer_id  TEXT NOT NULL DEFAULT '',
	delta_amount       NUMERIC(12, 2),
	delta_currency     CHAR(3),
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS order_changes_order_id_idx ON order_changes (order_id);
CREATE INDEX IF NOT EXISTS order_changes_request_idx ON order_changes (change_request_id);`

// EnsureSchema creates the booking mirror and change audit tables.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, flightBookingsDDL); err != nil {
		return fmt.Errorf("creating flight_bookings table: %w", err)
	}
	if _, err := db.Exec(ctx, orderChangesDDL); err != nil {
		return fmt.Errorf("creating order_changes table: %w", err)
	}
	return nil
}
