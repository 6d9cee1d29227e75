package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ChangeRepository interface {
	Insert(ctx context.Context, change *domain.OrderChange) error
	GetByRequestID(ctx context.Context, changeRequestID string) (*domain.OrderChange, error)
	UpdateOutcome(ctx context.Context, id string, status domain.ChangeRequestStatus, selectedOfferID string, delta *domain.Money) error
}

type PGChangeRepository struct {
	db *pgxpool.Pool
}

func NewChangeRepository(db *pgxpool.Pool) ChangeRepository {
	return &PGChangeRepository{db: db}
}

func (r *PGChangeRepository) Insert(ctx context.Context, change *domain.OrderChange) error {
	payload, err := json.Marshal(change.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	snapshot, err := json.Marshal(change.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	amount, currency := moneyParams(change.Delta)

	return r.db.QueryRow(ctx, `INSERT INTO order_changes
		(id, order_id, user_id, change_request_id, kind, payload, snapshot, status, reason, selected_offer_id, delta_amount, delta_currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::numeric, $12)
		RETURNING created_at, updated_at`,
		change.ID, change.OrderID, change.UserID, change.ChangeRequestID, change.Kind, payload, snapshot,
		change.Status, change.Reason, change.SelectedOfferID, amount, currency).
		Scan(&change.CreatedAt, &change.UpdatedAt)
}

func (r *PGChangeRepository) GetByRequestID(ctx context.Context, changeRequestID string) (*domain.OrderChange, error) {
	row := r.db.QueryRow(ctx, `SELECT id, order_id, user_id, change_request_id, kind, payload, snapshot, status, reason,
		selected_offer_id, delta_amount::text, delta_currency, created_at, updated_at
		FROM order_changes WHERE change_request_id=$1 ORDER BY created_at DESC LIMIT 1`, changeRequestID)

	var (
		c                 domain.OrderChange
		payload, snapshot []byte
		amount, currency  *string
	)
	if err := row.Scan(&c.ID, &c.OrderID, &c.UserID, &c.ChangeRequestID, &c.Kind, &payload, &snapshot, &c.Status, &c.Reason,
		&c.SelectedOfferID, &amount, &currency, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	m, err := DecodeMutation(c.Kind, payload)
	if err != nil {
		return nil, err
	}
	c.Payload = m
	if err := json.Unmarshal(snapshot, &c.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if amount != nil && currency != nil {
		d, err := decimal.NewFromString(*amount)
		if err != nil {
			return nil, fmt.Errorf("parse delta_amount: %w", err)
		}
		c.Delta = &domain.Money{Amount: d, Currency: *currency}
	}
	return &c, nil
}

func (r *PGChangeRepository) UpdateOutcome(ctx context.Context, id string, status domain.ChangeRequestStatus, selectedOfferID string, delta *domain.Money) error {
	amount, currency := moneyParams(delta)
	cmd, err := r.db.Exec(ctx, `UPDATE order_changes SET
		status = $2,
		selected_offer_id = COALESCE(NULLIF($3, ''), selected_offer_id),
		delta_amount = COALESCE($4::numeric, delta_amount),
		delta_currency = COALESCE($5, delta_currency),
		updated_at = now()
		WHERE id = $1`, id, status, selectedOfferID, amount, currency)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecodeMutation restores the concrete mutation type stored in a payload column.
func DecodeMutation(kind domain.MutationKind, payload []byte) (domain.Mutation, error) {
	switch kind {
	case domain.MutationSlices:
		var m domain.SliceChange
		err := json.Unmarshal(payload, &m)
		return m, err
	case domain.MutationPassengers:
		var m domain.PassengerChange
		err := json.Unmarshal(payload, &m)
		return m, err
	case domain.MutationServices:
		var m domain.ServiceChange
		err := json.Unmarshal(payload, &m)
		return m, err
	default:
		return nil, fmt.Errorf("unknown mutation kind %q", kind)
	}
}

func moneyParams(m *domain.Money) (amount, currency *string) {
	if m == nil {
		return nil, nil
	}
	a, c := m.AmountString(), m.Currency
	return &a, &c
}

var _ ChangeRepository = (*PGChangeRepository)(nil)
