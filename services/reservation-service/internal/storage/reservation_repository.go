package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/arman-petrosyan/slotbook/libs/db"
	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/model"
)

// ReservationRepository persists the slot ledger. The unique index on
// (slot_date, start_time) is what makes Claim safe under concurrent
// writers; the application never pre-checks and then inserts.
type ReservationRepository struct {
	pool *db.Pool
}

func NewReservationRepository(pool *db.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, slot_date, start_time, end_time, holder_name, holder_phone, requester_id, created_at
		FROM reservations
		WHERE slot_date = $1
		ORDER BY start_time ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []model.Reservation
	for rows.Next() {
		var rec model.Reservation
		if err := rows.Scan(
			&rec.ID,
			&rec.SlotDate,
			&rec.Start,
			&rec.End,
			&rec.HolderName,
			&rec.HolderPhone,
			&rec.RequesterID,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return recs, nil
}

// Claim inserts the reservation, or updates it in place when the slot is
// already held by the same requester. A slot held by anyone else leaves
// the row untouched and returns false. The whole decision is one
// statement, so two concurrent claims on the same key can never both win.
func (r *ReservationRepository) Claim(ctx context.Context, rec model.Reservation) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reservations (slot_date, start_time, end_time, holder_name, holder_phone, requester_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slot_date, start_time) DO UPDATE
		SET end_time = EXCLUDED.end_time,
			holder_name = EXCLUDED.holder_name,
			holder_phone = EXCLUDED.holder_phone
		WHERE reservations.requester_id = EXCLUDED.requester_id
		RETURNING id
	`, rec.SlotDate, rec.Start, rec.End, rec.HolderName, rec.HolderPhone, rec.RequesterID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Release deletes the record matching the full (date, start, requester)
// key. Zero rows affected covers both "never existed" and "not yours".
func (r *ReservationRepository) Release(ctx context.Context, date, start, requesterID string) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM reservations
		WHERE slot_date = $1 AND start_time = $2 AND requester_id = $3
	`, date, start, requesterID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
