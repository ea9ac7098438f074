package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// Store implements booking.Store and account.Store on a pgx pool.
type Store struct {
	pool     *pgxpool.Pool
	lockWait time.Duration
}

func NewStore(pool *pgxpool.Pool, lockWait time.Duration) *Store {
	return &Store{pool: pool, lockWait: lockWait}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, s.lockWait, fn)
}

const trainColumns = `id, train_number, source, destination, total_seats, created_at`

func scanTrain(row pgx.Row) (model.Train, error) {
	var t model.Train
	err := row.Scan(&t.ID, &t.Number, &t.Source, &t.Destination, &t.TotalSeats, &t.CreatedAt)
	return t, err
}

func (s *Store) GetTrain(ctx context.Context, id uint64) (model.Train, error) {
	t, err := scanTrain(s.queryRow(ctx, `SELECT `+trainColumns+` FROM trains WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Train{}, booking.ErrNotFound
	}
	if err != nil {
		return model.Train{}, translate("get train", err)
	}
	return t, nil
}

// GetTrainForUpdate locks the train row until the surrounding
// transaction ends.
func (s *Store) GetTrainForUpdate(ctx context.Context, id uint64) (model.Train, error) {
	if txFromContext(ctx) == nil {
		return model.Train{}, errors.New("get train for update: no transaction in context")
	}
	t, err := scanTrain(s.queryRow(ctx, `SELECT `+trainColumns+` FROM trains WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Train{}, booking.ErrNotFound
	}
	if err != nil {
		return model.Train{}, translate("lock train", err)
	}
	return t, nil
}

func (s *Store) CreateTrain(ctx context.Context, t *model.Train) error {
	const stmt = `
INSERT INTO trains (train_number, source, destination, total_seats)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

	err := s.queryRow(ctx, stmt, t.Number, t.Source, t.Destination, t.TotalSeats).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if uniqueConstraint(err) == "uq_trains_number" {
			return booking.ErrTrainExists
		}
		return translate("create train", err)
	}
	return nil
}

func (s *Store) ListTrains(ctx context.Context) ([]model.Train, error) {
	return s.listTrains(ctx, `SELECT `+trainColumns+` FROM trains ORDER BY id`)
}

// FindByRoute matches source and destination case-insensitively.
func (s *Store) FindByRoute(ctx context.Context, source, destination string) ([]model.Train, error) {
	return s.listTrains(ctx, `
SELECT `+trainColumns+`
FROM trains
WHERE lower(source) = lower($1) AND lower(destination) = lower($2)
ORDER BY id`, source, destination)
}

func (s *Store) listTrains(ctx context.Context, sql string, args ...any) ([]model.Train, error) {
	rows, err := s.query(ctx, sql, args...)
	if err != nil {
		return nil, translate("list trains", err)
	}
	defer rows.Close()
	out := make([]model.Train, 0)
	for rows.Next() {
		t, err := scanTrain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan train: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list trains", err)
	}
	return out, nil
}

func (s *Store) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}

func (s *Store) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}
