package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// TrainRepo provides access to the trains table, the registry of how
// many seats each train offers.
type TrainRepo struct {
	db *sql.DB
}

// NewTrainRepo returns a new TrainRepo bound to the given database.
func NewTrainRepo(db *sql.DB) *TrainRepo { return &TrainRepo{db: db} }

const trainColumns = `id, train_number, source, destination, total_seats, created_at`

func scanTrain(row interface{ Scan(...any) error }) (model.Train, error) {
	var t model.Train
	err := row.Scan(&t.ID, &t.Number, &t.Source, &t.Destination, &t.TotalSeats, &t.CreatedAt)
	return t, err
}

// GetTrain fetches a train by id.  A missing row yields booking.ErrNotFound.
func (r *TrainRepo) GetTrain(ctx context.Context, id uint64) (model.Train, error) {
	t, err := scanTrain(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+trainColumns+` FROM trains WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Train{}, booking.ErrNotFound
	}
	if err != nil {
		return model.Train{}, translate("get train", err)
	}
	return t, nil
}

// GetTrainForUpdate fetches a train and takes an exclusive row lock on it
// that lasts until the surrounding transaction ends.  Bookings for other
// trains are not blocked.  It must be called inside TxRunner.WithTx.
func (r *TrainRepo) GetTrainForUpdate(ctx context.Context, id uint64) (model.Train, error) {
	if !inTx(ctx) {
		return model.Train{}, errors.New("get train for update: no transaction in context")
	}
	t, err := scanTrain(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+trainColumns+` FROM trains WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Train{}, booking.ErrNotFound
	}
	if err != nil {
		return model.Train{}, translate("lock train", err)
	}
	return t, nil
}

// CreateTrain inserts a train and populates its ID and CreatedAt.
func (r *TrainRepo) CreateTrain(ctx context.Context, t *model.Train) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx,
		`INSERT INTO trains (train_number, source, destination, total_seats) VALUES (?, ?, ?, ?)`,
		t.Number, t.Source, t.Destination, t.TotalSeats)
	if err != nil {
		if duplicateIndex(err) == idxTrainNumber {
			return booking.ErrTrainExists
		}
		return translate("insert train", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate("insert train", err)
	}
	t.ID = uint64(id)
	if err := q.QueryRowContext(ctx, `SELECT created_at FROM trains WHERE id = ?`, t.ID).Scan(&t.CreatedAt); err != nil {
		return translate("insert train", err)
	}
	return nil
}

// ListTrains returns every train ordered by id.
func (r *TrainRepo) ListTrains(ctx context.Context) ([]model.Train, error) {
	return r.list(ctx, `SELECT `+trainColumns+` FROM trains ORDER BY id`)
}

// FindByRoute returns the trains running from source to destination.  The
// comparison follows the column collation, which is case-insensitive.
func (r *TrainRepo) FindByRoute(ctx context.Context, source, destination string) ([]model.Train, error) {
	return r.list(ctx,
		`SELECT `+trainColumns+` FROM trains WHERE source = ? AND destination = ? ORDER BY id`,
		source, destination)
}

func (r *TrainRepo) list(ctx context.Context, query string, args ...any) ([]model.Train, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("list trains", err)
	}
	defer rows.Close()
	out := make([]model.Train, 0)
	for rows.Next() {
		t, err := scanTrain(rows)
		if err != nil {
			return nil, translate("scan train", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list trains", err)
	}
	return out, nil
}
