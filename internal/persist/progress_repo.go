package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/darklegend/server/internal/reset"
	"github.com/jackc/pgx/v5"
)

// ProgressRepo stores reset progression as one JSONB document per
// character, with the counters copied into columns for ranking.
type ProgressRepo struct {
	db *DB
}

func NewProgressRepo(db *DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

func (r *ProgressRepo) Load(ctx context.Context, handle string) (reset.Record, error) {
	var raw []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT data FROM reset_progress WHERE handle = $1`, reset.HandleKey(handle),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return reset.Record{}, reset.ErrNotFound
	}
	if err != nil {
		return reset.Record{}, fmt.Errorf("load progress %s: %w", handle, err)
	}
	return reset.UnmarshalRecord(raw)
}

func (r *ProgressRepo) Save(ctx context.Context, rec reset.Record) error {
	data, err := reset.MarshalRecord(rec)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO reset_progress (handle, data, normal_resets, grand_resets, master_resets, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (handle) DO UPDATE SET
			data = EXCLUDED.data,
			normal_resets = EXCLUDED.normal_resets,
			grand_resets = EXCLUDED.grand_resets,
			master_resets = EXCLUDED.master_resets,
			updated_at = now()`,
		reset.HandleKey(rec.Handle), data, rec.Progress.NormalResets, rec.Progress.GrandResets, rec.Progress.MasterResets,
	)
	if err != nil {
		return fmt.Errorf("save progress %s: %w", rec.Handle, err)
	}
	return nil
}

// RankRow is one line of the reset leaderboard.
type RankRow struct {
	Handle       string
	MasterResets int
	GrandResets  int
	NormalResets int
}

// TopResets returns the characters with the most resets, highest tier first.
// Handles come back as the player typed them, not the lowercased key.
func (r *ProgressRepo) TopResets(ctx context.Context, limit int) ([]RankRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT data->>'handle', master_resets, grand_resets, normal_resets
		 FROM reset_progress
		 ORDER BY master_resets DESC, grand_resets DESC, normal_resets DESC, handle
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RankRow
	for rows.Next() {
		var row RankRow
		if err := rows.Scan(&row.Handle, &row.MasterResets, &row.GrandResets, &row.NormalResets); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
