package persist

import (
	"context"
	"fmt"
	"time"
)

// MatchResult is one finished battleground.
type MatchResult struct {
	SessionID  string
	Mode       string
	Winner     int
	Reason     string
	Team1Score int
	Team2Score int
	EndedAt    time.Time
}

type ResultRepo struct {
	db *DB
}

func NewResultRepo(db *DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// WriteResults atomically writes a batch of results in a single transaction.
// Re-sent sessions are ignored.
func (r *ResultRepo) WriteResults(ctx context.Context, results []MatchResult) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("results begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range results {
		if _, err := tx.Exec(ctx,
			`INSERT INTO battleground_results (session_id, mode, winner, reason, team1_score, team2_score, ended_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (session_id) DO NOTHING`,
			m.SessionID, m.Mode, m.Winner, m.Reason, m.Team1Score, m.Team2Score, m.EndedAt,
		); err != nil {
			return fmt.Errorf("results insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
