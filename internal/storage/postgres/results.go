package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tilegame/internal/game/session"
)

// ErrMatchNotFound is returned when a match lookup yields no results.
var ErrMatchNotFound = errors.New("match not found")

// MatchResult is one recorded match: who played, when it started, and when
// it finished. FinishedAt is nil while the match is still running.
type MatchResult struct {
	ID           uuid.UUID
	GameID       int64
	Participants []int64
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// MatchResultRepository persists match lifecycle records. It satisfies the
// session core's recorder interface.
type MatchResultRepository struct {
	db *pgxpool.Pool
}

// NewMatchResultRepository creates a repository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMatchResultRepository(db *pgxpool.Pool) *MatchResultRepository {
	return &MatchResultRepository{db: db}
}

// RecordStart inserts a row for a newly started match.
//
// Postcondition: A match_results row exists with a fresh UUID and a null
// finished_at.
func (r *MatchResultRepository) RecordStart(ctx context.Context, gameID uint32, participants []session.ClientID) error {
	ids := make([]int64, len(participants))
	for i, p := range participants {
		ids[i] = int64(p)
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO match_results (id, game_id, participants, started_at)
		 VALUES ($1, $2, $3, NOW())`,
		uuid.New(), int64(gameID), ids,
	)
	if err != nil {
		return fmt.Errorf("inserting match result for game %d: %w", gameID, err)
	}
	return nil
}

// RecordFinish stamps the running match for gameID as finished.
//
// Postcondition: Returns ErrMatchNotFound if no unfinished row exists for
// the game.
func (r *MatchResultRepository) RecordFinish(ctx context.Context, gameID uint32) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE match_results SET finished_at = NOW()
		 WHERE game_id = $1 AND finished_at IS NULL`,
		int64(gameID),
	)
	if err != nil {
		return fmt.Errorf("finishing match result for game %d: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finishing match result for game %d: %w", gameID, ErrMatchNotFound)
	}
	return nil
}

// GetByGameID retrieves the most recent match record for a game.
//
// Postcondition: Returns the MatchResult or ErrMatchNotFound.
func (r *MatchResultRepository) GetByGameID(ctx context.Context, gameID uint32) (MatchResult, error) {
	var result MatchResult
	err := r.db.QueryRow(ctx,
		`SELECT id, game_id, participants, started_at, finished_at
		 FROM match_results WHERE game_id = $1
		 ORDER BY started_at DESC LIMIT 1`,
		int64(gameID),
	).Scan(&result.ID, &result.GameID, &result.Participants, &result.StartedAt, &result.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MatchResult{}, ErrMatchNotFound
		}
		return MatchResult{}, fmt.Errorf("querying match result for game %d: %w", gameID, err)
	}
	return result, nil
}
