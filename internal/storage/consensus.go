package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gridiron/council/internal/model"
)

// SaveConsensusBundle upserts the Consensus Aggregator's output for one
// game (§4.8). A game's consensus is recomputed, never appended — each
// prediction cycle's aggregation replaces the prior one.
func (db *DB) SaveConsensusBundle(ctx context.Context, b model.ConsensusBundle) error {
	assertions, err := json.Marshal(b.Assertions)
	if err != nil {
		return fmt.Errorf("storage: marshal consensus assertions: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO consensus_bundles (run_id, game_id, assertions, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, game_id) DO UPDATE SET assertions = $3, created_at = $4`,
		b.RunID, b.GameID, assertions, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: save consensus bundle: %w", err)
	}
	return nil
}

// GetConsensusBundle retrieves a game's aggregated consensus.
func (db *DB) GetConsensusBundle(ctx context.Context, runID uuid.UUID, gameID string) (model.ConsensusBundle, error) {
	var b model.ConsensusBundle
	var assertions []byte
	err := db.pool.QueryRow(ctx,
		`SELECT run_id, game_id, assertions, created_at FROM consensus_bundles WHERE run_id = $1 AND game_id = $2`,
		runID, gameID,
	).Scan(&b.RunID, &b.GameID, &assertions, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ConsensusBundle{}, fmt.Errorf("storage: consensus bundle for game %s: %w", gameID, ErrNotFound)
		}
		return model.ConsensusBundle{}, fmt.Errorf("storage: get consensus bundle: %w", err)
	}
	if err := json.Unmarshal(assertions, &b.Assertions); err != nil {
		return model.ConsensusBundle{}, fmt.Errorf("storage: unmarshal consensus assertions: %w", err)
	}
	return b, nil
}
