package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gridiron/council/internal/model"
)

// InsertUDVSnapshot persists a content-addressed UDV snapshot (§3, §4.1).
// Re-ingesting the same (run, game, snapshot_time) key is a no-op whether
// or not the content matches: the first snapshot stored for a key is kept
// and a changed payload is silently ignored.
func (db *DB) InsertUDVSnapshot(ctx context.Context, runID uuid.UUID, snapshot model.UDV) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("storage: marshal udv snapshot: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO universal_game_data_snapshots (game_id, run_id, snapshot_time, content_hash, payload)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, game_id, snapshot_time) DO NOTHING`,
		snapshot.GameID, runID, snapshot.SnapshotTime, snapshot.ContentHash, payload,
	)
	if err != nil {
		return fmt.Errorf("storage: insert udv snapshot: %w", err)
	}
	return nil
}

// GetUDVSnapshot retrieves the most recent snapshot for a game within a run.
func (db *DB) GetUDVSnapshot(ctx context.Context, runID uuid.UUID, gameID string) (model.UDV, error) {
	var payload []byte
	var snapshotTime time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT snapshot_time, payload FROM universal_game_data_snapshots
		 WHERE run_id = $1 AND game_id = $2
		 ORDER BY snapshot_time DESC LIMIT 1`,
		runID, gameID,
	).Scan(&snapshotTime, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UDV{}, fmt.Errorf("storage: udv snapshot for game %s: %w", gameID, ErrNotFound)
		}
		return model.UDV{}, fmt.Errorf("storage: get udv snapshot: %w", err)
	}
	var snapshot model.UDV
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return model.UDV{}, fmt.Errorf("storage: unmarshal udv snapshot: %w", err)
	}
	return snapshot, nil
}
