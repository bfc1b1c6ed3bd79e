package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridiron/council/internal/model"
)

// InsertLearningEvent persists a Learning Coordinator result for audit and
// replay (§4.11). The queue itself is in-process (internal/learning); this
// is the durable record behind it.
func (db *DB) InsertLearningEvent(ctx context.Context, e model.LearningEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	factors, err := json.Marshal(e.FactorAdjustments)
	if err != nil {
		return fmt.Errorf("storage: marshal factor adjustments: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO learning_events (id, run_id, expert_id, game_id, bundle_id, score, winner_correct, spread_component, total_component, factor_adjustments, priority, peer_learning_candidate, processed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.RunID, e.ExpertID, e.GameID, e.BundleID, e.Score, e.WinnerCorrect, e.SpreadComponent, e.TotalComponent,
		factors, int(e.Priority), e.PeerLearningCandidate, e.ProcessedAt, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert learning event: %w", err)
	}
	return nil
}

// MarkLearningEventProcessed records that the in-process queue drained an
// event (memory written, peer broadcast sent).
func (db *DB) MarkLearningEventProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `UPDATE learning_events SET processed_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: mark learning event processed: %w", err)
	}
	return nil
}

// ListUnprocessedLearningEvents returns events not yet drained, the
// recovery path after a crash mid-queue (§5 durability).
func (db *DB) ListUnprocessedLearningEvents(ctx context.Context, runID uuid.UUID) ([]model.LearningEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, expert_id, game_id, bundle_id, score, winner_correct, spread_component, total_component, factor_adjustments, priority, peer_learning_candidate, processed_at, created_at
		 FROM learning_events WHERE run_id = $1 AND processed_at IS NULL ORDER BY priority DESC, created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list unprocessed learning events: %w", err)
	}
	defer rows.Close()

	var events []model.LearningEvent
	for rows.Next() {
		var e model.LearningEvent
		var factors []byte
		var priority int
		if err := rows.Scan(&e.ID, &e.RunID, &e.ExpertID, &e.GameID, &e.BundleID, &e.Score, &e.WinnerCorrect,
			&e.SpreadComponent, &e.TotalComponent, &factors, &priority, &e.PeerLearningCandidate, &e.ProcessedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan learning event: %w", err)
		}
		e.Priority = model.LearningPriority(priority)
		if err := json.Unmarshal(factors, &e.FactorAdjustments); err != nil {
			return nil, fmt.Errorf("storage: unmarshal factor adjustments: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
