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

// InsertPredictionBundle appends a new prediction row. Subsequent
// predictions for the same (expert, game) are revisions — each gets its
// own row with an incremented sequence number, never an overwrite (§3).
func (db *DB) InsertPredictionBundle(ctx context.Context, b model.PredictionBundle) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	assertions, err := json.Marshal(b.Assertions)
	if err != nil {
		return fmt.Errorf("storage: marshal assertions: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO predictions (id, run_id, expert_id, game_id, udv_content_hash, sequence_number, pick, spread, total, margin, overall_confidence, assertions, status, content_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		b.ID, b.RunID, b.ExpertID, b.GameID, b.UDVContentHash, b.SequenceNumber,
		b.Pick, b.Spread, b.Total, b.Margin, b.OverallConfidence, assertions,
		string(b.Status), b.ContentHash, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert prediction bundle: %w", err)
	}
	return nil
}

// LatestPredictionBundle returns the highest-sequence prediction for an
// (expert, game) pair, the prior bundle a new revision diffs against.
func (db *DB) LatestPredictionBundle(ctx context.Context, expertID uuid.UUID, gameID string) (model.PredictionBundle, error) {
	var b model.PredictionBundle
	var assertions []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, run_id, expert_id, game_id, udv_content_hash, sequence_number, pick, spread, total, margin, overall_confidence, assertions, status, content_hash, created_at
		 FROM predictions WHERE expert_id = $1 AND game_id = $2 ORDER BY sequence_number DESC LIMIT 1`,
		expertID, gameID,
	).Scan(&b.ID, &b.RunID, &b.ExpertID, &b.GameID, &b.UDVContentHash, &b.SequenceNumber,
		&b.Pick, &b.Spread, &b.Total, &b.Margin, &b.OverallConfidence, &assertions,
		&b.Status, &b.ContentHash, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PredictionBundle{}, fmt.Errorf("storage: no prediction for expert=%s game=%s: %w", expertID, gameID, ErrNotFound)
		}
		return model.PredictionBundle{}, fmt.Errorf("storage: get latest prediction bundle: %w", err)
	}
	if err := json.Unmarshal(assertions, &b.Assertions); err != nil {
		return model.PredictionBundle{}, fmt.Errorf("storage: unmarshal assertions: %w", err)
	}
	return b, nil
}

// ListPredictionBundlesForGame returns every expert's most recent bundle
// for a game, the input to the Consensus Aggregator (§4.8). It does not
// filter by council selection.
func (db *DB) ListPredictionBundlesForGame(ctx context.Context, runID uuid.UUID, gameID string) ([]model.PredictionBundle, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT ON (expert_id) id, run_id, expert_id, game_id, udv_content_hash, sequence_number, pick, spread, total, margin, overall_confidence, assertions, status, content_hash, created_at
		 FROM predictions WHERE run_id = $1 AND game_id = $2
		 ORDER BY expert_id, sequence_number DESC`,
		runID, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list prediction bundles for game: %w", err)
	}
	defer rows.Close()

	var bundles []model.PredictionBundle
	for rows.Next() {
		var b model.PredictionBundle
		var assertions []byte
		if err := rows.Scan(&b.ID, &b.RunID, &b.ExpertID, &b.GameID, &b.UDVContentHash, &b.SequenceNumber,
			&b.Pick, &b.Spread, &b.Total, &b.Margin, &b.OverallConfidence, &assertions,
			&b.Status, &b.ContentHash, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan prediction bundle: %w", err)
		}
		if err := json.Unmarshal(assertions, &b.Assertions); err != nil {
			return nil, fmt.Errorf("storage: unmarshal assertions: %w", err)
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

// InsertReasoningChains satisfies reasoning.Repository: bulk-inserts a
// flushed batch of reasoning chains within a single round trip.
func (db *DB) InsertReasoningChains(ctx context.Context, chains []model.ReasoningChain) (int, error) {
	if len(chains) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, c := range chains {
		factors, err := json.Marshal(c.Factors)
		if err != nil {
			return 0, fmt.Errorf("storage: marshal reasoning factors: %w", err)
		}
		breakdown, err := json.Marshal(c.ConfidenceBreakdown)
		if err != nil {
			return 0, fmt.Errorf("storage: marshal confidence breakdown: %w", err)
		}
		id := c.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(
			`INSERT INTO reasoning_chains (id, run_id, expert_id, game_id, bundle_id, factors, monologue, dominant_factor, confidence_breakdown, aggregate_confidence, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			id, c.RunID, c.ExpertID, c.GameID, c.BundleID, factors, c.Monologue, c.DominantFactor, breakdown, c.AggregateConfidence, c.CreatedAt,
		)
	}

	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range chains {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("storage: insert reasoning chain: %w", err)
		}
	}
	return len(chains), nil
}

// InsertBeliefRevision persists a detected belief revision (§3, §4.6).
func (db *DB) InsertBeliefRevision(ctx context.Context, r model.BeliefRevision) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	chain, err := json.Marshal(r.CausalChain)
	if err != nil {
		return fmt.Errorf("storage: marshal causal chain: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO belief_revisions (id, run_id, expert_id, game_id, original_bundle_id, revised_bundle_id, type, trigger, causal_chain, confidence_delta, impact_score, emotional_state, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.RunID, r.ExpertID, r.GameID, r.OriginalBundleID, r.RevisedBundleID,
		string(r.Type), string(r.Trigger), chain, r.ConfidenceDelta, r.ImpactScore, string(r.EmotionalState), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert belief revision: %w", err)
	}
	return nil
}

// ListBeliefRevisions returns every revision recorded for one expert across
// a run, in chronological order.
func (db *DB) ListBeliefRevisions(ctx context.Context, expertID, runID uuid.UUID) ([]model.BeliefRevision, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, expert_id, game_id, original_bundle_id, revised_bundle_id, type, trigger, causal_chain, confidence_delta, impact_score, emotional_state, created_at
		 FROM belief_revisions WHERE expert_id = $1 AND run_id = $2 ORDER BY created_at ASC`,
		expertID, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list belief revisions: %w", err)
	}
	defer rows.Close()

	var revisions []model.BeliefRevision
	for rows.Next() {
		var r model.BeliefRevision
		var chain []byte
		if err := rows.Scan(&r.ID, &r.RunID, &r.ExpertID, &r.GameID, &r.OriginalBundleID, &r.RevisedBundleID,
			&r.Type, &r.Trigger, &chain, &r.ConfidenceDelta, &r.ImpactScore, &r.EmotionalState, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan belief revision: %w", err)
		}
		if err := json.Unmarshal(chain, &r.CausalChain); err != nil {
			return nil, fmt.Errorf("storage: unmarshal causal chain: %w", err)
		}
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}
