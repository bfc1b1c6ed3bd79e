package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gridiron/council/internal/model"
)

// EligibilityGate satisfies council.Repository: retrieves an expert's
// rolling SLO gate for a run, defaulting to an eligible zero-state if no
// row exists yet (a newly registered expert starts eligible).
func (db *DB) EligibilityGate(ctx context.Context, expertID, runID uuid.UUID) (model.EligibilityGate, error) {
	var g model.EligibilityGate
	err := db.pool.QueryRow(ctx,
		`SELECT expert_id, run_id, schema_validity_rate, avg_response_time_ms, eligible, total_predictions, valid_predictions, rolling_response_times_ms
		 FROM eligibility_gates WHERE expert_id = $1 AND run_id = $2`, expertID, runID,
	).Scan(&g.ExpertID, &g.RunID, &g.SchemaValidityRate, &g.AvgResponseTimeMS, &g.Eligible,
		&g.TotalPredictions, &g.ValidPredictions, &g.RollingResponseTimesMS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.EligibilityGate{ExpertID: expertID, RunID: runID, SchemaValidityRate: 1.0, Eligible: true}, nil
		}
		return model.EligibilityGate{}, fmt.Errorf("storage: get eligibility gate: %w", err)
	}
	return g, nil
}

// SaveEligibilityGate upserts an expert's SLO gate after recording a new
// prediction outcome.
func (db *DB) SaveEligibilityGate(ctx context.Context, g model.EligibilityGate) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO eligibility_gates (expert_id, run_id, schema_validity_rate, avg_response_time_ms, eligible, total_predictions, valid_predictions, rolling_response_times_ms, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 ON CONFLICT (expert_id, run_id) DO UPDATE SET
		   schema_validity_rate = EXCLUDED.schema_validity_rate,
		   avg_response_time_ms = EXCLUDED.avg_response_time_ms,
		   eligible = EXCLUDED.eligible,
		   total_predictions = EXCLUDED.total_predictions,
		   valid_predictions = EXCLUDED.valid_predictions,
		   rolling_response_times_ms = EXCLUDED.rolling_response_times_ms,
		   updated_at = now()`,
		g.ExpertID, g.RunID, g.SchemaValidityRate, g.AvgResponseTimeMS, g.Eligible,
		g.TotalPredictions, g.ValidPredictions, g.RollingResponseTimesMS,
	)
	if err != nil {
		return fmt.Errorf("storage: save eligibility gate: %w", err)
	}
	return nil
}

// CompositeScore satisfies council.Repository: retrieves an expert's
// rolling composite-score inputs for a run.
func (db *DB) CompositeScore(ctx context.Context, expertID, runID uuid.UUID) (model.CompositeScore, error) {
	s := model.CompositeScore{ExpertID: expertID}
	err := db.pool.QueryRow(ctx,
		`SELECT accuracy, recent_performance, consistency, calibration, specialization
		 FROM composite_scores WHERE expert_id = $1 AND run_id = $2`, expertID, runID,
	).Scan(&s.Accuracy, &s.RecentPerformance, &s.Consistency, &s.Calibration, &s.Specialization)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, nil
		}
		return model.CompositeScore{}, fmt.Errorf("storage: get composite score: %w", err)
	}
	return s, nil
}

// SaveCompositeScore upserts an expert's composite-score inputs, typically
// recomputed on a rolling window after each settled game.
func (db *DB) SaveCompositeScore(ctx context.Context, runID uuid.UUID, s model.CompositeScore) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO composite_scores (expert_id, run_id, accuracy, recent_performance, consistency, calibration, specialization, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (expert_id, run_id) DO UPDATE SET
		   accuracy = EXCLUDED.accuracy,
		   recent_performance = EXCLUDED.recent_performance,
		   consistency = EXCLUDED.consistency,
		   calibration = EXCLUDED.calibration,
		   specialization = EXCLUDED.specialization,
		   updated_at = now()`,
		s.ExpertID, runID, s.Accuracy, s.RecentPerformance, s.Consistency, s.Calibration, s.Specialization,
	)
	if err != nil {
		return fmt.Errorf("storage: save composite score: %w", err)
	}
	return nil
}

// SaveSelection satisfies council.Repository: persists a weekly council
// selection.
func (db *DB) SaveSelection(ctx context.Context, sel model.CouncilSelection) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO council_selections (run_id, week, members, selected_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, week) DO UPDATE SET members = EXCLUDED.members, selected_at = EXCLUDED.selected_at`,
		sel.RunID, sel.Week, sel.Members, sel.SelectedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: save council selection: %w", err)
	}
	return nil
}

// GetSelection retrieves a week's council selection.
func (db *DB) GetSelection(ctx context.Context, runID uuid.UUID, week int) (model.CouncilSelection, error) {
	var sel model.CouncilSelection
	err := db.pool.QueryRow(ctx,
		`SELECT run_id, week, members, selected_at FROM council_selections WHERE run_id = $1 AND week = $2`,
		runID, week,
	).Scan(&sel.RunID, &sel.Week, &sel.Members, &sel.SelectedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CouncilSelection{}, fmt.Errorf("storage: council selection run=%s week=%d: %w", runID, week, ErrNotFound)
		}
		return model.CouncilSelection{}, fmt.Errorf("storage: get council selection: %w", err)
	}
	return sel, nil
}
