package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gridiron/council/internal/model"
)

// GetCalibration retrieves one expert's calibration state for a category,
// seeding the uniform Beta(1,1) prior if none exists yet (§3).
func (db *DB) GetCalibration(ctx context.Context, expertID, runID uuid.UUID, category string) (model.CalibrationState, error) {
	var c model.CalibrationState
	var kind string
	err := db.pool.QueryRow(ctx,
		`SELECT expert_id, run_id, category, kind, alpha, beta, mean, stddev, factor_weight_multiplier, sample_count
		 FROM calibration_states WHERE expert_id = $1 AND run_id = $2 AND category = $3`,
		expertID, runID, category,
	).Scan(&c.ExpertID, &c.RunID, &c.Category, &kind, &c.Alpha, &c.Beta, &c.Mean, &c.StdDev, &c.FactorWeightMultiplier, &c.SampleCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewBetaPrior(expertID, runID, category), nil
		}
		return model.CalibrationState{}, fmt.Errorf("storage: get calibration state: %w", err)
	}
	c.Kind = model.CalibrationKind(kind)
	return c, nil
}

// SaveCalibration upserts an expert's calibration state after folding in a
// new observed outcome (§3 Update).
func (db *DB) SaveCalibration(ctx context.Context, c model.CalibrationState) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO calibration_states (expert_id, run_id, category, kind, alpha, beta, mean, stddev, factor_weight_multiplier, sample_count, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		 ON CONFLICT (expert_id, run_id, category) DO UPDATE SET
		   kind = EXCLUDED.kind,
		   alpha = EXCLUDED.alpha,
		   beta = EXCLUDED.beta,
		   mean = EXCLUDED.mean,
		   stddev = EXCLUDED.stddev,
		   factor_weight_multiplier = EXCLUDED.factor_weight_multiplier,
		   sample_count = EXCLUDED.sample_count,
		   updated_at = now()`,
		c.ExpertID, c.RunID, c.Category, string(c.Kind), c.Alpha, c.Beta, c.Mean, c.StdDev, c.FactorWeightMultiplier, c.SampleCount,
	)
	if err != nil {
		return fmt.Errorf("storage: save calibration state: %w", err)
	}
	return nil
}

// ListCalibrations returns every category an expert has calibration state
// for within a run, the input to the Council Selector's per-category
// calibration rollup (§4.7).
func (db *DB) ListCalibrations(ctx context.Context, expertID, runID uuid.UUID) ([]model.CalibrationState, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT expert_id, run_id, category, kind, alpha, beta, mean, stddev, factor_weight_multiplier, sample_count
		 FROM calibration_states WHERE expert_id = $1 AND run_id = $2`,
		expertID, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list calibration states: %w", err)
	}
	defer rows.Close()

	var states []model.CalibrationState
	for rows.Next() {
		var c model.CalibrationState
		var kind string
		if err := rows.Scan(&c.ExpertID, &c.RunID, &c.Category, &kind, &c.Alpha, &c.Beta, &c.Mean, &c.StdDev, &c.FactorWeightMultiplier, &c.SampleCount); err != nil {
			return nil, fmt.Errorf("storage: scan calibration state: %w", err)
		}
		c.Kind = model.CalibrationKind(kind)
		states = append(states, c)
	}
	return states, rows.Err()
}
