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

// CreateExpert inserts a new expert.
func (db *DB) CreateExpert(ctx context.Context, e model.Expert) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	profile, err := json.Marshal(e.Profile)
	if err != nil {
		return fmt.Errorf("storage: marshal expert profile: %w", err)
	}
	weights, err := json.Marshal(e.Weights)
	if err != nil {
		return fmt.Errorf("storage: marshal expert weights: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO experts (id, run_id, display_name, archetype, profile, weights, learning_rate, status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.RunID, e.DisplayName, string(e.Profile.Archetype), profile, weights,
		e.LearningRate, string(e.Status), e.Version, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: create expert: %w", err)
	}
	return nil
}

// GetExpert retrieves a single expert by id within a run.
func (db *DB) GetExpert(ctx context.Context, expertID, runID uuid.UUID) (model.Expert, error) {
	var e model.Expert
	var archetype string
	var profile, weights []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, run_id, display_name, archetype, profile, weights, learning_rate, status, version, created_at, updated_at
		 FROM experts WHERE id = $1 AND run_id = $2`, expertID, runID,
	).Scan(&e.ID, &e.RunID, &e.DisplayName, &archetype, &profile, &weights,
		&e.LearningRate, &e.Status, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Expert{}, fmt.Errorf("storage: expert %s: %w", expertID, ErrNotFound)
		}
		return model.Expert{}, fmt.Errorf("storage: get expert: %w", err)
	}
	if err := json.Unmarshal(profile, &e.Profile); err != nil {
		return model.Expert{}, fmt.Errorf("storage: unmarshal expert profile: %w", err)
	}
	if err := json.Unmarshal(weights, &e.Weights); err != nil {
		return model.Expert{}, fmt.Errorf("storage: unmarshal expert weights: %w", err)
	}
	return e, nil
}

// ListExperts returns every expert registered to a run, satisfying
// council.Repository.
func (db *DB) ListExperts(ctx context.Context, runID uuid.UUID) ([]model.Expert, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, display_name, archetype, profile, weights, learning_rate, status, version, created_at, updated_at
		 FROM experts WHERE run_id = $1 ORDER BY created_at ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list experts: %w", err)
	}
	defer rows.Close()

	var experts []model.Expert
	for rows.Next() {
		var e model.Expert
		var archetype string
		var profile, weights []byte
		if err := rows.Scan(&e.ID, &e.RunID, &e.DisplayName, &archetype, &profile, &weights,
			&e.LearningRate, &e.Status, &e.Version, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan expert: %w", err)
		}
		if err := json.Unmarshal(profile, &e.Profile); err != nil {
			return nil, fmt.Errorf("storage: unmarshal expert profile: %w", err)
		}
		if err := json.Unmarshal(weights, &e.Weights); err != nil {
			return nil, fmt.Errorf("storage: unmarshal expert weights: %w", err)
		}
		experts = append(experts, e)
	}
	return experts, rows.Err()
}

// UpdateExpertWeights persists a learning-coordinator weight update,
// writing the version and updated_at carried on e as given.
func (db *DB) UpdateExpertWeights(ctx context.Context, e model.Expert) error {
	weights, err := json.Marshal(e.Weights)
	if err != nil {
		return fmt.Errorf("storage: marshal expert weights: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`UPDATE experts SET weights = $1, version = $2, updated_at = $3 WHERE id = $4 AND run_id = $5`,
		weights, e.Version, e.UpdatedAt, e.ID, e.RunID,
	)
	if err != nil {
		return fmt.Errorf("storage: update expert weights: %w", err)
	}
	return nil
}

// SetExpertStatus transitions an expert's lifecycle status (e.g. to
// eliminated on bankroll exhaustion).
func (db *DB) SetExpertStatus(ctx context.Context, expertID, runID uuid.UUID, status model.ExpertStatus) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE experts SET status = $1, updated_at = now() WHERE id = $2 AND run_id = $3`,
		string(status), expertID, runID,
	)
	if err != nil {
		return fmt.Errorf("storage: set expert status: %w", err)
	}
	return nil
}
