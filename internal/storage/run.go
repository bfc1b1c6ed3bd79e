package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gridiron/council/internal/model"
)

// CreateRun persists a new run's configuration (§6 init-run).
func (db *DB) CreateRun(ctx context.Context, r model.RunMetadata) error {
	if r.RunID == uuid.Nil {
		r.RunID = uuid.New()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_metadata (run_id, starting_units, max_parallel_experts, council_size, archetype_table_version, shadow_run, reflection_enabled, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.RunID, r.StartingUnits, r.MaxParallelExperts, r.CouncilSize, r.ArchetypeTableVersion, r.ShadowRun, r.ReflectionEnabled, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run's configuration, the input to every CLI command
// that scopes its work to one run (§6).
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (model.RunMetadata, error) {
	var r model.RunMetadata
	err := db.pool.QueryRow(ctx,
		`SELECT run_id, starting_units, max_parallel_experts, council_size, archetype_table_version, shadow_run, reflection_enabled, created_at
		 FROM run_metadata WHERE run_id = $1`, runID,
	).Scan(&r.RunID, &r.StartingUnits, &r.MaxParallelExperts, &r.CouncilSize, &r.ArchetypeTableVersion, &r.ShadowRun, &r.ReflectionEnabled, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RunMetadata{}, fmt.Errorf("storage: run %s: %w", runID, ErrNotFound)
		}
		return model.RunMetadata{}, fmt.Errorf("storage: get run: %w", err)
	}
	return r, nil
}
