package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/gridiron/council/internal/model"
)

// InsertMemory satisfies memory.Repository: appends a new episodic memory.
// Memories are never updated in place except via UpdateDecay.
func (db *DB) InsertMemory(ctx context.Context, m model.EpisodicMemory) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	snapshot, err := json.Marshal(m.PredictionSnapshot)
	if err != nil {
		return fmt.Errorf("storage: marshal prediction snapshot: %w", err)
	}
	outcome, err := json.Marshal(m.Outcome)
	if err != nil {
		return fmt.Errorf("storage: marshal memory outcome: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO memories (id, run_id, expert_id, game_id, type, emotional_state, prediction_snapshot, outcome,
		        contextual_factors, lessons_learned, emotional_intensity, vividness, decay, retrieval_count,
		        content_embedding, context_embedding, combined_embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		m.ID, m.RunID, m.ExpertID, m.GameID, string(m.Type), string(m.EmotionalState), snapshot, outcome,
		m.ContextualFactors, m.LessonsLearned, m.EmotionalIntensity, m.Vividness, m.Decay, m.RetrievalCount,
		vectorArg(m.ContentEmbedding), vectorArg(m.ContextEmbedding), vectorArg(m.CombinedEmbedding), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert memory: %w", err)
	}
	return nil
}

// vectorArg returns nil for a nil *pgvector.Vector so the column is
// written NULL instead of dereferencing a missing embedding.
func vectorArg(v *pgvector.Vector) any {
	if v == nil {
		return nil
	}
	return *v
}

const memoryColumns = `id, run_id, expert_id, game_id, type, emotional_state, prediction_snapshot, outcome,
	        contextual_factors, lessons_learned, emotional_intensity, vividness, decay, retrieval_count,
	        content_embedding, context_embedding, combined_embedding, created_at`

func scanMemory(row pgx.Row) (model.EpisodicMemory, error) {
	var m model.EpisodicMemory
	var snapshot, outcome []byte
	var content, context_, combined *pgvector.Vector
	err := row.Scan(&m.ID, &m.RunID, &m.ExpertID, &m.GameID, &m.Type, &m.EmotionalState, &snapshot, &outcome,
		&m.ContextualFactors, &m.LessonsLearned, &m.EmotionalIntensity, &m.Vividness, &m.Decay, &m.RetrievalCount,
		&content, &context_, &combined, &m.CreatedAt)
	if err != nil {
		return model.EpisodicMemory{}, err
	}
	if err := json.Unmarshal(snapshot, &m.PredictionSnapshot); err != nil {
		return model.EpisodicMemory{}, fmt.Errorf("unmarshal prediction snapshot: %w", err)
	}
	if err := json.Unmarshal(outcome, &m.Outcome); err != nil {
		return model.EpisodicMemory{}, fmt.Errorf("unmarshal memory outcome: %w", err)
	}
	m.ContentEmbedding, m.ContextEmbedding, m.CombinedEmbedding = content, context_, combined
	return m, nil
}

// GetMemory satisfies memory.Repository: hydrates a single memory by id.
func (db *DB) GetMemory(ctx context.Context, id uuid.UUID) (model.EpisodicMemory, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = $1`, id)
	m, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.EpisodicMemory{}, fmt.Errorf("storage: memory %s: %w", id, ErrNotFound)
		}
		return model.EpisodicMemory{}, fmt.Errorf("storage: get memory: %w", err)
	}
	return m, nil
}

// GetMemories satisfies memory.Repository: batch-hydrates the memories a
// retrieval pass ranked, keyed by id.
func (db *DB) GetMemories(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.EpisodicMemory, error) {
	out := make(map[uuid.UUID]model.EpisodicMemory, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := db.pool.Query(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("storage: get memories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan memory: %w", err)
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}

// IncrementRetrieval satisfies memory.Repository: bumps retrieval_count for
// every memory a Retrieve call surfaced (§4.4 step 6).
func (db *DB) IncrementRetrieval(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.pool.Exec(ctx,
		`UPDATE memories SET retrieval_count = retrieval_count + 1 WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return fmt.Errorf("storage: increment retrieval count: %w", err)
	}
	return nil
}

// ListCandidates satisfies memory.Repository: the pre-filter of §4.4 step
// 1 — an expert's own memories within the age window and above the decay
// floor.
func (db *DB) ListCandidates(ctx context.Context, filter model.RetrievalFilter) ([]model.EpisodicMemory, error) {
	maxAgeDays := filter.MaxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 365
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE expert_id = $1 AND run_id = $2 AND decay >= $3 AND created_at >= now() - make_interval(days => $4)
		 ORDER BY created_at DESC`,
		filter.ExpertID, filter.RunID, filter.MinDecay, maxAgeDays,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list memory candidates: %w", err)
	}
	defer rows.Close()

	var memories []model.EpisodicMemory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan memory: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// ListDecayCandidates satisfies memory.Repository: every memory eligible
// for the periodic decay batch job (§4.4 "decay()").
func (db *DB) ListDecayCandidates(ctx context.Context) ([]model.EpisodicMemory, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+memoryColumns+` FROM memories`)
	if err != nil {
		return nil, fmt.Errorf("storage: list decay candidates: %w", err)
	}
	defer rows.Close()

	var memories []model.EpisodicMemory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan memory: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// UpdateDecay satisfies memory.Repository: persists one memory's
// recomputed decay value.
func (db *DB) UpdateDecay(ctx context.Context, id uuid.UUID, decay float64) error {
	_, err := db.pool.Exec(ctx, `UPDATE memories SET decay = $1 WHERE id = $2`, decay, id)
	if err != nil {
		return fmt.Errorf("storage: update memory decay: %w", err)
	}
	return nil
}
