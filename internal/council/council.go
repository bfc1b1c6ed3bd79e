// Package council implements the Council Selector (§4.7) and the
// bounded-parallel expert orchestration that drives a game's predictions
// (§5 "Parallelism of experts").
package council

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gridiron/council/internal/model"
)

// DefaultSize is the default council size K (§4.7).
const DefaultSize = 5

// DefaultMaxParallelExperts bounds concurrent expert predict() calls for a
// single game (§5).
const DefaultMaxParallelExperts = 8

// Repository is the read-side dependency the selector needs: eligible
// experts and their rolling composite-score inputs over the evaluation
// window (last 4 weeks, minimum 10 predictions, §4.7).
type Repository interface {
	ListExperts(ctx context.Context, runID uuid.UUID) ([]model.Expert, error)
	EligibilityGate(ctx context.Context, expertID, runID uuid.UUID) (model.EligibilityGate, error)
	CompositeScore(ctx context.Context, expertID, runID uuid.UUID) (model.CompositeScore, error)
	SaveSelection(ctx context.Context, sel model.CouncilSelection) error
}

// Select ranks eligible experts by composite score and picks the top K
// (§4.7). Ineligible experts (SLO violation or eliminated) are excluded
// before ranking; the council may shrink below K rather than substitute
// reserve experts (§9 open question).
func Select(ctx context.Context, repo Repository, runID uuid.UUID, week, k int) (model.CouncilSelection, error) {
	if k <= 0 {
		k = DefaultSize
	}

	experts, err := repo.ListExperts(ctx, runID)
	if err != nil {
		return model.CouncilSelection{}, fmt.Errorf("council: list experts: %w", err)
	}

	type candidate struct {
		score model.CompositeScore
	}
	var candidates []candidate

	for _, e := range experts {
		if e.Status == model.ExpertEliminated {
			continue
		}
		gate, err := repo.EligibilityGate(ctx, e.ID, runID)
		if err != nil {
			return model.CouncilSelection{}, fmt.Errorf("council: eligibility gate for %s: %w", e.ID, err)
		}
		if !gate.Eligible {
			continue
		}
		score, err := repo.CompositeScore(ctx, e.ID, runID)
		if err != nil {
			return model.CouncilSelection{}, fmt.Errorf("council: composite score for %s: %w", e.ID, err)
		}
		score.Eligible = true
		candidates = append(candidates, candidate{score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return Rank(candidates[i].score, candidates[j].score)
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	members := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		members[i] = c.score.ExpertID
	}

	return model.CouncilSelection{
		RunID:      runID,
		Week:       week,
		Members:    members,
		SelectedAt: time.Now(),
	}, nil
}

// Rank reports whether a ranks strictly ahead of b under the composite
// score plus tie-break order (§4.7): higher composite score; then higher
// recent_performance; then higher calibration; then lower variance (here:
// higher consistency, since consistency = 1 − stdev); then deterministic
// id hash (lexicographically smaller UUID string sorts first).
func Rank(a, b model.CompositeScore) bool {
	av, bv := a.Value(), b.Value()
	if av != bv {
		return av > bv
	}
	if a.RecentPerformance != b.RecentPerformance {
		return a.RecentPerformance > b.RecentPerformance
	}
	if a.Calibration != b.Calibration {
		return a.Calibration > b.Calibration
	}
	if a.Consistency != b.Consistency {
		return a.Consistency > b.Consistency
	}
	return a.ExpertID.String() < b.ExpertID.String()
}

// Predictor is the bounded-parallel unit of work council orchestrates: one
// expert's prediction for one game.
type Predictor interface {
	PredictGame(ctx context.Context, expertID uuid.UUID, gameID string) error
}

// RunGamePredictions drives every member expert's predict() call for one
// game concurrently, bounded by maxParallel (§5 "max_parallel_experts").
// A single expert's failure never aborts the others (§7 propagation
// policy): each failure is logged with its expert and game ids and is not
// returned, so every expert that can complete, does, and the call itself
// returns nil.
func RunGamePredictions(ctx context.Context, logger *slog.Logger, predictor Predictor, gameID string, members []uuid.UUID, maxParallel int) error {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallelExperts
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for _, expertID := range members {
		g.Go(func() error {
			if err := predictor.PredictGame(gCtx, expertID, gameID); err != nil {
				logger.Warn("council: expert prediction failed, continuing with remaining experts",
					"expert_id", expertID, "game_id", gameID, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}
