// Package search provides vector search over episodic memories using an
// external ANN index, with the blended-score formula the Memory Store
// applies on top of raw similarity (§4.4).
package search

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gridiron/council/internal/model"
)

// Result holds a memory ID and its raw similarity score from the search
// index. The caller hydrates full EpisodicMemory rows from Postgres
// (source of truth).
type Result struct {
	MemoryID uuid.UUID
	Score    float32
}

// Searcher is the interface for vector search indexes. Implementations
// must be safe for concurrent use.
type Searcher interface {
	// Search returns memory IDs matching the query vector, scoped to an
	// expert and filtered by RetrievalFilter. Returns IDs + raw cosine
	// similarity; the caller hydrates from Postgres.
	Search(ctx context.Context, expertID uuid.UUID, embedding []float32, filters model.RetrievalFilter, limit int) ([]Result, error)

	// Healthy returns nil if the search index is reachable.
	Healthy(ctx context.Context) error
}

// CandidateFinder performs ANN search for internal conflict-candidate
// lookups (§5 supplemented feature).
// Unlike Searcher (retrieval-facing, broader filters), CandidateFinder is
// optimized for "memories like this one, excluding itself".
type CandidateFinder interface {
	// FindSimilar returns memory IDs similar to the given embedding for an
	// expert/run, excluding excludeID (the source memory or prediction).
	FindSimilar(ctx context.Context, expertID, runID uuid.UUID, embedding []float32, excludeID uuid.UUID, limit int) ([]Result, error)
}

// recencyWeight applies the exponential half-life decay from §4.4:
// rec = exp(ln(0.5) * age_days / 90).
func recencyWeight(ageDays float64) float64 {
	return math.Exp(math.Log(0.5) * ageDays / 90.0)
}

// qualityWeight is the §4.4 quality term: 0.5 + 0.3*vividness + 0.2*decay.
func qualityWeight(m model.EpisodicMemory) float64 {
	return 0.5 + 0.3*m.Vividness + 0.2*m.Decay
}

// retrievalBoost is the §4.4 reinforcement term: 1 + min(0.2, 0.02*retrieval_count).
func retrievalBoost(m model.EpisodicMemory) float64 {
	return 1.0 + math.Min(0.2, 0.02*float64(m.RetrievalCount))
}

// Blend computes the §4.4 combined retrieval score for one memory:
//
//	combined = (sim*(1-alpha) + rec*alpha) * quality * retrieval_boost
func Blend(sim float32, m model.EpisodicMemory, now time.Time, alpha float64) float64 {
	ageDays := math.Max(0, now.Sub(m.CreatedAt).Hours()/24.0)
	rec := recencyWeight(ageDays)
	quality := qualityWeight(m)
	boost := retrievalBoost(m)

	return (float64(sim)*(1-alpha) + rec*alpha) * quality * boost
}

// Rank blends raw similarity results against hydrated memories, sorts
// descending by combined score, and truncates to limit (§4.4 top-K
// selection).
func Rank(results []Result, memories map[uuid.UUID]model.EpisodicMemory, now time.Time, alpha float64, limit int) []model.Scored {
	scored := make([]model.Scored, 0, len(results))

	for _, r := range results {
		m, ok := memories[r.MemoryID]
		if !ok {
			// Memory was deleted or decayed out between ANN search and hydration.
			continue
		}
		scored = append(scored, model.Scored{
			Memory: m,
			Score:  Blend(r.Score, m, now, alpha),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
