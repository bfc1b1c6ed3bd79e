package search

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron/council/internal/model"
)

func TestBlend_RecencyDecaysTowardZeroOverNinetyDayHalfLife(t *testing.T) {
	now := time.Now()
	fresh := model.EpisodicMemory{CreatedAt: now, Vividness: 0.5, Decay: 1.0}
	stale := model.EpisodicMemory{CreatedAt: now.AddDate(0, 0, -90), Vividness: 0.5, Decay: 1.0}

	freshScore := Blend(0.5, fresh, now, 0.8)
	staleScore := Blend(0.5, stale, now, 0.8)

	assert.Greater(t, freshScore, staleScore)
}

func TestBlend_HigherVividnessAndDecayIncreaseScore(t *testing.T) {
	now := time.Now()
	vivid := model.EpisodicMemory{CreatedAt: now, Vividness: 1.0, Decay: 1.0}
	dull := model.EpisodicMemory{CreatedAt: now, Vividness: 0.0, Decay: 0.1}

	assert.Greater(t, Blend(0.5, vivid, now, 0.8), Blend(0.5, dull, now, 0.8))
}

func TestBlend_RetrievalBoostIsCappedAtTwentyPercent(t *testing.T) {
	now := time.Now()
	heavilyRetrieved := model.EpisodicMemory{CreatedAt: now, Vividness: 0.5, Decay: 1.0, RetrievalCount: 1000}
	moderatelyRetrieved := model.EpisodicMemory{CreatedAt: now, Vividness: 0.5, Decay: 1.0, RetrievalCount: 5}

	capped := Blend(0.5, heavilyRetrieved, now, 0.8)
	uncapped := Blend(0.5, moderatelyRetrieved, now, 0.8)
	assert.Greater(t, capped, uncapped)

	// Boost plateaus past retrieval_count=10 (0.02*10=0.2, the min(0.2, ...) ceiling).
	atCeiling := model.EpisodicMemory{CreatedAt: now, Vividness: 0.5, Decay: 1.0, RetrievalCount: 10}
	pastCeiling := model.EpisodicMemory{CreatedAt: now, Vividness: 0.5, Decay: 1.0, RetrievalCount: 500}
	assert.InDelta(t, Blend(0.5, atCeiling, now, 0.8), Blend(0.5, pastCeiling, now, 0.8), 1e-9)
}

func TestRank_DropsResultsMissingFromHydratedSet(t *testing.T) {
	now := time.Now()
	known := uuid.New()
	missing := uuid.New()
	memories := map[uuid.UUID]model.EpisodicMemory{
		known: {ID: known, CreatedAt: now, Vividness: 0.5, Decay: 1.0},
	}
	results := []Result{{MemoryID: known, Score: 0.9}, {MemoryID: missing, Score: 0.99}}

	scored := Rank(results, memories, now, 0.8, 10)

	require.Len(t, scored, 1)
	assert.Equal(t, known, scored[0].Memory.ID)
}

func TestRank_SortsDescendingAndTruncatesToLimit(t *testing.T) {
	now := time.Now()
	memories := make(map[uuid.UUID]model.EpisodicMemory)
	var results []Result
	for i := 0; i < 5; i++ {
		id := uuid.New()
		memories[id] = model.EpisodicMemory{ID: id, CreatedAt: now, Vividness: 0.5, Decay: 1.0}
		results = append(results, Result{MemoryID: id, Score: float32(i) / 10})
	}

	scored := Rank(results, memories, now, 0.8, 2)

	require.Len(t, scored, 2)
	assert.GreaterOrEqual(t, scored[0].Score, scored[1].Score)
}
