package experts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron/council/internal/model"
)

type fakeGenerator struct {
	bundle model.PredictionBundle
	err    error
}

func (f *fakeGenerator) GeneratePrediction(ctx context.Context, req PredictionRequest) (model.PredictionBundle, error) {
	return f.bundle, f.err
}

func validBundle(confidence float64) model.PredictionBundle {
	kf := []model.KeyFactor{{Name: "momentum_factor", Weight: 1.0}}
	assertions := make(map[string]model.Assertion)
	for _, cat := range []string{
		"winner", "spread_pick", "total_pick", "margin_of_victory", "first_half_winner",
		"second_half_winner", "home_team_total_points", "away_team_total_points",
		"home_team_turnovers", "away_team_turnovers", "leading_rusher_yards",
		"leading_passer_yards", "leading_receiver_yards", "first_score_type", "will_overtime_occur",
	} {
		assertions[cat] = model.Assertion{Category: cat, Confidence: confidence, KeyFactors: kf}
	}
	return model.PredictionBundle{
		ID: uuid.New(), GameID: "g1", Pick: "home", Total: 45, Spread: -3,
		OverallConfidence: confidence, Assertions: assertions,
	}
}

func TestPredict_ValidatesAndAppliesMemoryAdjustment(t *testing.T) {
	gen := &fakeGenerator{bundle: validBundle(0.6)}
	agent := New(gen)

	bundle, err := agent.Predict(context.Background(), PredictionRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.BundleValid, bundle.Status)
}

func TestPredict_SchemaRejectionPropagates(t *testing.T) {
	bad := validBundle(0.6)
	bad.Pick = "neither"
	gen := &fakeGenerator{bundle: bad}
	agent := New(gen)

	_, err := agent.Predict(context.Background(), PredictionRequest{})
	assert.Error(t, err)
}

func memWithOutcome(correct bool) model.Scored {
	return model.Scored{Memory: model.EpisodicMemory{Outcome: map[string]any{"correct": correct}}}
}

func TestMemoryAdjustment_HighSuccessRateBoostsConfidence(t *testing.T) {
	var memories []model.Scored
	for i := 0; i < 8; i++ {
		memories = append(memories, memWithOutcome(true))
	}
	for i := 0; i < 2; i++ {
		memories = append(memories, memWithOutcome(false))
	}
	adj := MemoryAdjustment(0.5, memories)
	assert.Greater(t, adj.Adjustment, 0.0)
	assert.LessOrEqual(t, adj.Adjustment, memoryAdjustmentBound)
}

func TestMemoryAdjustment_LowSuccessRateReducesConfidence(t *testing.T) {
	var memories []model.Scored
	for i := 0; i < 8; i++ {
		memories = append(memories, memWithOutcome(false))
	}
	for i := 0; i < 2; i++ {
		memories = append(memories, memWithOutcome(true))
	}
	adj := MemoryAdjustment(0.5, memories)
	assert.Less(t, adj.Adjustment, 0.0)
}

func TestMemoryAdjustment_BoundedToFifteenPercent(t *testing.T) {
	var memories []model.Scored
	for i := 0; i < 10; i++ {
		memories = append(memories, memWithOutcome(true))
	}
	adj := MemoryAdjustment(0.8, memories)
	assert.LessOrEqual(t, adj.Adjustment, memoryAdjustmentBound+1e-9)
}

func TestMemoryAdjustment_FinalConfidenceClampedToRange(t *testing.T) {
	adj := MemoryAdjustment(0.0, nil)
	assert.Equal(t, finalConfidenceFloor, adj.FinalConfidence)

	adj = MemoryAdjustment(1.0, nil)
	assert.Equal(t, finalConfidenceCeil, adj.FinalConfidence)
}

func TestMemoryAdjustment_NoMemoriesLeavesRawConfidence(t *testing.T) {
	adj := MemoryAdjustment(0.5, nil)
	assert.Equal(t, 0.0, adj.Adjustment)
	assert.InDelta(t, 0.5, adj.FinalConfidence, 1e-9)
}

func TestReflect_CorrectPickYieldsPositiveEmotionalState(t *testing.T) {
	b := validBundle(0.8)
	r := Reflect(b, map[string]any{"correct": true}, 0.05)
	assert.Equal(t, model.EmotionVindication, r.EmotionalState)
	assert.NotEmpty(t, r.LessonsLearned)
}

func TestReflect_IncorrectPickWithConfidenceCollapseIsDevastation(t *testing.T) {
	b := validBundle(0.8)
	r := Reflect(b, map[string]any{"correct": false}, -0.3)
	assert.Equal(t, model.EmotionDevastation, r.EmotionalState)
}

func TestBuildMinimalReflection_AlwaysProducesARecord(t *testing.T) {
	b := validBundle(0.8)
	r := BuildMinimalReflection(b, map[string]any{"correct": true})
	assert.NotEmpty(t, r.LessonsLearned)
}

func TestAdaptiveK_ShrinksUnderLatencyPressure(t *testing.T) {
	k := AdaptiveK(15, 6000*time.Millisecond, 5000*time.Millisecond)
	assert.Less(t, k, 15)
	assert.GreaterOrEqual(t, k, 1)
}

func TestAdaptiveK_NeverBelowOne(t *testing.T) {
	k := AdaptiveK(15, 1000*time.Millisecond, 5000*time.Millisecond)
	assert.Equal(t, 1, k)
}

func TestNextSequenceNumber_FirstPredictionIsOne(t *testing.T) {
	assert.Equal(t, 1, NextSequenceNumber(nil))
}

func TestNextSequenceNumber_IncrementsFromPrior(t *testing.T) {
	prior := model.PredictionBundle{SequenceNumber: 3}
	assert.Equal(t, 4, NextSequenceNumber(&prior))
}

func TestReasoningFactorsFromBundle_AggregatesByMaxWeight(t *testing.T) {
	b := model.PredictionBundle{
		Assertions: map[string]model.Assertion{
			"a": {Confidence: 0.8, KeyFactors: []model.KeyFactor{{Name: "momentum_factor", Weight: 0.4}}},
			"b": {Confidence: 0.6, KeyFactors: []model.KeyFactor{{Name: "momentum_factor", Weight: 0.9}}},
		},
	}
	factors := ReasoningFactorsFromBundle(b)
	require.Len(t, factors, 1)
	assert.Equal(t, "momentum_factor", factors[0].Name)
	assert.InDelta(t, 0.9, factors[0].Weight, 1e-9)
	assert.InDelta(t, 0.7, factors[0].Confidence, 1e-9)
}
