package consensus

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron/council/internal/model"
)

func TestVoteWeight_MatchesWorkedExample(t *testing.T) {
	m := MemberScore{Accuracy: 0.8, Recent: 0.6, Confidence: 0.7, SpecializationInCategory: 0.5}
	got := VoteWeight(m)
	want := 0.4*0.8 + 0.3*0.6 + 0.2*0.7 + 0.1*0.5
	assert.InDelta(t, want, got, 1e-9)
}

func TestAggregate_NumericCategoryIsWeightedMean(t *testing.T) {
	e1, e2 := uuid.New(), uuid.New()
	bundles := []model.PredictionBundle{
		{ExpertID: e1, Assertions: map[string]model.Assertion{"total": {Value: 48.0, Confidence: 0.8}}},
		{ExpertID: e2, Assertions: map[string]model.Assertion{"total": {Value: 44.0, Confidence: 0.6}}},
	}
	scores := map[uuid.UUID]MemberScore{
		e1: {ExpertID: e1, Accuracy: 0.9, Recent: 0.9},
		e2: {ExpertID: e2, Accuracy: 0.3, Recent: 0.3},
	}

	out := Aggregate(uuid.New(), "g1", bundles, scores, nil, time.Now())
	got, ok := out.Assertions["total"]
	require.True(t, ok)

	w1 := VoteWeight(MemberScore{Accuracy: 0.9, Recent: 0.9, Confidence: 0.8})
	w2 := VoteWeight(MemberScore{Accuracy: 0.3, Recent: 0.3, Confidence: 0.6})
	want := (48.0*w1 + 44.0*w2) / (w1 + w2)

	assert.InDelta(t, want, got.Value, 1e-6)
}

func TestAggregate_CategoricalCategoryPicksHeaviestVote(t *testing.T) {
	e1, e2, e3 := uuid.New(), uuid.New(), uuid.New()
	bundles := []model.PredictionBundle{
		{ExpertID: e1, Assertions: map[string]model.Assertion{"winner": {Value: "home", Confidence: 0.8}}},
		{ExpertID: e2, Assertions: map[string]model.Assertion{"winner": {Value: "home", Confidence: 0.6}}},
		{ExpertID: e3, Assertions: map[string]model.Assertion{"winner": {Value: "away", Confidence: 0.9}}},
	}
	scores := map[uuid.UUID]MemberScore{
		e1: {ExpertID: e1, Accuracy: 0.8, Recent: 0.8},
		e2: {ExpertID: e2, Accuracy: 0.7, Recent: 0.7},
		e3: {ExpertID: e3, Accuracy: 0.2, Recent: 0.2},
	}

	out := Aggregate(uuid.New(), "g1", bundles, scores, nil, time.Now())
	got, ok := out.Assertions["winner"]
	require.True(t, ok)
	assert.Equal(t, "home", got.Value)
}

func TestAgreementForVotes_UnanimousIsOne(t *testing.T) {
	e1, e2 := uuid.New(), uuid.New()
	bundles := []model.PredictionBundle{
		{ExpertID: e1, Assertions: map[string]model.Assertion{"winner": {Value: "home", Confidence: 0.8}}},
		{ExpertID: e2, Assertions: map[string]model.Assertion{"winner": {Value: "home", Confidence: 0.7}}},
	}
	scores := map[uuid.UUID]MemberScore{
		e1: {ExpertID: e1, Accuracy: 0.8, Recent: 0.8},
		e2: {ExpertID: e2, Accuracy: 0.5, Recent: 0.5},
	}
	out := Aggregate(uuid.New(), "g1", bundles, scores, nil, time.Now())
	assert.InDelta(t, 1.0, out.Assertions["winner"].Agreement, 1e-9)
}

func TestAgreementForVotes_EvenSplitIsLowerThanUnanimous(t *testing.T) {
	e1, e2 := uuid.New(), uuid.New()
	bundles := []model.PredictionBundle{
		{ExpertID: e1, Assertions: map[string]model.Assertion{"winner": {Value: "home", Confidence: 0.8}}},
		{ExpertID: e2, Assertions: map[string]model.Assertion{"winner": {Value: "away", Confidence: 0.8}}},
	}
	scores := map[uuid.UUID]MemberScore{
		e1: {ExpertID: e1, Accuracy: 0.5, Recent: 0.5},
		e2: {ExpertID: e2, Accuracy: 0.5, Recent: 0.5},
	}
	out := Aggregate(uuid.New(), "g1", bundles, scores, nil, time.Now())
	assert.InDelta(t, 0.0, out.Assertions["winner"].Agreement, 1e-9)
}

func TestAggregate_SpecializationBoostsWinningWeight(t *testing.T) {
	e1, e2 := uuid.New(), uuid.New()
	bundles := []model.PredictionBundle{
		{ExpertID: e1, Assertions: map[string]model.Assertion{"winner": {Value: "home", Confidence: 0.6}}},
		{ExpertID: e2, Assertions: map[string]model.Assertion{"winner": {Value: "away", Confidence: 0.6}}},
	}
	scores := map[uuid.UUID]MemberScore{
		e1: {ExpertID: e1, Accuracy: 0.5, Recent: 0.5},
		e2: {ExpertID: e2, Accuracy: 0.5, Recent: 0.5},
	}
	spec := map[uuid.UUID]map[string]float64{
		e1: {"winner": 1.0},
	}
	out := Aggregate(uuid.New(), "g1", bundles, scores, spec, time.Now())
	assert.Equal(t, "home", out.Assertions["winner"].Value)
}

func TestAggregate_SkipsExpertsWithoutScore(t *testing.T) {
	known := uuid.New()
	unknown := uuid.New()
	bundles := []model.PredictionBundle{
		{ExpertID: known, Assertions: map[string]model.Assertion{"total": {Value: 45.0, Confidence: 0.7}}},
		{ExpertID: unknown, Assertions: map[string]model.Assertion{"total": {Value: 99.0, Confidence: 0.9}}},
	}
	scores := map[uuid.UUID]MemberScore{
		known: {ExpertID: known, Accuracy: 0.6, Recent: 0.6},
	}
	out := Aggregate(uuid.New(), "g1", bundles, scores, nil, time.Now())
	assert.InDelta(t, 45.0, out.Assertions["total"].Value.(float64), 1e-9)
}
