package learning

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron/council/internal/betting"
	"github.com/gridiron/council/internal/model"
)

func TestFactorAdjustment_PositiveScoreIncreasesWeight(t *testing.T) {
	adj := FactorAdjustment(0.9, 0.1, 0.5)
	assert.Greater(t, adj, 0.0)
}

func TestFactorAdjustment_NegativeScoreDecreasesWeight(t *testing.T) {
	adj := FactorAdjustment(0.1, 0.1, 0.5)
	assert.Less(t, adj, 0.0)
}

func TestApplyWeightAdjustments_BoundedToUnitInterval(t *testing.T) {
	weights := model.FactorWeights{"momentum": 0.98}
	updated, adjustments := ApplyWeightAdjustments(weights, []string{"momentum"}, 1.0, 0.5)
	require.Len(t, adjustments, 1)
	assert.LessOrEqual(t, updated["momentum"], 1.0)
}

func TestApplyWeightAdjustments_FloorsAtZero(t *testing.T) {
	weights := model.FactorWeights{"momentum": 0.02}
	updated, _ := ApplyWeightAdjustments(weights, []string{"momentum"}, 0.0, 0.5)
	assert.GreaterOrEqual(t, updated["momentum"], 0.0)
}

func TestApplyWeightAdjustments_SkipsUnknownFactors(t *testing.T) {
	weights := model.FactorWeights{"momentum": 0.5}
	_, adjustments := ApplyWeightAdjustments(weights, []string{"nonexistent"}, 0.9, 0.1)
	assert.Empty(t, adjustments)
}

func TestProcess_PerfectOutcomeIsPeerLearningCandidate(t *testing.T) {
	expert := model.Expert{ID: uuid.New(), LearningRate: 0.1, Weights: model.FactorWeights{"momentum": 0.5}}
	result := Process(expert, uuid.New(), "g1", uuid.New(), betting.Outcome{WinnerCorrect: true, SpreadError: 0, TotalError: 0}, 0.1, []string{"momentum"}, time.Now())
	assert.True(t, result.Event.PeerLearningCandidate)
	assert.Equal(t, model.PriorityHigh, result.Event.Priority)
	require.NotNil(t, result.Peer)
	assert.Equal(t, "win", result.Peer.Outcome)
}

func TestProcess_CatastrophicMissIsVeryHighPriority(t *testing.T) {
	expert := model.Expert{ID: uuid.New(), LearningRate: 0.1, Weights: model.FactorWeights{"momentum": 0.5}}
	result := Process(expert, uuid.New(), "g1", uuid.New(), betting.Outcome{WinnerCorrect: false, SpreadError: 14, TotalError: 20}, -0.3, []string{"momentum"}, time.Now())
	assert.Equal(t, model.PriorityVeryHigh, result.Event.Priority)
	assert.Equal(t, model.MemoryFailureAnalysis, result.Memory.Type)
}

func TestProcess_MediumOutcomeHasNoPeerBroadcast(t *testing.T) {
	expert := model.Expert{ID: uuid.New(), LearningRate: 0.1, Weights: model.FactorWeights{"momentum": 0.5}}
	result := Process(expert, uuid.New(), "g1", uuid.New(), betting.Outcome{WinnerCorrect: true, SpreadError: 10, TotalError: 10}, 0.05, []string{"momentum"}, time.Now())
	assert.Nil(t, result.Peer)
}

func TestProcess_IncrementsExpertVersion(t *testing.T) {
	expert := model.Expert{ID: uuid.New(), LearningRate: 0.1, Version: 3, Weights: model.FactorWeights{"momentum": 0.5}}
	result := Process(expert, uuid.New(), "g1", uuid.New(), betting.Outcome{WinnerCorrect: true}, 0.1, []string{"momentum"}, time.Now())
	assert.Equal(t, 4, result.Expert.Version)
	assert.Equal(t, 3, expert.Version) // original untouched
}

func TestEmotionalIntensity_BoundedToUnitInterval(t *testing.T) {
	intensity := EmotionalIntensity(1.0, 1.0)
	assert.LessOrEqual(t, intensity, 1.0)
	assert.GreaterOrEqual(t, intensity, 0.0)
}

func TestTypeMultiplier_UnknownTypeDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1.0, TypeMultiplier(model.MemoryType("unknown")))
}

type fakeMemoryWriter struct {
	stored []model.EpisodicMemory
}

func (f *fakeMemoryWriter) Store(ctx context.Context, m model.EpisodicMemory) (uuid.UUID, error) {
	f.stored = append(f.stored, m)
	return uuid.New(), nil
}

type fakeBroadcaster struct {
	published []model.PeerLearningBroadcast
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, b model.PeerLearningBroadcast) error {
	f.published = append(f.published, b)
	return nil
}

func TestCoordinator_DrainsMemoryAndBroadcast(t *testing.T) {
	mem := &fakeMemoryWriter{}
	peers := &fakeBroadcaster{}
	coord := NewCoordinator(mem, peers, slog.Default(), 4)

	expert := model.Expert{ID: uuid.New(), LearningRate: 0.1, Weights: model.FactorWeights{"momentum": 0.5}}
	result := Process(expert, uuid.New(), "g1", uuid.New(), betting.Outcome{WinnerCorrect: true}, 0.1, []string{"momentum"}, time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	coord.Enqueue(ctx, result)
	go coord.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, mem.stored, 1)
	assert.Len(t, peers.published, 1)
}

func TestCoordinator_DropsNormalPriorityUnderBackpressure(t *testing.T) {
	mem := &fakeMemoryWriter{}
	peers := &fakeBroadcaster{}
	coord := NewCoordinator(mem, peers, slog.Default(), 1)

	normalEvent := Result{Event: model.LearningEvent{Priority: model.PriorityNormal, ExpertID: uuid.New()}}
	ctx := context.Background()

	coord.queue <- Result{Event: model.LearningEvent{Priority: model.PriorityNormal}} // fill the queue
	coord.Enqueue(ctx, normalEvent)                                                   // should drop silently, not block

	assert.Len(t, coord.queue, 1)
}
