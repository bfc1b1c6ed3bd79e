package council

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron/council/internal/model"
)

type fakeRepo struct {
	experts   []model.Expert
	gates     map[uuid.UUID]model.EligibilityGate
	scores    map[uuid.UUID]model.CompositeScore
	selection model.CouncilSelection
}

func (f *fakeRepo) ListExperts(ctx context.Context, runID uuid.UUID) ([]model.Expert, error) {
	return f.experts, nil
}

func (f *fakeRepo) EligibilityGate(ctx context.Context, expertID, runID uuid.UUID) (model.EligibilityGate, error) {
	return f.gates[expertID], nil
}

func (f *fakeRepo) CompositeScore(ctx context.Context, expertID, runID uuid.UUID) (model.CompositeScore, error) {
	return f.scores[expertID], nil
}

func (f *fakeRepo) SaveSelection(ctx context.Context, sel model.CouncilSelection) error {
	f.selection = sel
	return nil
}

func TestSelect_ScenarioF_IneligibleExpertExcludedRegardlessOfScore(t *testing.T) {
	x := uuid.New()
	y := uuid.New()
	repo := &fakeRepo{
		experts: []model.Expert{{ID: x, Status: model.ExpertActive}, {ID: y, Status: model.ExpertActive}},
		gates: map[uuid.UUID]model.EligibilityGate{
			x: {Eligible: false, SchemaValidityRate: 0.97},
			y: {Eligible: true, SchemaValidityRate: 0.99},
		},
		scores: map[uuid.UUID]model.CompositeScore{
			x: {ExpertID: x, Accuracy: 0.62, RecentPerformance: 0.68, Consistency: 0.80, Calibration: 0.72, Specialization: 0.75},
			y: {ExpertID: y, Accuracy: 0.62, RecentPerformance: 0.68, Consistency: 0.80, Calibration: 0.72, Specialization: 0.75},
		},
	}

	sel, err := Select(context.Background(), repo, uuid.New(), 1, 5)
	require.NoError(t, err)
	require.Len(t, sel.Members, 1)
	assert.Equal(t, y, sel.Members[0])
}

func TestSelect_ExcludesEliminatedExperts(t *testing.T) {
	x := uuid.New()
	repo := &fakeRepo{
		experts: []model.Expert{{ID: x, Status: model.ExpertEliminated}},
		gates:   map[uuid.UUID]model.EligibilityGate{x: {Eligible: true}},
		scores:  map[uuid.UUID]model.CompositeScore{x: {ExpertID: x}},
	}
	sel, err := Select(context.Background(), repo, uuid.New(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, sel.Members)
}

func TestSelect_ShrinksBelowKWhenTooFewEligible(t *testing.T) {
	x := uuid.New()
	repo := &fakeRepo{
		experts: []model.Expert{{ID: x, Status: model.ExpertActive}},
		gates:   map[uuid.UUID]model.EligibilityGate{x: {Eligible: true}},
		scores:  map[uuid.UUID]model.CompositeScore{x: {ExpertID: x}},
	}
	sel, err := Select(context.Background(), repo, uuid.New(), 1, 5)
	require.NoError(t, err)
	assert.Len(t, sel.Members, 1)
}

func TestRank_AccuracyTieBrokenByRecentPerformance(t *testing.T) {
	a := model.CompositeScore{ExpertID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Accuracy: 0.5, RecentPerformance: 0.6}
	b := model.CompositeScore{ExpertID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Accuracy: 0.5, RecentPerformance: 0.5}
	assert.True(t, Rank(a, b))
	assert.False(t, Rank(b, a))
}

type fakePredictor struct {
	mu    sync.Mutex
	calls []uuid.UUID
	fail  map[uuid.UUID]bool
}

func (f *fakePredictor) PredictGame(ctx context.Context, expertID uuid.UUID, gameID string) error {
	f.mu.Lock()
	f.calls = append(f.calls, expertID)
	f.mu.Unlock()
	if f.fail[expertID] {
		return assertErr
	}
	return nil
}

var assertErr = &testErr{}

type testErr struct{}

func (e *testErr) Error() string { return "predict failed" }

func TestRunGamePredictions_OneExpertFailureDoesNotAbortOthers(t *testing.T) {
	members := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	pred := &fakePredictor{fail: map[uuid.UUID]bool{members[1]: true}}

	err := RunGamePredictions(context.Background(), slog.Default(), pred, "g1", members, 2)
	require.NoError(t, err)
	assert.Len(t, pred.calls, 3)
}
