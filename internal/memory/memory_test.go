package memory

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron/council/internal/model"
	"github.com/gridiron/council/internal/search"
)

type fakeRepo struct {
	memories map[uuid.UUID]model.EpisodicMemory
	inserted []model.EpisodicMemory
	bumped   []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{memories: make(map[uuid.UUID]model.EpisodicMemory)}
}

func (f *fakeRepo) InsertMemory(ctx context.Context, m model.EpisodicMemory) error {
	f.memories[m.ID] = m
	f.inserted = append(f.inserted, m)
	return nil
}

func (f *fakeRepo) GetMemory(ctx context.Context, id uuid.UUID) (model.EpisodicMemory, error) {
	m, ok := f.memories[id]
	if !ok {
		return model.EpisodicMemory{}, assertErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) GetMemories(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.EpisodicMemory, error) {
	out := make(map[uuid.UUID]model.EpisodicMemory, len(ids))
	for _, id := range ids {
		if m, ok := f.memories[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeRepo) IncrementRetrieval(ctx context.Context, ids []uuid.UUID) error {
	f.bumped = append(f.bumped, ids...)
	return nil
}

func (f *fakeRepo) ListCandidates(ctx context.Context, filter model.RetrievalFilter) ([]model.EpisodicMemory, error) {
	var out []model.EpisodicMemory
	for _, m := range f.memories {
		if m.ExpertID != filter.ExpertID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepo) ListDecayCandidates(ctx context.Context) ([]model.EpisodicMemory, error) {
	var out []model.EpisodicMemory
	for _, m := range f.memories {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepo) UpdateDecay(ctx context.Context, id uuid.UUID, decay float64) error {
	m := f.memories[id]
	m.Decay = decay
	f.memories[id] = m
	return nil
}

var assertErrNotFound = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "memory: not found" }

func TestComputeID_Deterministic(t *testing.T) {
	expertID := uuid.New()
	ts := time.Date(2026, 9, 13, 18, 0, 0, 0, time.UTC)
	a := ComputeID(expertID, "g1", ts)
	b := ComputeID(expertID, "g1", ts)
	assert.Equal(t, a, b)
}

func TestComputeID_DiffersByGame(t *testing.T) {
	expertID := uuid.New()
	ts := time.Now()
	a := ComputeID(expertID, "g1", ts)
	b := ComputeID(expertID, "g2", ts)
	assert.NotEqual(t, a, b)
}

func TestStore_RejectsReStoringSameID(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo, nil, nil, nil, slog.Default())

	expertID := uuid.New()
	ts := time.Date(2026, 9, 13, 18, 0, 0, 0, time.UTC)
	m := model.EpisodicMemory{ExpertID: expertID, GameID: "g1", CreatedAt: ts}

	id1, err := s.Store(context.Background(), m)
	require.NoError(t, err)

	m.ID = id1
	_, err = s.Store(context.Background(), m)
	assert.Error(t, err)
}

func TestStore_DefaultsDecayToOne(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo, nil, nil, nil, slog.Default())

	id, err := s.Store(context.Background(), model.EpisodicMemory{ExpertID: uuid.New(), GameID: "g1", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 1.0, repo.memories[id].Decay)
}

func TestRetrieve_FallsBackToSubstringWithoutEmbeddingProvider(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo, nil, nil, nil, slog.Default())

	expertID := uuid.New()
	now := time.Now()
	relevant := model.EpisodicMemory{
		ID: uuid.New(), ExpertID: expertID, GameID: "g1", CreatedAt: now.Add(-24 * time.Hour),
		LessonsLearned: []string{"trust the weather report more"}, Vividness: 0.8, Decay: 1.0,
	}
	irrelevant := model.EpisodicMemory{
		ID: uuid.New(), ExpertID: expertID, GameID: "g2", CreatedAt: now.Add(-24 * time.Hour),
		LessonsLearned: []string{"nothing matched this time"}, Vividness: 0.8, Decay: 1.0,
	}
	repo.memories[relevant.ID] = relevant
	repo.memories[irrelevant.ID] = irrelevant

	scored, err := s.Retrieve(context.Background(), expertID, uuid.Nil, "weather report", 5, DefaultAlpha)
	require.NoError(t, err)
	require.NotEmpty(t, scored)
	assert.Equal(t, relevant.ID, scored[0].Memory.ID)
}

func TestRetrieve_BumpsRetrievalCountOnReturnedRows(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo, nil, nil, nil, slog.Default())

	expertID := uuid.New()
	m := model.EpisodicMemory{ID: uuid.New(), ExpertID: expertID, GameID: "g1", CreatedAt: time.Now(), Vividness: 0.5, Decay: 1.0}
	repo.memories[m.ID] = m

	_, err := s.Retrieve(context.Background(), expertID, uuid.Nil, "anything", 5, DefaultAlpha)
	require.NoError(t, err)
	assert.Contains(t, repo.bumped, m.ID)
}

// TestBlend_MatchesWorkedExample reproduces the scenario worked example:
// alpha=0.8, sim=0.9, age=30d, vividness=0.8, decay=1.0, retrieval_count=5
// should combine to approximately 0.8418.
func TestBlend_MatchesWorkedExample(t *testing.T) {
	m := model.EpisodicMemory{
		Vividness:      0.8,
		Decay:          1.0,
		RetrievalCount: 5,
		CreatedAt:      time.Now().Add(-30 * 24 * time.Hour),
	}
	got := search.Blend(0.9, m, time.Now(), 0.8)
	assert.InDelta(t, 0.8418, got, 0.001)
}

func TestDecay_WeakensRarelyRetrievedStrengthensFrequent(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo, nil, nil, nil, slog.Default())

	rare := model.EpisodicMemory{ID: uuid.New(), ExpertID: uuid.New(), Decay: 0.5, RetrievalCount: 0}
	frequent := model.EpisodicMemory{ID: uuid.New(), ExpertID: uuid.New(), Decay: 0.5, RetrievalCount: 10}
	repo.memories[rare.ID] = rare
	repo.memories[frequent.ID] = frequent

	err := s.Decay(context.Background())
	require.NoError(t, err)

	assert.Less(t, repo.memories[rare.ID].Decay, 0.5)
	assert.Greater(t, repo.memories[frequent.ID].Decay, 0.5)
}

func TestDecay_CapsAtOne(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo, nil, nil, nil, slog.Default())

	m := model.EpisodicMemory{ID: uuid.New(), ExpertID: uuid.New(), Decay: 0.99, RetrievalCount: 10}
	repo.memories[m.ID] = m

	require.NoError(t, s.Decay(context.Background()))
	assert.LessOrEqual(t, repo.memories[m.ID].Decay, 1.0)
}

