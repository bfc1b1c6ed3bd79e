package udv

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron/council/internal/model"
)

type fakeMeta struct {
	gm  GameMeta
	err error
}

func (f fakeMeta) FetchMeta(ctx context.Context, gameID string) (GameMeta, error) {
	return f.gm, f.err
}

type fakeOdds struct {
	data model.OddsData
	err  error
}

func (f fakeOdds) FetchOdds(ctx context.Context, gameID string) (model.OddsData, error) {
	return f.data, f.err
}

type fakeWeather struct{ err error }

func (f fakeWeather) FetchWeather(ctx context.Context, gameID string) (model.WeatherData, error) {
	return model.WeatherData{TemperatureF: 55}, f.err
}

type fakeInjuries struct{}

func (fakeInjuries) FetchInjuries(ctx context.Context, gameID string) ([]model.InjuryReport, error) {
	return []model.InjuryReport{{PlayerName: "QB1", Status: model.InjuryStatusQuestionable}}, nil
}

type fakeStats struct{}

func (fakeStats) FetchStats(ctx context.Context, gameID string) (model.TeamStats, model.TeamStats, error) {
	return model.TeamStats{}, model.TeamStats{}, nil
}

func newAssembler() *Assembler {
	return New(
		fakeMeta{gm: GameMeta{GameID: "g1", HomeTeam: "BUF", AwayTeam: "NYJ", Kickoff: time.Date(2026, 9, 13, 17, 0, 0, 0, time.UTC)}},
		fakeOdds{data: model.OddsData{Spread: -3}},
		fakeWeather{},
		fakeInjuries{},
		fakeStats{},
		nil,
		slog.Default(),
	)
}

func TestAssembler_Get_PopulatesPresentSections(t *testing.T) {
	a := newAssembler()
	u, err := a.Get(context.Background(), "g1", time.Now())
	require.NoError(t, err)

	assert.True(t, u.Meta["odds"].Present)
	assert.True(t, u.Meta["weather"].Present)
	assert.True(t, u.Meta["injuries"].Present)
	assert.True(t, u.Meta["stats"].Present)
	assert.False(t, u.Meta["historical"].Present)
	assert.NotEmpty(t, u.ContentHash)
}

func TestAssembler_Get_MissingAdapterRecordsAbsent(t *testing.T) {
	a := New(fakeMeta{gm: GameMeta{GameID: "g1"}}, nil, nil, nil, nil, nil, slog.Default())
	u, err := a.Get(context.Background(), "g1", time.Now())
	require.NoError(t, err)

	assert.False(t, u.Meta["odds"].Present)
	assert.False(t, u.Meta["weather"].Present)
	assert.Nil(t, u.Odds)
}

func TestAssembler_Get_AdapterErrorRecordsSectionAbsentNotFatal(t *testing.T) {
	a := New(
		fakeMeta{gm: GameMeta{GameID: "g1"}},
		fakeOdds{err: errors.New("boom")},
		fakeWeather{},
		fakeInjuries{},
		fakeStats{},
		nil,
		slog.Default(),
	)
	u, err := a.Get(context.Background(), "g1", time.Now())
	require.NoError(t, err)
	assert.False(t, u.Meta["odds"].Present)
	assert.Nil(t, u.Odds)
}

func TestAssembler_Get_MetaFetchFailureIsTransientError(t *testing.T) {
	a := New(fakeMeta{err: errors.New("timeout")}, nil, nil, nil, nil, nil, slog.Default())
	_, err := a.Get(context.Background(), "g1", time.Now())
	require.Error(t, err)
}

func TestAssembler_Get_CachesWithinSameMinute(t *testing.T) {
	a := newAssembler()
	now := time.Date(2026, 9, 13, 12, 0, 10, 0, time.UTC)
	u1, err := a.Get(context.Background(), "g1", now)
	require.NoError(t, err)

	u2, err := a.Get(context.Background(), "g1", now.Add(20*time.Second))
	require.NoError(t, err)

	assert.Equal(t, u1.ContentHash, u2.ContentHash)
}

func TestContentHash_DeterministicForSameInputs(t *testing.T) {
	u := model.UDV{GameID: "g1", SnapshotTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Odds: &model.OddsData{Spread: -3}}
	assert.Equal(t, contentHash(u), contentHash(u))
}

func TestContentHash_DiffersWhenSectionChanges(t *testing.T) {
	base := model.UDV{GameID: "g1", SnapshotTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Odds: &model.OddsData{Spread: -3}}
	changed := base
	changedOdds := *base.Odds
	changedOdds.Spread = -7
	changed.Odds = &changedOdds

	assert.NotEqual(t, contentHash(base), contentHash(changed))
}

func TestIsStale(t *testing.T) {
	now := time.Now()
	fresh := model.SectionMeta{Present: true, LastFetchedAt: now.Add(-1 * time.Minute)}
	stale := model.SectionMeta{Present: true, LastFetchedAt: now.Add(-1 * time.Hour)}
	absent := model.SectionMeta{Present: false}

	assert.False(t, IsStale("odds", fresh, now))
	assert.True(t, IsStale("odds", stale, now))
	assert.False(t, IsStale("odds", absent, now))
}
