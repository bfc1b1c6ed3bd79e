// Package udv implements the Universal Data View Assembler (§4.1): it
// combines the latest snapshots from external adapters into one canonical
// per-game fact packet that every expert reads identically.
package udv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridiron/council/internal/cerrors"
	"github.com/gridiron/council/internal/model"
)

// OddsAdapter fetches odds data for a game. Implementations are external
// collaborators (§1); this package only defines the contract it consumes.
type OddsAdapter interface {
	FetchOdds(ctx context.Context, gameID string) (model.OddsData, error)
}

// WeatherAdapter fetches weather data for a game.
type WeatherAdapter interface {
	FetchWeather(ctx context.Context, gameID string) (model.WeatherData, error)
}

// InjuriesAdapter fetches injury reports for a game.
type InjuriesAdapter interface {
	FetchInjuries(ctx context.Context, gameID string) ([]model.InjuryReport, error)
}

// StatsAdapter fetches team stats for a game.
type StatsAdapter interface {
	FetchStats(ctx context.Context, gameID string) (home, away model.TeamStats, err error)
}

// HistoricalAdapter fetches optional historical/PBP context for a game.
type HistoricalAdapter interface {
	FetchHistorical(ctx context.Context, gameID string) (model.HistoricalData, error)
}

// GameMeta is the minimal kickoff/venue/teams info the assembler needs that
// isn't owned by any single section adapter.
type GameMeta struct {
	GameID   string
	HomeTeam string
	AwayTeam string
	Kickoff  time.Time
	Venue    string
}

// MetaAdapter resolves a game's fixed metadata (teams, kickoff, venue).
type MetaAdapter interface {
	FetchMeta(ctx context.Context, gameID string) (GameMeta, error)
}

// Assembler builds UDVs from the adapter set, with a TTL cache keyed by
// (game_id, rounded_snapshot_time) (§4.1 caching contract).
type Assembler struct {
	meta       MetaAdapter
	odds       OddsAdapter
	weather    WeatherAdapter
	injuries   InjuriesAdapter
	stats      StatsAdapter
	historical HistoricalAdapter
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	udv       model.UDV
	expiresAt time.Time
}

// New creates an Assembler. Any adapter may be nil; its section is then
// always recorded absent (§4.1 failure modes).
func New(meta MetaAdapter, odds OddsAdapter, weather WeatherAdapter, injuries InjuriesAdapter, stats StatsAdapter, historical HistoricalAdapter, logger *slog.Logger) *Assembler {
	return &Assembler{
		meta: meta, odds: odds, weather: weather, injuries: injuries, stats: stats, historical: historical,
		logger: logger,
		cache:  make(map[string]cacheEntry),
	}
}

// roundSnapshotTime buckets a snapshot time to the minute for cache-key
// stability (§4.1 "rounded_snapshot_time").
func roundSnapshotTime(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

func cacheKey(gameID string, snapshotTime time.Time) string {
	return fmt.Sprintf("%s@%s", gameID, roundSnapshotTime(snapshotTime).Format(time.RFC3339))
}

// Get produces a UDV for (gameID, snapshotTime), serving from cache when a
// fresh entry exists. Adapter failures mark the corresponding section
// absent rather than failing the whole assembly (§4.1).
func (a *Assembler) Get(ctx context.Context, gameID string, snapshotTime time.Time) (model.UDV, error) {
	key := cacheKey(gameID, snapshotTime)

	a.mu.Lock()
	if entry, ok := a.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		a.mu.Unlock()
		return entry.udv, nil
	}
	a.mu.Unlock()

	if a.meta == nil {
		return model.UDV{}, fmt.Errorf("udv: meta adapter is required: %w", cerrors.ErrInvariantBreach)
	}
	gm, err := a.meta.FetchMeta(ctx, gameID)
	if err != nil {
		return model.UDV{}, &cerrors.TransientAdapterError{Adapter: "meta", Attempt: 1, Err: err}
	}

	out := model.UDV{
		GameID:       gameID,
		SnapshotTime: snapshotTime,
		HomeTeam:     gm.HomeTeam,
		AwayTeam:     gm.AwayTeam,
		Kickoff:      gm.Kickoff,
		Venue:        gm.Venue,
		Meta:         make(map[string]model.SectionMeta, 5),
	}

	a.fetchOdds(ctx, gameID, &out)
	a.fetchWeather(ctx, gameID, &out)
	a.fetchInjuries(ctx, gameID, &out)
	a.fetchStats(ctx, gameID, &out)
	a.fetchHistorical(ctx, gameID, &out)

	out.ContentHash = contentHash(out)

	a.mu.Lock()
	a.cache[key] = cacheEntry{udv: out, expiresAt: time.Now().Add(shortestTTL())}
	a.mu.Unlock()

	return out, nil
}

func shortestTTL() time.Duration {
	return model.SectionTTL("odds") // cache entry expires with the most volatile section
}

func (a *Assembler) fetchOdds(ctx context.Context, gameID string, out *model.UDV) {
	if a.odds == nil {
		out.Meta["odds"] = model.SectionMeta{Present: false}
		return
	}
	od, err := a.odds.FetchOdds(ctx, gameID)
	if err != nil {
		a.logger.Warn("udv: odds fetch failed, section recorded absent", "game_id", gameID, "error", err)
		out.Meta["odds"] = model.SectionMeta{Present: false}
		return
	}
	out.Odds = &od
	out.Meta["odds"] = freshMeta("odds")
}

func (a *Assembler) fetchWeather(ctx context.Context, gameID string, out *model.UDV) {
	if a.weather == nil {
		out.Meta["weather"] = model.SectionMeta{Present: false}
		return
	}
	w, err := a.weather.FetchWeather(ctx, gameID)
	if err != nil {
		a.logger.Warn("udv: weather fetch failed, section recorded absent", "game_id", gameID, "error", err)
		out.Meta["weather"] = model.SectionMeta{Present: false}
		return
	}
	out.Weather = &w
	out.Meta["weather"] = freshMeta("weather")
}

func (a *Assembler) fetchInjuries(ctx context.Context, gameID string, out *model.UDV) {
	if a.injuries == nil {
		out.Meta["injuries"] = model.SectionMeta{Present: false}
		return
	}
	reports, err := a.injuries.FetchInjuries(ctx, gameID)
	if err != nil {
		a.logger.Warn("udv: injuries fetch failed, section recorded absent", "game_id", gameID, "error", err)
		out.Meta["injuries"] = model.SectionMeta{Present: false}
		return
	}
	out.Injuries = reports
	out.Meta["injuries"] = freshMeta("injuries")
}

func (a *Assembler) fetchStats(ctx context.Context, gameID string, out *model.UDV) {
	if a.stats == nil {
		out.Meta["stats"] = model.SectionMeta{Present: false}
		return
	}
	home, away, err := a.stats.FetchStats(ctx, gameID)
	if err != nil {
		a.logger.Warn("udv: stats fetch failed, section recorded absent", "game_id", gameID, "error", err)
		out.Meta["stats"] = model.SectionMeta{Present: false}
		return
	}
	out.HomeStats = &home
	out.AwayStats = &away
	out.Meta["stats"] = freshMeta("stats")
}

func (a *Assembler) fetchHistorical(ctx context.Context, gameID string, out *model.UDV) {
	if a.historical == nil {
		out.Meta["historical"] = model.SectionMeta{Present: false}
		return
	}
	h, err := a.historical.FetchHistorical(ctx, gameID)
	if err != nil {
		a.logger.Warn("udv: historical fetch failed, section recorded absent", "game_id", gameID, "error", err)
		out.Meta["historical"] = model.SectionMeta{Present: false}
		return
	}
	out.Historical = &h
	out.Meta["historical"] = freshMeta("historical")
}

func freshMeta(section string) model.SectionMeta {
	now := time.Now()
	return model.SectionMeta{
		Present:       true,
		LastFetchedAt: now,
		Stale:         false,
	}
}

// IsStale reports whether a section's meta has crossed its staleness
// threshold (§4.1 freshness SLO); the section remains usable either way.
func IsStale(section string, meta model.SectionMeta, now time.Time) bool {
	if !meta.Present {
		return false
	}
	return now.Sub(meta.LastFetchedAt) > model.StalenessThreshold(section)
}

// contentHash computes the UDV's content address from game id, snapshot
// time, and the present sections (§3 UDV invariant: byte-identical input
// for the same (game_id, snapshot_time)).
func contentHash(u model.UDV) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s", u.GameID, roundSnapshotTime(u.SnapshotTime).Format(time.RFC3339))
	if u.Odds != nil {
		fmt.Fprintf(h, "|odds:%+v", *u.Odds)
	}
	if u.Weather != nil {
		fmt.Fprintf(h, "|weather:%+v", *u.Weather)
	}
	if len(u.Injuries) > 0 {
		fmt.Fprintf(h, "|injuries:%+v", u.Injuries)
	}
	if u.HomeStats != nil {
		fmt.Fprintf(h, "|home_stats:%+v", *u.HomeStats)
	}
	if u.AwayStats != nil {
		fmt.Fprintf(h, "|away_stats:%+v", *u.AwayStats)
	}
	if u.Historical != nil {
		fmt.Fprintf(h, "|historical:%+v", *u.Historical)
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
