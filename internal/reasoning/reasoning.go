package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gridiron/council/internal/model"
)

// monologueTemplates maps a dominant factor name to a small set of
// personality-flavored phrasings (§4.5 "derived from a small set of
// templates keyed by dominant factor"). Monologue picks among a factor's
// variants by profile version, so experts with the same dominant factor
// but different profile versions can get different phrasings.
var monologueTemplates = map[string][]string{
	"momentum_factor": {
		"The way this team has been trending lately is impossible to ignore.",
		"Momentum is a real signal here, and it points one direction.",
	},
	"public_sentiment": {
		"The public is leaning hard one way, which tells me something by itself.",
		"Crowd money is piling onto one side of this.",
	},
	"defensive_strength": {
		"This comes down to which defense actually shows up.",
		"The defensive numbers are the whole story in this matchup.",
	},
	"weather_impact": {
		"Conditions on the field are going to decide more than the rosters will.",
		"Weather is the deciding factor I keep coming back to.",
	},
	"injury_impact": {
		"Who's actually available to play changes this completely.",
		"The injury report is doing a lot of the work here.",
	},
	"historical_h2h": {
		"History between these two teams keeps repeating itself.",
		"Past matchups are too consistent to dismiss.",
	},
}

var defaultMonologues = []string{
	"Weighing everything together, one side stands out.",
	"No single factor dominates, but the balance tips one way.",
}

// Monologue renders a personality-flavored line for the dominant factor,
// choosing a variant deterministically from profileVersion so the same
// expert version always produces the same line for the same factor.
func Monologue(dominantFactor string, profileVersion int) string {
	variants, ok := monologueTemplates[dominantFactor]
	if !ok || len(variants) == 0 {
		variants = defaultMonologues
	}
	idx := profileVersion % len(variants)
	if idx < 0 {
		idx += len(variants)
	}
	return variants[idx]
}

// ConfidenceBreakdown buckets a bundle's per-category confidences into the
// bet-type groupings the Reasoning Chain Log reports alongside aggregate
// confidence (§4.5).
func ConfidenceBreakdown(b model.PredictionBundle) model.ConfidenceBreakdown {
	breakdown := make(model.ConfidenceBreakdown)
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, a := range b.Assertions {
		sums[string(a.Group)] += a.Confidence
		counts[string(a.Group)]++
	}
	for group, sum := range sums {
		breakdown[group] = sum / float64(counts[group])
	}
	return breakdown
}

// Build assembles a ReasoningChain from a bundle's factors, the dominant
// factor's monologue, and the confidence breakdown (§4.5).
func Build(runID, expertID uuid.UUID, gameID string, bundleID uuid.UUID, factors []model.ReasoningFactor, profileVersion int, b model.PredictionBundle) model.ReasoningChain {
	dominant := model.DominantFactor(factors)
	return model.ReasoningChain{
		ID:                  uuid.New(),
		RunID:               runID,
		ExpertID:            expertID,
		GameID:              gameID,
		BundleID:            bundleID,
		Factors:             factors,
		Monologue:           Monologue(dominant, profileVersion),
		DominantFactor:      dominant,
		ConfidenceBreakdown: ConfidenceBreakdown(b),
		AggregateConfidence: model.AggregateConfidence(factors),
		CreatedAt:           time.Now(),
	}
}

// Log is the Reasoning Chain Log's public surface: write-only during
// prediction, buffered and crash-durable, with an idempotent close.
type Log struct {
	buffer *Buffer
}

// NewLog wires a Repository and optional WAL directory into a running Log.
// walDir empty disables crash durability (matches Buffer's nil-WAL mode).
func NewLog(ctx context.Context, repo Repository, logger *slog.Logger, maxSize int, flushTimeout time.Duration, walDir string) (*Log, error) {
	wal, err := NewWAL(walDir)
	if err != nil {
		return nil, fmt.Errorf("reasoning: new wal: %w", err)
	}
	buf := NewBuffer(repo, logger, maxSize, flushTimeout, wal)
	buf.Start(ctx)
	return &Log{buffer: buf}, nil
}

// Record appends a reasoning chain for durable write (§4.5 write-only
// contract).
func (l *Log) Record(chain model.ReasoningChain) error {
	return l.buffer.Append(chain)
}

// Close tears down the Log, flushing any buffered chains. Idempotent.
func (l *Log) Close(ctx context.Context) error {
	return l.buffer.Close(ctx)
}
