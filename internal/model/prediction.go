package model

import (
	"time"

	"github.com/google/uuid"
)

// BundleStatus reflects schema validation / generation outcome for a bundle.
type BundleStatus string

const (
	BundleValid            BundleStatus = "valid"
	BundleSchemaRejected   BundleStatus = "schema_rejected"
	BundleGenerationFailed BundleStatus = "generation_failed" // LLM timeout (§5 cancellation policy)
)

// CategoryGroup names the eight groupings of the 83-category schema (§2).
type CategoryGroup string

const (
	GroupOutcome    CategoryGroup = "outcome"
	GroupSpread     CategoryGroup = "spread"
	GroupTotal      CategoryGroup = "total"
	GroupMargin     CategoryGroup = "margin"
	GroupSplits     CategoryGroup = "quarter_half_splits"
	GroupTeamStats  CategoryGroup = "team_stats"
	GroupPlayerProps CategoryGroup = "player_props"
	GroupSituational CategoryGroup = "situational_events"
)

// KeyFactor is one ranked, weighted input that drove an assertion (§3).
// Weights across a single assertion's KeyFactors must sum to 1.
type KeyFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"` // ∈ [0,1]
}

// Assertion is a single predicted value within a category (§3 PredictionBundle).
type Assertion struct {
	Category   string      `json:"category"`
	Group      CategoryGroup `json:"group"`
	Value      any         `json:"value"` // numeric, string, or bool depending on category
	Confidence float64     `json:"confidence"` // ∈ [0,1]
	Reasoning  string      `json:"reasoning"`
	KeyFactors []KeyFactor `json:"key_factors"`
}

// PredictionBundle is one expert's full structured prediction for a game
// snapshot (§3). Subsequent predictions for the same (ExpertID, GameID) are
// revisions, never overwrites — each gets its own row with an incremented
// SequenceNumber.
type PredictionBundle struct {
	ID       uuid.UUID `json:"id"`
	RunID    uuid.UUID `json:"run_id"`
	ExpertID uuid.UUID `json:"expert_id"`
	GameID   string    `json:"game_id"`

	UDVContentHash string `json:"udv_content_hash"`
	SequenceNumber int    `json:"sequence_number"` // 1 for first prediction, incremented per revision

	Pick           string  `json:"pick"` // "home" | "away"
	Spread         float64 `json:"spread"`
	Total          float64 `json:"total"`
	Margin         float64 `json:"margin"`
	OverallConfidence float64 `json:"overall_confidence"`

	Assertions map[string]Assertion `json:"assertions"` // keyed by category name, 83 categories

	Status      BundleStatus `json:"status"`
	ContentHash string       `json:"content_hash"`

	CreatedAt time.Time `json:"created_at"`
}

// ConfidenceMemoryAdjustment is the result of applying the memory influence
// contract (§4.3) to a raw LLM confidence before clamping.
type ConfidenceMemoryAdjustment struct {
	RawConfidence     float64 `json:"raw_confidence"`
	Adjustment        float64 `json:"adjustment"` // bounded to ±0.15
	FinalConfidence   float64 `json:"final_confidence"` // clamped to [0.10, 0.95]
	Reasons           []string `json:"reasons"`
}
