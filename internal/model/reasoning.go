package model

import (
	"time"

	"github.com/google/uuid"
)

// ReasoningFactor is one weighted, confidence-scored input recorded in a
// ReasoningChain (§4.5). Distinct from KeyFactor: this carries a per-factor
// confidence in addition to weight, used to compute aggregate confidence.
type ReasoningFactor struct {
	Name       string  `json:"name"`
	Weight     float64 `json:"weight"`
	Confidence float64 `json:"confidence"`
}

// ConfidenceBreakdown maps a bet-type category to its derived confidence,
// surfaced alongside the aggregate for audit (§4.5).
type ConfidenceBreakdown map[string]float64

// ReasoningChain is the per-prediction audit record derived from a
// PredictionBundle at write time (§3, §4.5): factor list, weights,
// personality-flavored monologue, and final aggregate confidence.
type ReasoningChain struct {
	ID                 uuid.UUID           `json:"id"`
	RunID              uuid.UUID           `json:"run_id"`
	ExpertID           uuid.UUID           `json:"expert_id"`
	GameID             string              `json:"game_id"`
	BundleID           uuid.UUID           `json:"bundle_id"`
	Factors            []ReasoningFactor   `json:"factors"`
	Monologue          string              `json:"monologue"`
	DominantFactor     string              `json:"dominant_factor"`
	ConfidenceBreakdown ConfidenceBreakdown `json:"confidence_breakdown"`
	AggregateConfidence float64             `json:"aggregate_confidence"`
	CreatedAt          time.Time           `json:"created_at"`
}

// AggregateConfidence computes Σ(weight·factor_confidence) over factors with
// weight > 0, per §4.5.
func AggregateConfidence(factors []ReasoningFactor) float64 {
	var total float64
	for _, f := range factors {
		if f.Weight > 0 {
			total += f.Weight * f.Confidence
		}
	}
	return total
}

// DominantFactor returns the name of the highest-weight factor, used to
// select the monologue template (§4.5). Returns "" for an empty slice.
func DominantFactor(factors []ReasoningFactor) string {
	var best ReasoningFactor
	found := false
	for _, f := range factors {
		if !found || f.Weight > best.Weight {
			best = f
			found = true
		}
	}
	if !found {
		return ""
	}
	return best.Name
}
