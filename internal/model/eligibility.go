package model

import "github.com/google/uuid"

// EligibilityGate tracks one expert's SLO compliance within a run (§3).
// Recomputed after every prediction; an ineligible expert is excluded from
// council selection until both SLOs recover.
type EligibilityGate struct {
	ExpertID uuid.UUID `json:"expert_id"`
	RunID    uuid.UUID `json:"run_id"`

	SchemaValidityRate float64 `json:"schema_validity_rate"` // target ≥ 0.985
	AvgResponseTimeMS  float64 `json:"avg_response_time_ms"` // target ≤ 6000

	Eligible bool `json:"eligible"`

	TotalPredictions  int `json:"total_predictions"`
	ValidPredictions  int `json:"valid_predictions"`

	// RollingResponseTimesMS is a bounded ring of recent response times used
	// to recompute AvgResponseTimeMS; capped at RollingWindowSize entries.
	RollingResponseTimesMS []float64 `json:"-"`
}

// RollingWindowSize bounds the response-time history kept per gate.
const RollingWindowSize = 50

const (
	schemaValidityTarget = 0.985
	responseTimeTargetMS = 6000
)

// RecordPrediction folds in one prediction's outcome (schema-valid or not,
// and its response latency) and recomputes Eligible (§3, §4.7).
func (g *EligibilityGate) RecordPrediction(schemaValid bool, responseTimeMS float64) {
	g.TotalPredictions++
	if schemaValid {
		g.ValidPredictions++
	}
	if g.TotalPredictions > 0 {
		g.SchemaValidityRate = float64(g.ValidPredictions) / float64(g.TotalPredictions)
	}

	g.RollingResponseTimesMS = append(g.RollingResponseTimesMS, responseTimeMS)
	if len(g.RollingResponseTimesMS) > RollingWindowSize {
		g.RollingResponseTimesMS = g.RollingResponseTimesMS[len(g.RollingResponseTimesMS)-RollingWindowSize:]
	}
	var sum float64
	for _, t := range g.RollingResponseTimesMS {
		sum += t
	}
	g.AvgResponseTimeMS = sum / float64(len(g.RollingResponseTimesMS))

	g.Eligible = g.SchemaValidityRate >= schemaValidityTarget && g.AvgResponseTimeMS <= responseTimeTargetMS
}
