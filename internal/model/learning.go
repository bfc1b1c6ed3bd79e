package model

import (
	"time"

	"github.com/google/uuid"
)

// LearningPriority is the queue priority level assigned to a LearningEvent
// (§4.11). Priority decides only which events backpressure may drop:
// Normal is dropped when the queue is full, higher levels wait for room
// (§5). The learning Coordinator drains events in arrival order, not by
// priority.
type LearningPriority int

const (
	PriorityNormal   LearningPriority = 5
	PriorityMedium   LearningPriority = 7
	PriorityHigh     LearningPriority = 8
	PriorityVeryHigh LearningPriority = 9
)

// FactorAdjustment is one per-factor weight delta applied to an expert's
// FactorWeights after scoring a settled prediction (§4.11 step 2).
type FactorAdjustment struct {
	Factor     string  `json:"factor"`
	Adjustment float64 `json:"adjustment"`
}

// LearningEvent is the per-expert outcome of scoring one settled prediction
// (§4.11). It carries enough to update weights, queue a memory write, and
// optionally broadcast a peer-learning candidate.
type LearningEvent struct {
	ID       uuid.UUID `json:"id"`
	RunID    uuid.UUID `json:"run_id"`
	ExpertID uuid.UUID `json:"expert_id"`
	GameID   string    `json:"game_id"`
	BundleID uuid.UUID `json:"bundle_id"`

	Score             float64            `json:"score"` // 0.4 winner + 0.3 spread + 0.3 total
	WinnerCorrect     bool               `json:"winner_correct"`
	SpreadComponent   float64            `json:"spread_component"`
	TotalComponent    float64            `json:"total_component"`
	FactorAdjustments []FactorAdjustment `json:"factor_adjustments"`

	Priority          LearningPriority `json:"priority"`
	PeerLearningCandidate bool         `json:"peer_learning_candidate"`

	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PeerLearningBroadcast is the factors-only record other experts may learn
// from (§4.11 "never methodology"). Published for every PeerLearningCandidate
// event; consumers resolve SourceExpertID to a live object at consumption time
// rather than holding direct references (§9 "Cyclic references").
type PeerLearningBroadcast struct {
	SourceExpertID uuid.UUID          `json:"source_expert_id"`
	RunID          uuid.UUID          `json:"run_id"`
	GameID         string             `json:"game_id"`
	Factors        []FactorAdjustment `json:"factors"`
	Outcome        string             `json:"outcome"`
	Score          float64            `json:"score"`
}

// PriorityFor derives the queue priority for a settled learning event
// (§4.11): very-high for catastrophic misses, high for exceptional hits,
// medium for peer-learning candidates, normal otherwise.
func PriorityFor(score float64, isPeerCandidate bool) LearningPriority {
	switch {
	case score < 0.1:
		return PriorityVeryHigh
	case score > 0.9:
		return PriorityHigh
	case isPeerCandidate:
		return PriorityMedium
	default:
		return PriorityNormal
	}
}
