package model

import (
	"time"

	"github.com/google/uuid"
)

// RunMetadata is the per-run configuration and audit record (§6 init-run,
// §9 "Run" glossary entry). Every mutation table filters by RunID for
// experiment isolation.
type RunMetadata struct {
	RunID uuid.UUID `json:"run_id"`

	StartingUnits float64 `json:"starting_units"`
	MaxParallelExperts int `json:"max_parallel_experts"`
	CouncilSize   int     `json:"council_size"`

	// ArchetypeTableVersion records which canonical archetype-name table
	// this run uses, resolving the §9 open question about diverging
	// personality-multiplier naming between source documents.
	ArchetypeTableVersion string `json:"archetype_table_version"`

	ShadowRun        bool `json:"shadow_run"`
	ReflectionEnabled bool `json:"reflection_enabled"`

	CreatedAt time.Time `json:"created_at"`
}

// CouncilSelection is the weekly output of the Council Selector (§4.7).
type CouncilSelection struct {
	RunID  uuid.UUID   `json:"run_id"`
	Week   int         `json:"week"`
	Members []uuid.UUID `json:"members"` // ⊆ eligible experts, |Members| = K unless shrunk
	SelectedAt time.Time `json:"selected_at"`
}

// CompositeScore is one expert's composite ranking input for council
// selection (§4.7).
type CompositeScore struct {
	ExpertID         uuid.UUID `json:"expert_id"`
	Accuracy         float64   `json:"accuracy"`
	RecentPerformance float64  `json:"recent_performance"`
	Consistency      float64   `json:"consistency"`
	Calibration      float64   `json:"calibration"`
	Specialization   float64   `json:"specialization"`
	Eligible         bool      `json:"eligible"`
}

// Value computes the weighted composite score (§4.7):
// 0.35·accuracy + 0.25·recent_performance + 0.20·consistency + 0.10·calibration + 0.10·specialization
func (c CompositeScore) Value() float64 {
	return 0.35*c.Accuracy + 0.25*c.RecentPerformance + 0.20*c.Consistency + 0.10*c.Calibration + 0.10*c.Specialization
}

// ConsensusBundle is the weighted combination of council members'
// predictions for one game (§4.8).
type ConsensusBundle struct {
	RunID  uuid.UUID `json:"run_id"`
	GameID string    `json:"game_id"`

	Assertions map[string]ConsensusAssertion `json:"assertions"`

	CreatedAt time.Time `json:"created_at"`
}

// ConsensusAssertion is one category's aggregated result plus agreement
// metric (§4.8).
type ConsensusAssertion struct {
	Category        string  `json:"category"`
	Value           any     `json:"value"`
	AggregateConfidence float64 `json:"aggregate_confidence"`
	Agreement       float64 `json:"agreement"` // 1 − normalized entropy of weighted vote
}
