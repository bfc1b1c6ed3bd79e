package model

import (
	"time"

	"github.com/google/uuid"
)

// RevisionType classifies how a later prediction differs from an earlier
// one for the same (expert, game) (§3, §4.6).
type RevisionType string

const (
	RevisionCompleteReversal  RevisionType = "complete_reversal"
	RevisionPredictionChange  RevisionType = "prediction_change"
	RevisionConfidenceShift   RevisionType = "confidence_shift"
	RevisionReasoningUpdate   RevisionType = "reasoning_update"
	RevisionNuancedAdjustment RevisionType = "nuanced_adjustment"
)

// RevisionTrigger names the inferred cause of a belief revision (§3, §4.6).
type RevisionTrigger string

const (
	TriggerNewInformation    RevisionTrigger = "new_information"
	TriggerInjuryReport      RevisionTrigger = "injury_report"
	TriggerWeatherUpdate     RevisionTrigger = "weather_update"
	TriggerLineMovement      RevisionTrigger = "line_movement"
	TriggerPublicSentiment   RevisionTrigger = "public_sentiment"
	TriggerExpertInfluence   RevisionTrigger = "expert_influence"
	TriggerSelfReflection    RevisionTrigger = "self_reflection"
	TriggerPatternRecognition RevisionTrigger = "pattern_recognition"
)

// CausalStep is one entry in a BeliefRevision's reconstructed causal chain
// (§4.6), derived from the UDV delta or, absent one, synthesized from the
// reasoning-log diff.
type CausalStep struct {
	SectionChanged string    `json:"section_changed"`
	Summary        string    `json:"summary"`
	Timestamp      time.Time `json:"timestamp"`
}

// BeliefRevision records a classified change between two sequential
// PredictionBundles for the same (expert, game) (§3). Immutable once created.
type BeliefRevision struct {
	ID       uuid.UUID `json:"id"`
	RunID    uuid.UUID `json:"run_id"`
	ExpertID uuid.UUID `json:"expert_id"`
	GameID   string    `json:"game_id"`

	OriginalBundleID uuid.UUID `json:"original_bundle_id"`
	RevisedBundleID  uuid.UUID `json:"revised_bundle_id"`

	Type    RevisionType    `json:"type"`
	Trigger RevisionTrigger `json:"trigger"`

	CausalChain     []CausalStep   `json:"causal_chain"`
	ConfidenceDelta float64        `json:"confidence_delta"`
	ImpactScore     float64        `json:"impact_score"` // ∈ [0,1]
	EmotionalState  EmotionalState `json:"emotional_state"`

	CreatedAt time.Time `json:"created_at"`
}
