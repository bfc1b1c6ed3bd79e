package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// MemoryType enumerates the EpisodicMemory.Type values (§3).
type MemoryType string

const (
	MemoryPredictionOutcome  MemoryType = "prediction_outcome"
	MemoryUpsetDetection     MemoryType = "upset_detection"
	MemoryLearningMoment     MemoryType = "learning_moment"
	MemoryPatternRecognition MemoryType = "pattern_recognition"
	MemoryFailureAnalysis    MemoryType = "failure_analysis"
	MemoryConsensusDeviation MemoryType = "consensus_deviation"
)

// EmotionalState enumerates the affective tag attached to a memory or
// belief revision (§3).
type EmotionalState string

const (
	EmotionEuphoria      EmotionalState = "euphoria"
	EmotionSatisfaction  EmotionalState = "satisfaction"
	EmotionNeutral       EmotionalState = "neutral"
	EmotionDisappointment EmotionalState = "disappointment"
	EmotionDevastation   EmotionalState = "devastation"
	EmotionSurprise      EmotionalState = "surprise"
	EmotionConfusion     EmotionalState = "confusion"
	EmotionVindication   EmotionalState = "vindication"
)

// EpisodicMemory is a single past-game experience owned by one expert,
// retrievable by similarity + recency (§3, §4.4). Append-only: decay and
// RetrievalCount are the only fields a retrieval pass may mutate.
type EpisodicMemory struct {
	ID       uuid.UUID  `json:"id"` // deterministic hash(expert + game + timestamp)
	RunID    uuid.UUID  `json:"run_id"`
	ExpertID uuid.UUID  `json:"expert_id"`
	GameID   string     `json:"game_id"`

	Type           MemoryType     `json:"type"`
	EmotionalState EmotionalState `json:"emotional_state"`

	PredictionSnapshot map[string]any `json:"prediction_snapshot"`
	Outcome            map[string]any `json:"outcome"`
	ContextualFactors  []string       `json:"contextual_factors"`
	LessonsLearned     []string       `json:"lessons_learned"`

	EmotionalIntensity float64 `json:"emotional_intensity"` // ∈ [0,1]
	Vividness          float64 `json:"vividness"`           // ∈ [0,1]
	Decay              float64 `json:"decay"`               // ∈ [0,1], 1.0 at creation
	RetrievalCount     int     `json:"retrieval_count"`

	ContentEmbedding  *pgvector.Vector `json:"-"`
	ContextEmbedding  *pgvector.Vector `json:"-"`
	CombinedEmbedding *pgvector.Vector `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Scored wraps a memory with the blended retrieval score computed by
// Store.Retrieve (§4.4 step 4).
type Scored struct {
	Memory EpisodicMemory `json:"memory"`
	Score  float64        `json:"score"`
}

// RetrievalFilter narrows the candidate set before scoring (§4.4 step 1).
type RetrievalFilter struct {
	ExpertID  uuid.UUID
	RunID     uuid.UUID
	MaxAgeDays int     // default 365
	MinDecay   float64 // default 0.1
}
