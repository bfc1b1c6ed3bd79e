package model

import (
	"time"

	"github.com/google/uuid"
)

// Archetype names the canonical personality multiplier table (§4.9, run
// metadata records which table version is in force — see RunMetadata).
type Archetype string

const (
	ArchetypeGambler      Archetype = "gambler"
	ArchetypeRebel        Archetype = "rebel"
	ArchetypeScholar      Archetype = "scholar"
	ArchetypeSpecialist   Archetype = "specialist"
	ArchetypeAnalyst      Archetype = "analyst"
	ArchetypeDefault      Archetype = "default"
	ArchetypeVeteran      Archetype = "veteran"
	ArchetypeRookie       Archetype = "rookie"
	ArchetypeConservative Archetype = "conservative"
)

// ExpertStatus is the lifecycle state of an Expert.
type ExpertStatus string

const (
	ExpertActive     ExpertStatus = "active"
	ExpertEliminated ExpertStatus = "eliminated"
)

// AccessFlags controls which UDV sections a personality profile may see.
// Six booleans per §4.2; all true means the expert reads the full UDV.
type AccessFlags struct {
	Stats         bool `json:"stats"`
	Odds          bool `json:"odds"`
	Weather       bool `json:"weather"`
	Injuries      bool `json:"injuries"`
	Historical    bool `json:"historical"`
	PublicBetting bool `json:"public_betting"`
}

// PersonalityProfile is the immutable trait portion of an Expert. Traits
// never change after creation; only FactorWeights evolve (§3 Expert
// invariant).
type PersonalityProfile struct {
	Version     int                `json:"version"`
	Archetype   Archetype          `json:"archetype"`
	AccessFlags AccessFlags        `json:"access_flags"`
	Traits      map[string]float64 `json:"traits"`
}

// FactorWeights are the per-factor calibration multipliers the Learning
// Coordinator adjusts after every settled game (§4.11). Keys are factor
// names (e.g. "defensive_strength", "momentum_factor"); values scale
// category calibration weight and are bounded to [0, 1].
type FactorWeights map[string]float64

// Expert is a single personality-parameterized predictor (§3).
type Expert struct {
	ID          uuid.UUID           `json:"id"`
	RunID       uuid.UUID           `json:"run_id"`
	DisplayName string              `json:"display_name"`
	Profile     PersonalityProfile  `json:"profile"`
	Weights     FactorWeights       `json:"weights"`
	LearningRate float64            `json:"learning_rate"` // ∈ [0.02, 0.20]
	Status      ExpertStatus        `json:"status"`
	Version     int                 `json:"version"` // monotonic, incremented on weight change
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Clone deep-copies an Expert's mutable weight map so callers can snapshot
// a version before handing it to a predict() call (§9 "Global mutable
// state": readers take a consistent snapshot, version pinned at predict time).
func (e Expert) Clone() Expert {
	w := make(FactorWeights, len(e.Weights))
	for k, v := range e.Weights {
		w[k] = v
	}
	e.Weights = w
	return e
}
