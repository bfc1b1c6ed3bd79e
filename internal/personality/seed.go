package personality

import "github.com/gridiron/council/internal/model"

// SeedProfile is a template for one of the 15 expert personalities seeded
// at season/run start (§6 init-run).
type SeedProfile struct {
	DisplayName string
	Archetype   model.Archetype
	AccessFlags model.AccessFlags
	Traits      map[string]float64
	Weights     model.FactorWeights
	LearningRate float64
}

// SeedProfiles returns the 15 personality templates the council is seeded
// from at run start. Traits are immutable for the life of an Expert;
// Weights are the starting point for the per-factor multipliers the
// Learning Coordinator subsequently adjusts (§3 Expert invariant).
func SeedProfiles() []SeedProfile {
	full := model.AccessFlags{Stats: true, Odds: true, Weather: true, Injuries: true, Historical: true, PublicBetting: true}
	statsOnly := model.AccessFlags{Stats: true, Historical: true}
	oddsHeavy := model.AccessFlags{Stats: true, Odds: true, PublicBetting: true}
	conservative := model.AccessFlags{Stats: true, Injuries: true, Historical: true}

	return []SeedProfile{
		{
			DisplayName: "The Gambler", Archetype: model.ArchetypeGambler, AccessFlags: oddsHeavy,
			Traits: map[string]float64{"risk_tolerance": 0.95, "contrarian": 0.6},
			Weights: model.FactorWeights{"momentum_factor": 1.15, "public_sentiment": 1.10, "defensive_strength": 0.90},
			LearningRate: 0.15,
		},
		{
			DisplayName: "The Rebel", Archetype: model.ArchetypeRebel, AccessFlags: oddsHeavy,
			Traits: map[string]float64{"risk_tolerance": 0.8, "contrarian": 0.9},
			Weights: model.FactorWeights{"public_sentiment": 0.70, "line_movement": 1.20},
			LearningRate: 0.12,
		},
		{
			DisplayName: "The Scholar", Archetype: model.ArchetypeScholar, AccessFlags: full,
			Traits: map[string]float64{"risk_tolerance": 0.4, "analytical": 0.95},
			Weights: model.FactorWeights{"defensive_strength": 1.05, "epa_per_play": 1.15},
			LearningRate: 0.08,
		},
		{
			DisplayName: "The Specialist", Archetype: model.ArchetypeSpecialist, AccessFlags: statsOnly,
			Traits: map[string]float64{"risk_tolerance": 0.45, "specialization": 0.9},
			Weights: model.FactorWeights{"red_zone_pct": 1.20, "third_down_pct": 1.15},
			LearningRate: 0.10,
		},
		{
			DisplayName: "The Analyst", Archetype: model.ArchetypeAnalyst, AccessFlags: full,
			Traits: map[string]float64{"risk_tolerance": 0.35, "analytical": 0.9},
			Weights: model.FactorWeights{"turnovers_per_game": 1.10, "time_of_possession": 1.05},
			LearningRate: 0.08,
		},
		{
			DisplayName: "The Generalist", Archetype: model.ArchetypeDefault, AccessFlags: full,
			Traits: map[string]float64{"risk_tolerance": 0.5, "analytical": 0.5},
			Weights: model.FactorWeights{},
			LearningRate: 0.08,
		},
		{
			DisplayName: "The Veteran", Archetype: model.ArchetypeVeteran, AccessFlags: conservative,
			Traits: map[string]float64{"risk_tolerance": 0.3, "experience_weighting": 0.9},
			Weights: model.FactorWeights{"historical_h2h": 1.20, "momentum_factor": 0.85},
			LearningRate: 0.05,
		},
		{
			DisplayName: "The Rookie", Archetype: model.ArchetypeRookie, AccessFlags: full,
			Traits: map[string]float64{"risk_tolerance": 0.65, "experience_weighting": 0.2},
			Weights: model.FactorWeights{"momentum_factor": 1.10, "public_sentiment": 1.05},
			LearningRate: 0.20,
		},
		{
			DisplayName: "The Conservative", Archetype: model.ArchetypeConservative, AccessFlags: conservative,
			Traits: map[string]float64{"risk_tolerance": 0.15, "analytical": 0.7},
			Weights: model.FactorWeights{"defensive_strength": 1.15, "turnovers_per_game": 1.10},
			LearningRate: 0.05,
		},
		{
			DisplayName: "The Weatherman", Archetype: model.ArchetypeSpecialist, AccessFlags: model.AccessFlags{Weather: true, Stats: true},
			Traits: map[string]float64{"risk_tolerance": 0.4, "specialization": 0.85},
			Weights: model.FactorWeights{"weather_impact": 1.30},
			LearningRate: 0.10,
		},
		{
			DisplayName: "The Trainer", Archetype: model.ArchetypeSpecialist, AccessFlags: model.AccessFlags{Injuries: true, Stats: true},
			Traits: map[string]float64{"risk_tolerance": 0.4, "specialization": 0.85},
			Weights: model.FactorWeights{"injury_impact": 1.30},
			LearningRate: 0.10,
		},
		{
			DisplayName: "The Crowd Reader", Archetype: model.ArchetypeGambler, AccessFlags: model.AccessFlags{PublicBetting: true, Odds: true},
			Traits: map[string]float64{"risk_tolerance": 0.7, "contrarian": 0.3},
			Weights: model.FactorWeights{"public_sentiment": 1.25},
			LearningRate: 0.12,
		},
		{
			DisplayName: "The Historian", Archetype: model.ArchetypeScholar, AccessFlags: model.AccessFlags{Historical: true, Stats: true},
			Traits: map[string]float64{"risk_tolerance": 0.35, "analytical": 0.85},
			Weights: model.FactorWeights{"historical_h2h": 1.25, "epa_per_play": 1.10},
			LearningRate: 0.08,
		},
		{
			DisplayName: "The Grinder", Archetype: model.ArchetypeAnalyst, AccessFlags: conservative,
			Traits: map[string]float64{"risk_tolerance": 0.3, "analytical": 0.75},
			Weights: model.FactorWeights{"time_of_possession": 1.20, "third_down_pct": 1.10},
			LearningRate: 0.07,
		},
		{
			DisplayName: "The Maverick", Archetype: model.ArchetypeRebel, AccessFlags: full,
			Traits: map[string]float64{"risk_tolerance": 0.85, "contrarian": 0.75},
			Weights: model.FactorWeights{"momentum_factor": 1.25, "line_movement": 1.10},
			LearningRate: 0.14,
		},
	}
}
