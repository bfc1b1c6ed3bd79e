package personality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridiron/council/internal/model"
)

func TestMultiplier_KnownArchetypes(t *testing.T) {
	tests := []struct {
		archetype model.Archetype
		want      float64
	}{
		{model.ArchetypeGambler, 1.5},
		{model.ArchetypeRebel, 1.2},
		{model.ArchetypeScholar, 1.0},
		{model.ArchetypeSpecialist, 0.9},
		{model.ArchetypeAnalyst, 0.8},
		{model.ArchetypeDefault, 0.75},
		{model.ArchetypeVeteran, 0.7},
		{model.ArchetypeRookie, 0.6},
		{model.ArchetypeConservative, 0.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.archetype), func(t *testing.T) {
			assert.Equal(t, tt.want, Multiplier(tt.archetype))
		})
	}
}

func TestMultiplier_UnknownFallsBackToDefault(t *testing.T) {
	assert.Equal(t, Multiplier(model.ArchetypeDefault), Multiplier(model.Archetype("momentum_rider")))
}

func TestFilter_RespectsAccessFlags(t *testing.T) {
	udv := model.UDV{
		GameID:      "2026_wk1_nyj_buf",
		ContentHash: "abc123",
		Odds:        &model.OddsData{Spread: -3},
		Weather:     &model.WeatherData{TemperatureF: 40},
	}
	profile := model.PersonalityProfile{
		Version:     1,
		AccessFlags: model.AccessFlags{Odds: true},
	}

	view := Filter(profile, model.FactorWeights{"momentum_factor": 1.1}, udv)

	assert.Contains(t, view.Sections, "odds")
	assert.NotContains(t, view.Sections, "weather")
}

func TestFilter_DeterministicViewHash(t *testing.T) {
	udv := model.UDV{GameID: "g1", ContentHash: "hash-a"}
	profile := model.PersonalityProfile{Version: 3}

	a := Filter(profile, nil, udv)
	b := Filter(profile, nil, udv)

	assert.Equal(t, a.ViewHash, b.ViewHash)
}

func TestFilter_DifferentProfileVersionChangesHash(t *testing.T) {
	udv := model.UDV{GameID: "g1", ContentHash: "hash-a"}

	a := Filter(model.PersonalityProfile{Version: 1}, nil, udv)
	b := Filter(model.PersonalityProfile{Version: 2}, nil, udv)

	assert.NotEqual(t, a.ViewHash, b.ViewHash)
}

func TestSeedProfiles_HasFifteen(t *testing.T) {
	assert.Len(t, SeedProfiles(), 15)
}
