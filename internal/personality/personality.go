// Package personality implements the Personality Filter (§4.2): projecting
// a UDV into a per-expert subset plus a factor-weight vector, and the
// canonical archetype multiplier table the Bet Sizer consumes (§4.9).
package personality

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/gridiron/council/internal/model"
)

// ArchetypeTableVersion is the canonical personality-multiplier table this
// codebase implements, resolving the §9 open question about diverging
// naming between source documents (the "momentum_rider" / "risk_taking_gambler"
// variants are not used). Runs record this string in run_metadata.
const ArchetypeTableVersion = "v1-spec4.9"

// Multiplier returns the Bet Sizer's personality multiplier for an
// archetype (§4.9). Unknown archetypes fall back to Default, per §8
// boundary behavior 11.
func Multiplier(a model.Archetype) float64 {
	switch a {
	case model.ArchetypeGambler:
		return 1.5
	case model.ArchetypeRebel:
		return 1.2
	case model.ArchetypeScholar:
		return 1.0
	case model.ArchetypeSpecialist:
		return 0.9
	case model.ArchetypeAnalyst:
		return 0.8
	case model.ArchetypeVeteran:
		return 0.7
	case model.ArchetypeRookie:
		return 0.6
	case model.ArchetypeConservative:
		return 0.5
	case model.ArchetypeDefault:
		return 0.75
	default:
		return 0.75 // Default
	}
}

// FilteredView is what an Expert Agent actually sees: the UDV sections its
// AccessFlags permit, plus the factor-weight vector its profile carries.
type FilteredView struct {
	GameID     string
	ViewHash   string
	Sections   map[string]any
	Weights    model.FactorWeights
}

// Filter projects a UDV into a FilteredView according to profile's
// AccessFlags and per-factor weights (§4.2). Filtering is deterministic:
// the same (profile.Version, UDV.ContentHash) always yields the same
// ViewHash, regardless of process or time.
func Filter(profile model.PersonalityProfile, weights model.FactorWeights, udv model.UDV) FilteredView {
	sections := make(map[string]any, 6)
	flags := profile.AccessFlags

	if flags.Stats {
		sections["home_stats"] = udv.HomeStats
		sections["away_stats"] = udv.AwayStats
	}
	if flags.Odds {
		sections["odds"] = udv.Odds
	}
	if flags.Weather {
		sections["weather"] = udv.Weather
	}
	if flags.Injuries {
		sections["injuries"] = udv.Injuries
	}
	if flags.Historical {
		sections["historical"] = udv.Historical
	}
	if flags.PublicBetting {
		sections["news_summary"] = udv.NewsSummary
	}

	return FilteredView{
		GameID:   udv.GameID,
		ViewHash: ViewHash(profile.Version, udv.ContentHash),
		Sections: sections,
		Weights:  weights,
	}
}

// ViewHash computes the deterministic hash of a (profile_version, udv_hash)
// pair (§4.2 invariant).
func ViewHash(profileVersion int, udvContentHash string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", profileVersion, udvContentHash)))
	return hex.EncodeToString(sum[:])
}

// SortedFactorNames returns Weights keys in deterministic order, used
// wherever factor iteration order must be stable (e.g. reasoning chain
// factor lists, content hashing).
func SortedFactorNames(w model.FactorWeights) []string {
	names := make([]string, 0, len(w))
	for k := range w {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
