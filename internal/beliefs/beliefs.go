// Package beliefs implements the Belief Revision Detector (§4.6): given two
// sequential PredictionBundles for the same (expert, game), it decides
// whether a revision occurred and classifies it by an ordered rule set.
package beliefs

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gridiron/council/internal/model"
)

// Classification thresholds (§4.6, evaluated in order).
const (
	spreadDeltaThreshold     = 7.0
	totalDeltaThreshold      = 10.0
	confidenceDeltaThreshold = 0.2
	editDistanceThreshold    = 3
	scalarShiftFraction      = 0.10
)

// Classify applies the ordered classification rules to two sequential
// bundles for the same (expert, game) and returns the revision type, or nil
// if no revision occurred (§4.6 rule 6).
func Classify(prior, revised model.PredictionBundle) *model.RevisionType {
	if prior.Pick != revised.Pick {
		t := model.RevisionCompleteReversal
		return &t
	}

	spreadDelta := math.Abs(revised.Spread - prior.Spread)
	totalDelta := math.Abs(revised.Total - prior.Total)
	if spreadDelta > spreadDeltaThreshold || totalDelta > totalDeltaThreshold {
		t := model.RevisionPredictionChange
		return &t
	}

	confDelta := math.Abs(revised.OverallConfidence - prior.OverallConfidence)
	if confDelta > confidenceDeltaThreshold {
		t := model.RevisionConfidenceShift
		return &t
	}

	if editDistance(factorNames(prior), factorNames(revised)) > editDistanceThreshold {
		t := model.RevisionReasoningUpdate
		return &t
	}

	if scalarShiftExceeds(prior, revised, scalarShiftFraction) {
		t := model.RevisionNuancedAdjustment
		return &t
	}

	return nil
}

// ConfidenceDelta returns revised minus prior overall confidence, signed
// (used for impact scoring and emotional-state derivation downstream).
func ConfidenceDelta(prior, revised model.PredictionBundle) float64 {
	return revised.OverallConfidence - prior.OverallConfidence
}

// scalarShiftExceeds reports whether any of spread/total/margin moved by
// more than fraction of its prior value (§4.6 rule 5). A prior value of
// zero is treated as no baseline to shift from and is skipped.
func scalarShiftExceeds(prior, revised model.PredictionBundle, fraction float64) bool {
	check := func(p, r float64) bool {
		if p == 0 {
			return false
		}
		return math.Abs(r-p)/math.Abs(p) > fraction
	}
	return check(prior.Spread, revised.Spread) || check(prior.Total, revised.Total) || check(prior.Margin, revised.Margin)
}

// factorNames collects the ordered, deduplicated key-factor names referenced
// across a bundle's assertions, in the order they first appear when the
// categories are visited in sorted order. Category map iteration order is
// non-deterministic in Go, so the category keys are sorted first to give a
// stable edit-distance comparison; the names themselves are not sorted.
func factorNames(b model.PredictionBundle) []string {
	seen := make(map[string]bool)
	var names []string
	categories := make([]string, 0, len(b.Assertions))
	for cat := range b.Assertions {
		categories = append(categories, cat)
	}
	sortStrings(categories)
	for _, cat := range categories {
		for _, kf := range b.Assertions[cat].KeyFactors {
			if !seen[kf.Name] {
				seen[kf.Name] = true
				names = append(names, kf.Name)
			}
		}
	}
	return names
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// editDistance computes the Levenshtein edit distance between two ordered
// factor-name lists (§4.6 rule 4 "factor list edit distance").
func editDistance(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// revisionSeverity weights each revision type for impact scoring (§4.6
// "weighted combination of revision-type severity").
func revisionSeverity(t model.RevisionType) float64 {
	switch t {
	case model.RevisionCompleteReversal:
		return 1.0
	case model.RevisionPredictionChange:
		return 0.7
	case model.RevisionConfidenceShift:
		return 0.5
	case model.RevisionReasoningUpdate:
		return 0.3
	case model.RevisionNuancedAdjustment:
		return 0.15
	default:
		return 0
	}
}

// ImpactScore combines revision-type severity, confidence delta, and scalar
// deltas into a normalized [0,1] score (§4.6).
func ImpactScore(t model.RevisionType, confidenceDelta, spreadDelta, totalDelta float64) float64 {
	severity := revisionSeverity(t)
	confTerm := math.Min(math.Abs(confidenceDelta)/confidenceDeltaThreshold, 1.0)
	spreadTerm := math.Min(spreadDelta/spreadDeltaThreshold, 1.0)
	totalTerm := math.Min(totalDelta/totalDeltaThreshold, 1.0)
	score := 0.5*severity + 0.3*confTerm + 0.1*spreadTerm + 0.1*totalTerm
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// udvSectionDelta names which UDV section changed the most between two
// snapshots, used for trigger inference (§4.6).
type udvSectionDelta struct {
	section   string
	magnitude float64
}

// InferTrigger inspects the delta between two UDV snapshots and maps the
// largest changed section to a trigger enum (§4.6). If nothing changed,
// the trigger is self_reflection.
func InferTrigger(prior, revised model.UDV) model.RevisionTrigger {
	deltas := sectionDeltas(prior, revised)
	var best udvSectionDelta
	for _, d := range deltas {
		if d.magnitude > best.magnitude {
			best = d
		}
	}
	if best.magnitude == 0 {
		return model.TriggerSelfReflection
	}
	return sectionTrigger(best.section)
}

func sectionTrigger(section string) model.RevisionTrigger {
	switch section {
	case "injuries":
		return model.TriggerInjuryReport
	case "odds":
		return model.TriggerLineMovement
	case "weather":
		return model.TriggerWeatherUpdate
	case "news":
		return model.TriggerPublicSentiment
	case "historical":
		return model.TriggerPatternRecognition
	default:
		return model.TriggerNewInformation
	}
}

func sectionDeltas(prior, revised model.UDV) []udvSectionDelta {
	var deltas []udvSectionDelta

	if prior.Odds != nil && revised.Odds != nil {
		m := math.Abs(revised.Odds.Spread-prior.Odds.Spread) + math.Abs(revised.Odds.Total-prior.Odds.Total)
		deltas = append(deltas, udvSectionDelta{"odds", m})
	}
	if prior.Weather != nil && revised.Weather != nil {
		m := math.Abs(revised.Weather.WindSpeedMPH-prior.Weather.WindSpeedMPH) + math.Abs(revised.Weather.TemperatureF-prior.Weather.TemperatureF)
		deltas = append(deltas, udvSectionDelta{"weather", m})
	}
	if len(prior.Injuries) != len(revised.Injuries) {
		deltas = append(deltas, udvSectionDelta{"injuries", math.Abs(float64(len(revised.Injuries) - len(prior.Injuries)))})
	}
	if prior.Historical != nil && revised.Historical != nil {
		m := math.Abs(revised.Historical.EPAPerPlay - prior.Historical.EPAPerPlay)
		deltas = append(deltas, udvSectionDelta{"historical", m})
	}
	if prior.NewsSummary != revised.NewsSummary && (prior.NewsSummary != "" || revised.NewsSummary != "") {
		deltas = append(deltas, udvSectionDelta{"news", 1})
	}
	return deltas
}

// CausalChain reconstructs the ordered steps that led to a revision from
// the UDV delta (§4.6). If no UDV delta exists, the caller should fall back
// to synthesizing steps from the reasoning-log diff via SynthesizeFromReasoning.
func CausalChain(prior, revised model.UDV, at time.Time) []model.CausalStep {
	deltas := sectionDeltas(prior, revised)
	var steps []model.CausalStep
	for _, d := range deltas {
		if d.magnitude == 0 {
			continue
		}
		steps = append(steps, model.CausalStep{
			SectionChanged: d.section,
			Summary:        sectionChangeSummary(d.section, d.magnitude),
			Timestamp:      at,
		})
	}
	return steps
}

func sectionChangeSummary(section string, magnitude float64) string {
	switch section {
	case "odds":
		return "market line moved"
	case "weather":
		return "weather conditions changed"
	case "injuries":
		return "injury report changed"
	case "historical":
		return "historical efficiency metrics shifted"
	case "news":
		return "news/sentiment summary changed"
	default:
		return "section changed"
	}
}

// SynthesizeFromReasoning builds a causal chain from a reasoning-chain diff
// when no UDV delta is available (§4.6 "synthesized from the reasoning-log
// diff"). It reports each factor whose confidence moved materially between
// the two chains.
func SynthesizeFromReasoning(prior, revised model.ReasoningChain, at time.Time) []model.CausalStep {
	priorConf := make(map[string]float64, len(prior.Factors))
	for _, f := range prior.Factors {
		priorConf[f.Name] = f.Confidence
	}

	var steps []model.CausalStep
	for _, f := range revised.Factors {
		if before, ok := priorConf[f.Name]; ok && math.Abs(f.Confidence-before) > 0.05 {
			steps = append(steps, model.CausalStep{
				SectionChanged: f.Name,
				Summary:        "reasoning factor confidence shifted",
				Timestamp:      at,
			})
		}
	}
	return steps
}

// Detect runs the full belief-revision pipeline for one (expert, game) pair
// and returns nil if no revision occurred (§4.6, §3 BeliefRevision).
func Detect(runID, expertID uuid.UUID, gameID string, prior, revised model.PredictionBundle, priorUDV, revisedUDV model.UDV, now time.Time) *model.BeliefRevision {
	revType := Classify(prior, revised)
	if revType == nil {
		return nil
	}

	confDelta := ConfidenceDelta(prior, revised)
	spreadDelta := math.Abs(revised.Spread - prior.Spread)
	totalDelta := math.Abs(revised.Total - prior.Total)

	chain := CausalChain(priorUDV, revisedUDV, now)
	trigger := InferTrigger(priorUDV, revisedUDV)

	return &model.BeliefRevision{
		ID:               uuid.New(),
		RunID:            runID,
		ExpertID:         expertID,
		GameID:           gameID,
		OriginalBundleID: prior.ID,
		RevisedBundleID:  revised.ID,
		Type:             *revType,
		Trigger:          trigger,
		CausalChain:      chain,
		ConfidenceDelta:  confDelta,
		ImpactScore:      ImpactScore(*revType, confDelta, spreadDelta, totalDelta),
		EmotionalState:   emotionalStateFor(*revType, confDelta),
		CreatedAt:        now,
	}
}

func emotionalStateFor(t model.RevisionType, confDelta float64) model.EmotionalState {
	switch t {
	case model.RevisionCompleteReversal:
		return model.EmotionConfusion
	case model.RevisionPredictionChange:
		if confDelta < 0 {
			return model.EmotionDisappointment
		}
		return model.EmotionSurprise
	case model.RevisionConfidenceShift:
		if confDelta < 0 {
			return model.EmotionDisappointment
		}
		return model.EmotionSatisfaction
	default:
		return model.EmotionNeutral
	}
}
