// Package consensus implements the Consensus Aggregator (§4.8): combining
// council members' PredictionBundles into a single consensus bundle per
// game.
package consensus

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gridiron/council/internal/model"
)

// MemberScore carries the per-expert, per-category inputs needed to compute
// a vote weight (§4.8): `w = 0.4·accuracy + 0.3·recent + 0.2·confidence +
// 0.1·specialization_in_category`.
type MemberScore struct {
	ExpertID              uuid.UUID
	Accuracy              float64
	Recent                float64
	Confidence            float64 // this bundle's category confidence
	SpecializationInCategory float64
}

// VoteWeight computes one member's per-category vote weight (§4.8).
func VoteWeight(m MemberScore) float64 {
	return 0.4*m.Accuracy + 0.3*m.Recent + 0.2*m.Confidence + 0.1*m.SpecializationInCategory
}

// memberBundle pairs a member's vote weight inputs with their submitted
// bundle, for one category's aggregation.
type memberBundle struct {
	expertID uuid.UUID
	weight   float64
	value    any
	confidence float64
}

// Aggregate combines council members' bundles into one ConsensusBundle
// (§4.8). scores supplies each member's accuracy/recent/specialization
// inputs; specialization is per-category ("specialization_in_category").
func Aggregate(runID uuid.UUID, gameID string, bundles []model.PredictionBundle, scores map[uuid.UUID]MemberScore, specializationByCategory map[uuid.UUID]map[string]float64, now time.Time) model.ConsensusBundle {
	categories := make(map[string][]memberBundle)

	for _, b := range bundles {
		base, ok := scores[b.ExpertID]
		if !ok {
			continue
		}
		for cat, assertion := range b.Assertions {
			spec := 0.0
			if m, ok := specializationByCategory[b.ExpertID]; ok {
				spec = m[cat]
			}
			weightInputs := base
			weightInputs.Confidence = assertion.Confidence
			weightInputs.SpecializationInCategory = spec

			categories[cat] = append(categories[cat], memberBundle{
				expertID:   b.ExpertID,
				weight:     VoteWeight(weightInputs),
				value:      assertion.Value,
				confidence: assertion.Confidence,
			})
		}
	}

	out := model.ConsensusBundle{
		RunID:      runID,
		GameID:     gameID,
		Assertions: make(map[string]model.ConsensusAssertion, len(categories)),
		CreatedAt:  now,
	}

	for cat, members := range categories {
		out.Assertions[cat] = aggregateCategory(cat, members)
	}
	return out
}

func aggregateCategory(category string, members []memberBundle) model.ConsensusAssertion {
	if allNumeric(members) {
		return aggregateNumeric(category, members)
	}
	return aggregateCategorical(category, members)
}

func allNumeric(members []memberBundle) bool {
	for _, m := range members {
		switch m.value.(type) {
		case float64, float32, int, int64:
		default:
			return false
		}
	}
	return len(members) > 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// aggregateNumeric computes a weighted mean (§4.8 numeric rule) plus the
// agreement metric shared with categorical fields.
func aggregateNumeric(category string, members []memberBundle) model.ConsensusAssertion {
	var weightedSum, totalWeight, confWeighted float64
	for _, m := range members {
		weightedSum += asFloat(m.value) * m.weight
		confWeighted += m.confidence * m.weight
		totalWeight += m.weight
	}
	var mean, confidence float64
	if totalWeight > 0 {
		mean = weightedSum / totalWeight
		confidence = confWeighted / totalWeight
	}
	return model.ConsensusAssertion{
		Category:            category,
		Value:                mean,
		AggregateConfidence: confidence,
		Agreement:           agreementForNumeric(members, totalWeight),
	}
}

// voteTally accumulates one categorical option's weighted votes.
type voteTally struct {
	weightedConfidence float64
	totalWeight        float64
}

// aggregateCategorical computes a weighted vote (§4.8 categorical rule):
// the winning option's aggregate confidence is the sum of its weighted
// confidences divided by the sum of all weights.
func aggregateCategorical(category string, members []memberBundle) model.ConsensusAssertion {
	votes := make(map[string]*voteTally)
	var grandTotalWeight float64

	for _, m := range members {
		key := toKey(m.value)
		t, ok := votes[key]
		if !ok {
			t = &voteTally{}
			votes[key] = t
		}
		t.weightedConfidence += m.confidence * m.weight
		t.totalWeight += m.weight
		grandTotalWeight += m.weight
	}

	var winner string
	var winnerWeight float64
	first := true
	for key, t := range votes {
		if first || t.totalWeight > winnerWeight {
			winner = key
			winnerWeight = t.totalWeight
			first = false
		}
	}

	var winnerConfidence float64
	if grandTotalWeight > 0 {
		winnerConfidence = votes[winner].weightedConfidence / grandTotalWeight
	}

	return model.ConsensusAssertion{
		Category:            category,
		Value:                winner,
		AggregateConfidence: winnerConfidence,
		Agreement:           agreementForVotes(votes, grandTotalWeight),
	}
}

func toKey(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// agreementForVotes computes 1 − normalized entropy of the weighted vote
// distribution (§4.8 "agreement metric").
func agreementForVotes(votes map[string]*voteTally, totalWeight float64) float64 {
	if totalWeight <= 0 || len(votes) <= 1 {
		return 1.0
	}
	entropy := 0.0
	for _, t := range votes {
		p := t.totalWeight / totalWeight
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	maxEntropy := math.Log2(float64(len(votes)))
	if maxEntropy == 0 {
		return 1.0
	}
	return 1.0 - entropy/maxEntropy
}

// agreementForNumeric treats each member as one "voter" holding its share
// of the total weight and measures dispersion of those shares the same way
// categorical agreement does, since numeric fields have no discrete
// options to vote between.
func agreementForNumeric(members []memberBundle, totalWeight float64) float64 {
	if totalWeight <= 0 || len(members) <= 1 {
		return 1.0
	}
	entropy := 0.0
	for _, m := range members {
		p := m.weight / totalWeight
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	maxEntropy := math.Log2(float64(len(members)))
	if maxEntropy == 0 {
		return 1.0
	}
	return 1.0 - entropy/maxEntropy
}
