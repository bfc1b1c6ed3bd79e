// Package experts implements the Expert Agent (§4.3): producing a
// schema-valid PredictionBundle from a filtered view plus retrieved
// memories, and folding game outcomes back into a reflection record for the
// Learning Coordinator.
package experts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gridiron/council/internal/cerrors"
	"github.com/gridiron/council/internal/integrity"
	"github.com/gridiron/council/internal/model"
	"github.com/gridiron/council/internal/personality"
	"github.com/gridiron/council/internal/schema"
)

// finalConfidenceFloor and finalConfidenceCeil bound the post-adjustment
// confidence to a non-degenerate range (§4.3 "clamped to avoid degenerate
// extremes").
const (
	finalConfidenceFloor = 0.10
	finalConfidenceCeil  = 0.95

	// memoryAdjustmentBound is the absolute bound on the combined memory
	// confidence adjustment (§4.3 "bounded to ±15% absolute").
	memoryAdjustmentBound = 0.15
)

// PredictionRequest is what an Agent hands to the Generator: everything an
// LLM call needs to produce one expert's bundle for a game (§6 "LLM
// provider").
type PredictionRequest struct {
	ExpertID        uuid.UUID
	RunID           uuid.UUID
	View            personality.FilteredView
	Memories        []model.Scored
	ProfileVersion  int
	SchemaCategories []string
}

// Generator is the pluggable LLM boundary (§1 "out of scope"; §6 "LLM
// provider"). Its response must be parseable into a PredictionBundle;
// Agent.Predict validates the result before returning it.
type Generator interface {
	GeneratePrediction(ctx context.Context, req PredictionRequest) (model.PredictionBundle, error)
}

// ReflectionResult is an expert's post-outcome reflection (§4.3 "reflect").
// When reflection is disabled by run configuration, BuildMinimalReflection
// still produces one of these so the Learning Coordinator has a consistent
// input (§9 open question).
type ReflectionResult struct {
	LessonsLearned  []string
	ContextualNotes []string
	EmotionalState  model.EmotionalState
}

// Agent wraps a Generator with the memory-influence confidence adjustment
// rules and schema validation (§4.3).
type Agent struct {
	gen Generator
}

// New constructs an Agent around a Generator.
func New(gen Generator) *Agent {
	return &Agent{gen: gen}
}

// Predict produces a schema-valid PredictionBundle for one expert. The raw
// generator output's OverallConfidence is adjusted per the memory-influence
// contract before the bundle is validated and returned (§4.3).
func (a *Agent) Predict(ctx context.Context, req PredictionRequest) (model.PredictionBundle, error) {
	if a.gen == nil {
		return model.PredictionBundle{}, fmt.Errorf("experts: no generator configured: %w", cerrors.ErrInvariantBreach)
	}

	bundle, err := a.gen.GeneratePrediction(ctx, req)
	if err != nil {
		return model.PredictionBundle{}, fmt.Errorf("experts: generate prediction: %w", err)
	}

	adj := MemoryAdjustment(bundle.OverallConfidence, req.Memories)
	bundle.OverallConfidence = adj.FinalConfidence
	for cat, assertion := range bundle.Assertions {
		assertion.Confidence = clampFinal(assertion.Confidence + adj.Adjustment)
		bundle.Assertions[cat] = assertion
	}

	if err := schema.Validate(bundle); err != nil {
		bundle.Status = model.BundleSchemaRejected
		return bundle, err
	}
	bundle.Status = model.BundleValid
	bundle.ContentHash = contentHash(bundle)
	return bundle, nil
}

// contentHash is the bundle's tamper-evident identity, covering every
// field an audit replay must reproduce exactly (§4.5 audit trail).
func contentHash(b model.PredictionBundle) string {
	fields := []string{
		b.ExpertID.String(), b.GameID, b.UDVContentHash,
		b.Pick, fmt.Sprintf("%.4f", b.Spread), fmt.Sprintf("%.4f", b.Total), fmt.Sprintf("%.4f", b.Margin),
		fmt.Sprintf("%.4f", b.OverallConfidence),
	}
	for _, cat := range sortedCategories(b.Assertions) {
		a := b.Assertions[cat]
		fields = append(fields, cat, fmt.Sprintf("%v", a.Value), fmt.Sprintf("%.4f", a.Confidence))
	}
	return integrity.ComputeHash(fields...)
}

func sortedCategories(assertions map[string]model.Assertion) []string {
	cats := make([]string, 0, len(assertions))
	for cat := range assertions {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// MemoryAdjustment applies the memory-influence rules (§4.3) to a raw
// confidence value, returning the bounded adjustment and the reasons that
// contributed to it. The combined adjustment is clamped to
// ±memoryAdjustmentBound before being applied and the final value is
// clamped to [0.10, 0.95].
func MemoryAdjustment(raw float64, memories []model.Scored) model.ConfidenceMemoryAdjustment {
	out := model.ConfidenceMemoryAdjustment{RawConfidence: raw}
	if len(memories) == 0 {
		out.FinalConfidence = clampFinal(raw)
		return out
	}

	successRate := successRate(memories)
	var adjustment float64

	switch {
	case successRate > 0.7:
		adjustment += 0.05
		out.Reasons = append(out.Reasons, "memory success rate > 0.7")
	case successRate < 0.3:
		adjustment -= 0.05
		out.Reasons = append(out.Reasons, "memory success rate < 0.3")
	}

	wins, losses := countOutcomes(memories)
	if raw > 0.7 {
		switch {
		case wins > losses:
			adjustment += 0.03
			out.Reasons = append(out.Reasons, "high base confidence with majority similar wins")
		case losses > wins:
			adjustment -= 0.03
			out.Reasons = append(out.Reasons, "high base confidence with majority similar losses")
		}
	}

	if len(memories) >= 5 {
		consistency := consistency(memories)
		if consistency > 0.8 {
			if wins >= losses {
				adjustment += 0.02
			} else {
				adjustment -= 0.02
			}
			out.Reasons = append(out.Reasons, fmt.Sprintf("%d memories with %.0f%% consistency", len(memories), consistency*100))
		}
	}

	adjustment = clampAdjustment(adjustment)
	out.Adjustment = adjustment
	out.FinalConfidence = clampFinal(raw + adjustment)
	return out
}

// memoryOutcome reports whether a memory's recorded outcome was a success.
// A memory without an explicit "correct" key in its Outcome map is excluded
// from the win/loss tally (neither adds to wins nor losses), matching the
// append-only, best-effort nature of the memory substrate.
func memoryOutcome(m model.EpisodicMemory) (wasSuccess bool, known bool) {
	v, ok := m.Outcome["correct"]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func countOutcomes(memories []model.Scored) (wins, losses int) {
	for _, s := range memories {
		if ok, known := memoryOutcome(s.Memory); known {
			if ok {
				wins++
			} else {
				losses++
			}
		}
	}
	return wins, losses
}

func successRate(memories []model.Scored) float64 {
	wins, losses := countOutcomes(memories)
	total := wins + losses
	if total == 0 {
		return 0.5
	}
	return float64(wins) / float64(total)
}

// consistency is the fraction of decided memories that agree with the
// majority outcome direction.
func consistency(memories []model.Scored) float64 {
	wins, losses := countOutcomes(memories)
	total := wins + losses
	if total == 0 {
		return 0
	}
	if wins >= losses {
		return float64(wins) / float64(total)
	}
	return float64(losses) / float64(total)
}

func clampAdjustment(a float64) float64 {
	switch {
	case a > memoryAdjustmentBound:
		return memoryAdjustmentBound
	case a < -memoryAdjustmentBound:
		return -memoryAdjustmentBound
	default:
		return a
	}
}

func clampFinal(c float64) float64 {
	switch {
	case c < finalConfidenceFloor:
		return finalConfidenceFloor
	case c > finalConfidenceCeil:
		return finalConfidenceCeil
	default:
		return c
	}
}

// Reflect derives a reflection record from a settled bundle and its
// outcome (§4.3 "reflect(bundle, outcome) → reasoning update + lessons").
// Lessons are short, factual observations keyed off which key factors the
// bundle leaned on and whether the pick landed.
func Reflect(bundle model.PredictionBundle, outcome map[string]any, confidenceDelta float64) ReflectionResult {
	correct, _ := outcome["correct"].(bool)

	var lessons []string
	if correct {
		lessons = append(lessons, fmt.Sprintf("pick %q held on %s", bundle.Pick, bundle.GameID))
	} else {
		lessons = append(lessons, fmt.Sprintf("pick %q missed on %s", bundle.Pick, bundle.GameID))
	}

	for _, name := range topFactorNames(bundle, 3) {
		if correct {
			lessons = append(lessons, fmt.Sprintf("factor %q supported a correct call", name))
		} else {
			lessons = append(lessons, fmt.Sprintf("factor %q failed to predict the outcome", name))
		}
	}

	return ReflectionResult{
		LessonsLearned: lessons,
		EmotionalState: emotionalStateFor(correct, confidenceDelta),
	}
}

// BuildMinimalReflection produces the consistent-input reflection record
// required when post-game reflection is disabled by run configuration
// (§9 open question: "the system MUST still emit a minimal reflection
// record so the learning coordinator has a consistent input").
func BuildMinimalReflection(bundle model.PredictionBundle, outcome map[string]any) ReflectionResult {
	correct, _ := outcome["correct"].(bool)
	return ReflectionResult{
		LessonsLearned: []string{fmt.Sprintf("reflection disabled: pick %q vs outcome recorded", bundle.Pick)},
		EmotionalState: emotionalStateFor(correct, 0),
	}
}

func emotionalStateFor(correct bool, confidenceDelta float64) model.EmotionalState {
	switch {
	case correct && confidenceDelta >= 0:
		return model.EmotionVindication
	case correct:
		return model.EmotionSatisfaction
	case !correct && confidenceDelta < -0.2:
		return model.EmotionDevastation
	case !correct:
		return model.EmotionDisappointment
	default:
		return model.EmotionNeutral
	}
}

// topFactorNames returns up to n key-factor names across a bundle's
// assertions, ordered by descending weight then name for determinism.
func topFactorNames(bundle model.PredictionBundle, n int) []string {
	type named struct {
		name   string
		weight float64
	}
	seen := make(map[string]float64)
	for _, a := range bundle.Assertions {
		for _, kf := range a.KeyFactors {
			if kf.Weight > seen[kf.Name] {
				seen[kf.Name] = kf.Weight
			}
		}
	}
	all := make([]named, 0, len(seen))
	for name, w := range seen {
		all = append(all, named{name, w})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].weight != all[j].weight {
			return all[i].weight > all[j].weight
		}
		return all[i].name < all[j].name
	})
	if len(all) > n {
		all = all[:n]
	}
	names := make([]string, len(all))
	for i, v := range all {
		names[i] = v.name
	}
	return names
}

// ReasoningFactorsFromBundle extracts weighted, confidence-scored factors
// from a bundle for the Reasoning Chain Log (§4.5), aggregating duplicate
// factor names across assertions by their max weight and mean confidence.
func ReasoningFactorsFromBundle(bundle model.PredictionBundle) []model.ReasoningFactor {
	type acc struct {
		weight     float64
		confSum    float64
		confCount int
	}
	agg := make(map[string]*acc)
	for _, a := range bundle.Assertions {
		for _, kf := range a.KeyFactors {
			e, ok := agg[kf.Name]
			if !ok {
				e = &acc{}
				agg[kf.Name] = e
			}
			if kf.Weight > e.weight {
				e.weight = kf.Weight
			}
			e.confSum += a.Confidence
			e.confCount++
		}
	}
	names := make([]string, 0, len(agg))
	for name := range agg {
		names = append(names, name)
	}
	sort.Strings(names)

	factors := make([]model.ReasoningFactor, 0, len(names))
	for _, name := range names {
		e := agg[name]
		conf := 0.0
		if e.confCount > 0 {
			conf = e.confSum / float64(e.confCount)
		}
		factors = append(factors, model.ReasoningFactor{Name: name, Weight: e.weight, Confidence: conf})
	}
	return factors
}

// NextSequenceNumber returns the sequence number a new bundle for the same
// (expert, game) should carry: 1 for the first prediction, else prior+1
// (§3 PredictionBundle lifecycle).
func NextSequenceNumber(prior *model.PredictionBundle) int {
	if prior == nil {
		return 1
	}
	return prior.SequenceNumber + 1
}

// AdaptiveK scales the default memory retrieval K downward under latency
// pressure (§4.3 "K adaptive based on latency", §4.4 step 5). budget is the
// per-agent latency budget; elapsed is time already spent before the
// memory-retrieval step. K never drops below 1.
func AdaptiveK(defaultK int, budget, elapsed time.Duration) int {
	if budget <= 0 || elapsed <= 0 {
		return defaultK
	}
	remaining := budget - elapsed
	if remaining <= 0 {
		return 1
	}
	ratio := float64(remaining) / float64(budget)
	k := int(float64(defaultK) * ratio)
	if k < 1 {
		return 1
	}
	return k
}
