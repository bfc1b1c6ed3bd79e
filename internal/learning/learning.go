// Package learning implements the Learning Coordinator (§4.11): scoring a
// settled prediction, adjusting factor weights, queuing the resulting
// episodic memory write, and constructing peer-learning broadcasts.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gridiron/council/internal/betting"
	"github.com/gridiron/council/internal/model"
)

// typeMultiplier scales emotional intensity into a memory's vividness by
// memory type (§4.11 step 3 "vividness = emotional_intensity ·
// type_multiplier"). Outcome and upset memories are the most salient;
// routine pattern recognition the least.
var typeMultiplier = map[model.MemoryType]float64{
	model.MemoryUpsetDetection:     1.2,
	model.MemoryFailureAnalysis:    1.1,
	model.MemoryPredictionOutcome:  1.0,
	model.MemoryConsensusDeviation: 0.9,
	model.MemoryLearningMoment:     0.85,
	model.MemoryPatternRecognition: 0.7,
}

// TypeMultiplier returns the vividness multiplier for a memory type,
// defaulting to 1.0 for an unrecognized type.
func TypeMultiplier(t model.MemoryType) float64 {
	if m, ok := typeMultiplier[t]; ok {
		return m
	}
	return 1.0
}

// emotionalStateFor maps (score bucket, confidence-delta direction) to
// an EmotionalState (§4.11 step 3 "fixed table").
func emotionalStateFor(score, absConfidenceDelta float64) model.EmotionalState {
	switch {
	case score >= 0.9 && absConfidenceDelta >= 0.15:
		return model.EmotionEuphoria
	case score >= 0.7:
		return model.EmotionSatisfaction
	case score <= 0.1 && absConfidenceDelta >= 0.15:
		return model.EmotionDevastation
	case score <= 0.3:
		return model.EmotionDisappointment
	case absConfidenceDelta >= 0.25:
		return model.EmotionSurprise
	default:
		return model.EmotionNeutral
	}
}

// EmotionalIntensity derives the memory's emotional_intensity from the
// distance of score from the neutral midpoint, amplified by confidence
// swing — the same two inputs that drive emotionalStateFor.
func EmotionalIntensity(score, absConfidenceDelta float64) float64 {
	base := 2 * absFloat(score-0.5) // 0 at score=0.5, 1 at score=0 or 1
	intensity := base*0.7 + minFloat(absConfidenceDelta, 1.0)*0.3
	if intensity > 1 {
		return 1
	}
	if intensity < 0 {
		return 0
	}
	return intensity
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// FactorAdjustment computes the §4.11 step 2 per-factor weight delta:
// `adjustment = (score − 0.5) · learning_rate · factor_weight`.
func FactorAdjustment(score, learningRate, factorWeight float64) float64 {
	return (score - 0.5) * learningRate * factorWeight
}

// ApplyWeightAdjustments returns a copy of weights with each named factor's
// weight adjusted by (score−0.5)·learningRate·currentWeight, bounded to
// [0,1] (§4.11 step 2). Unknown factor names are skipped — there is
// nothing to adjust.
func ApplyWeightAdjustments(weights model.FactorWeights, factors []string, score, learningRate float64) (model.FactorWeights, []model.FactorAdjustment) {
	out := make(model.FactorWeights, len(weights))
	for k, v := range weights {
		out[k] = v
	}

	adjustments := make([]model.FactorAdjustment, 0, len(factors))
	for _, name := range factors {
		current, ok := out[name]
		if !ok {
			continue
		}
		delta := FactorAdjustment(score, learningRate, current)
		updated := current + delta
		if updated < 0 {
			updated = 0
		}
		if updated > 1 {
			updated = 1
		}
		out[name] = updated
		adjustments = append(adjustments, model.FactorAdjustment{Factor: name, Adjustment: delta})
	}
	return out, adjustments
}

// Result is the full per-expert output of scoring one settled prediction:
// the LearningEvent row, the updated Expert weights, and the queued
// memory write.
type Result struct {
	Event   model.LearningEvent
	Expert  model.Expert
	Memory  model.EpisodicMemory
	Peer    *model.PeerLearningBroadcast
}

// Process runs the full Learning Coordinator pipeline for one settled
// prediction (§4.11): score, adjust weights, build the queued memory
// write, and construct a peer-learning broadcast when the event qualifies.
func Process(expert model.Expert, runID uuid.UUID, gameID string, bundleID uuid.UUID, outcome betting.Outcome, confidenceDelta float64, factors []string, now time.Time) Result {
	score := betting.PredictionScore(outcome)
	absConfDelta := absFloat(confidenceDelta)

	updatedWeights, adjustments := ApplyWeightAdjustments(expert.Weights, factors, score, expert.LearningRate)

	updatedExpert := expert.Clone()
	updatedExpert.Weights = updatedWeights
	updatedExpert.Version++
	updatedExpert.UpdatedAt = now

	isPeerCandidate := score > 0.7 || score < 0.3
	priority := model.PriorityFor(score, isPeerCandidate)

	event := model.LearningEvent{
		ID:                    uuid.New(),
		RunID:                 runID,
		ExpertID:              expert.ID,
		GameID:                gameID,
		BundleID:              bundleID,
		Score:                 score,
		WinnerCorrect:         outcome.WinnerCorrect,
		SpreadComponent:       betting.ScoreComponent(outcome.SpreadError, 14.0),
		TotalComponent:        betting.ScoreComponent(outcome.TotalError, 20.0),
		FactorAdjustments:     adjustments,
		Priority:              priority,
		PeerLearningCandidate: isPeerCandidate,
		CreatedAt:             now,
	}

	emotion := emotionalStateFor(score, absConfDelta)
	intensity := EmotionalIntensity(score, absConfDelta)
	memType := model.MemoryLearningMoment
	if !outcome.WinnerCorrect && score < 0.3 {
		memType = model.MemoryFailureAnalysis
	}

	mem := model.EpisodicMemory{
		ID:                 uuid.Nil, // assigned deterministically by memory.Store.Store
		RunID:              runID,
		ExpertID:           expert.ID,
		GameID:             gameID,
		Type:               memType,
		EmotionalState:     emotion,
		EmotionalIntensity: intensity,
		Vividness:          intensity * TypeMultiplier(memType),
		Decay:              1.0,
		CreatedAt:          now,
	}

	var peer *model.PeerLearningBroadcast
	if isPeerCandidate {
		outcomeLabel := "loss"
		if outcome.WinnerCorrect {
			outcomeLabel = "win"
		}
		peer = &model.PeerLearningBroadcast{
			SourceExpertID: expert.ID,
			RunID:          runID,
			GameID:         gameID,
			Factors:        adjustments,
			Outcome:        outcomeLabel,
			Score:          score,
		}
	}

	return Result{Event: event, Expert: updatedExpert, Memory: mem, Peer: peer}
}

// MemoryWriter is the coordinator's dependency for queuing the episodic
// memory write produced by a learning event.
type MemoryWriter interface {
	Store(ctx context.Context, m model.EpisodicMemory) (uuid.UUID, error)
}

// Broadcaster is the coordinator's dependency for publishing peer-learning
// candidates (§9 "Cyclic references"): only ids and factor deltas cross
// the wire, never direct object references.
type Broadcaster interface {
	Broadcast(ctx context.Context, b model.PeerLearningBroadcast) error
}

// Coordinator drains queued Results: persisting the memory write and,
// where applicable, publishing the peer-learning broadcast.
type Coordinator struct {
	memory  MemoryWriter
	peers   Broadcaster
	logger  *slog.Logger
	queue   chan Result
	maxSize int
}

// NewCoordinator constructs a Coordinator with a bounded backlog. When the
// backlog fills, Enqueue drops Normal-priority events first and never
// High/VeryHigh (§5 backpressure policy).
func NewCoordinator(memory MemoryWriter, peers Broadcaster, logger *slog.Logger, queueSize int) *Coordinator {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Coordinator{memory: memory, peers: peers, logger: logger, queue: make(chan Result, queueSize), maxSize: queueSize}
}

// Enqueue offers a Result to the drain worker. A Normal-priority event
// never blocks: when the queue is full it is dropped and the drop logged.
// Any other priority (Medium, High, VeryHigh) waits for room in the queue,
// blocking the caller's goroutine, until ctx is cancelled, in which case
// the event is lost and an error is logged.
func (c *Coordinator) Enqueue(ctx context.Context, r Result) {
	select {
	case c.queue <- r:
		return
	default:
	}

	if r.Event.Priority == model.PriorityNormal {
		c.logger.Warn("learning: dropping normal-priority event under backpressure",
			"expert_id", r.Event.ExpertID, "game_id", r.Event.GameID)
		return
	}

	select {
	case c.queue <- r:
	case <-ctx.Done():
		c.logger.Error("learning: context cancelled waiting to enqueue high-priority event",
			"expert_id", r.Event.ExpertID, "priority", r.Event.Priority)
	}
}

// Run drains the queue until ctx is cancelled, persisting each memory
// write and publishing peer-learning broadcasts as they arrive.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-c.queue:
			if err := c.drain(ctx, r); err != nil {
				c.logger.Error("learning: failed to drain event", "expert_id", r.Event.ExpertID, "error", err)
			}
		}
	}
}

// DrainOne blocks for a single queued Result and persists it, returning
// once that one event is handled. Unlike Run (a continuous server-style
// drain loop), this lets a batch caller — e.g. the CLI's settle command —
// flush a known number of enqueued events synchronously before exiting.
func (c *Coordinator) DrainOne(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-c.queue:
		return c.drain(ctx, r)
	}
}

func (c *Coordinator) drain(ctx context.Context, r Result) error {
	if _, err := c.memory.Store(ctx, r.Memory); err != nil {
		return fmt.Errorf("learning: store memory: %w", err)
	}
	if r.Peer != nil && c.peers != nil {
		if err := c.peers.Broadcast(ctx, *r.Peer); err != nil {
			return fmt.Errorf("learning: broadcast peer event: %w", err)
		}
	}
	return nil
}
