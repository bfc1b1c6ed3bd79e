package experts

import (
	"context"

	"github.com/google/uuid"

	"github.com/gridiron/council/internal/model"
	"github.com/gridiron/council/internal/schema"
)

// NoopGenerator produces a schema-valid but content-free bundle: every
// required category gets a 50/50 "home" placeholder assertion. Real
// prediction generation is an LLM call (§1 "out of scope"; §6 "LLM
// provider") plugged in via the Generator interface — this keeps the rest
// of the pipeline (validation, memory adjustment, storage, betting,
// learning) runnable without one configured.
type NoopGenerator struct{}

func (NoopGenerator) GeneratePrediction(_ context.Context, req PredictionRequest) (model.PredictionBundle, error) {
	kf := []model.KeyFactor{{Name: "baseline", Weight: 1.0}}
	assertions := make(map[string]model.Assertion, len(schema.RequiredCategories))
	for _, cat := range schema.RequiredCategories {
		assertions[cat] = model.Assertion{
			Category:   cat,
			Value:      "home",
			Confidence: 0.5,
			Reasoning:  "noop generator: no LLM provider configured",
			KeyFactors: kf,
		}
	}
	return model.PredictionBundle{
		ID:                uuid.New(),
		RunID:             req.RunID,
		ExpertID:          req.ExpertID,
		GameID:            req.View.GameID,
		UDVContentHash:    req.View.ViewHash,
		SequenceNumber:    1,
		Pick:              "home",
		Spread:            0,
		Total:             45,
		Margin:            0,
		OverallConfidence: 0.5,
		Assertions:        assertions,
	}, nil
}
