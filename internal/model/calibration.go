package model

import "github.com/google/uuid"

// CalibrationKind distinguishes the two calibration representations a
// category may use (§3).
type CalibrationKind string

const (
	CalibrationBeta CalibrationKind = "beta" // binary/categorical outcomes
	CalibrationEMA  CalibrationKind = "ema"  // numeric outcomes
)

// CalibrationState tracks one expert's calibration for one prediction
// category (§3). Binary/categorical categories use a Beta(α, β) posterior
// starting from the uniform prior Beta(1,1); numeric categories use an
// exponential moving average against domain-specific (μ, σ) priors.
type CalibrationState struct {
	ExpertID uuid.UUID       `json:"expert_id"`
	RunID    uuid.UUID       `json:"run_id"`
	Category string          `json:"category"`
	Kind     CalibrationKind `json:"kind"`

	Alpha float64 `json:"alpha"` // Beta shape, kind=beta
	Beta  float64 `json:"beta"`  // Beta shape, kind=beta

	Mean   float64 `json:"mean"`   // EMA mean, kind=ema
	StdDev float64 `json:"stddev"` // EMA stddev, kind=ema

	FactorWeightMultiplier float64 `json:"factor_weight_multiplier"`

	SampleCount int `json:"sample_count"`
}

// NewBetaPrior returns the uniform Beta(1,1) prior calibration state for a
// binary/categorical category (§3).
func NewBetaPrior(expertID, runID uuid.UUID, category string) CalibrationState {
	return CalibrationState{
		ExpertID: expertID,
		RunID:    runID,
		Category: category,
		Kind:     CalibrationBeta,
		Alpha:    1,
		Beta:     1,
		FactorWeightMultiplier: 1.0,
	}
}

// NewEMAPrior returns an EMA calibration state seeded with a domain-specific
// (mean, stddev) prior for a numeric category (§3).
func NewEMAPrior(expertID, runID uuid.UUID, category string, mean, stddev float64) CalibrationState {
	return CalibrationState{
		ExpertID: expertID,
		RunID:    runID,
		Category: category,
		Kind:     CalibrationEMA,
		Mean:     mean,
		StdDev:   stddev,
		FactorWeightMultiplier: 1.0,
	}
}

// Update folds in one observed outcome. For Beta states, correct=true
// increments Alpha else Beta. For EMA states, value is blended in with
// smoothing factor alpha (default 0.1 if alpha<=0).
func (c *CalibrationState) Update(correct bool, value, alpha float64) {
	switch c.Kind {
	case CalibrationBeta:
		if correct {
			c.Alpha++
		} else {
			c.Beta++
		}
	case CalibrationEMA:
		if alpha <= 0 {
			alpha = 0.1
		}
		delta := value - c.Mean
		c.Mean += alpha * delta
		c.StdDev = (1-alpha)*c.StdDev + alpha*absFloat(delta)
	}
	c.SampleCount++
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// BrierScore computes 1 − Brier score on confidences, used by the Council
// Selector's composite score (§4.7 "calibration").
func (c CalibrationState) BrierScore() float64 {
	if c.Kind != CalibrationBeta {
		return 0
	}
	total := c.Alpha + c.Beta
	if total <= 0 {
		return 0
	}
	p := c.Alpha / total
	// Expected Brier for a Beta posterior mean prediction against itself.
	return 1 - (p*(1-p))*2
}
