package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EliminationRiskLevel buckets a bankroll's distance from zero (§4.10).
type EliminationRiskLevel string

const (
	RiskSafe     EliminationRiskLevel = "safe"     // > 0.7 of starting units
	RiskWarning  EliminationRiskLevel = "warning"  // 0.4 - 0.7
	RiskDanger   EliminationRiskLevel = "danger"   // 0.15 - 0.4
	RiskCritical EliminationRiskLevel = "critical" // <= 0.15
)

// RiskLevelFor derives the elimination risk level from the ratio of current
// to starting units (§4.10).
func RiskLevelFor(current, starting decimal.Decimal) EliminationRiskLevel {
	if starting.IsZero() {
		return RiskCritical
	}
	ratio, _ := current.Div(starting).Float64()
	switch {
	case ratio > 0.7:
		return RiskSafe
	case ratio > 0.4:
		return RiskWarning
	case ratio > 0.15:
		return RiskDanger
	default:
		return RiskCritical
	}
}

// Bankroll tracks one expert's simulated bankroll within a run (§3).
// current_units is driven exclusively by the settlement path and must
// never go negative; Active flips false exactly when it crosses zero.
type Bankroll struct {
	ExpertID uuid.UUID `json:"expert_id"`
	RunID    uuid.UUID `json:"run_id"`

	StartingUnits decimal.Decimal `json:"starting_units"`
	CurrentUnits  decimal.Decimal `json:"current_units"`
	PeakUnits     decimal.Decimal `json:"peak_units"`

	TotalBets   int     `json:"total_bets"`
	WinningBets int     `json:"winning_bets"`
	ROI         float64 `json:"roi"`

	Volatility float64 `json:"volatility"` // stdev of last N returns
	SharpeLike float64 `json:"sharpe_like"` // mean/stdev of returns
	MaxDrawdown float64 `json:"max_drawdown"`
	WinStreak   int     `json:"win_streak"`
	LoseStreak  int     `json:"lose_streak"`

	Active             bool                 `json:"active"`
	EliminationRiskLevel EliminationRiskLevel `json:"elimination_risk_level"`
	EliminationDate    *time.Time           `json:"elimination_date,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Recompute refreshes PeakUnits and EliminationRiskLevel from CurrentUnits.
// Elimination is latched: once Active is false it never flips back within
// the same run (§4.10 "No resurrection").
func (b *Bankroll) Recompute(now time.Time) {
	if b.CurrentUnits.GreaterThan(b.PeakUnits) {
		b.PeakUnits = b.CurrentUnits
	}
	if !b.StartingUnits.IsZero() {
		roi, _ := b.CurrentUnits.Sub(b.StartingUnits).Div(b.StartingUnits).Float64()
		b.ROI = roi
	}
	b.EliminationRiskLevel = RiskLevelFor(b.CurrentUnits, b.StartingUnits)
	if b.Active && b.CurrentUnits.Sign() <= 0 {
		b.Active = false
		b.EliminationDate = &now
	}
}
