package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetStatus is the lifecycle state of a VirtualBet (§3).
type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetWon     BetStatus = "won"
	BetLost    BetStatus = "lost"
	BetPush    BetStatus = "push"
)

// VirtualBet is a single Kelly-sized wager placed against a prediction
// (§3). Stake and payout fields use decimal.Decimal to avoid float drift
// in the bankroll accountability loop.
type VirtualBet struct {
	ID       uuid.UUID `json:"id"`
	RunID    uuid.UUID `json:"run_id"`
	ExpertID uuid.UUID `json:"expert_id"`
	GameID   string    `json:"game_id"`
	Category string    `json:"category"`

	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`

	AmericanOdds int `json:"american_odds"`

	Stake                   decimal.Decimal `json:"stake"`
	ImpliedProbability      float64         `json:"implied_probability"`
	Edge                    float64         `json:"edge"`
	KellyFraction           float64         `json:"kelly_fraction"`
	PersonalityMultiplier   float64         `json:"personality_multiplier"`
	PotentialPayout         decimal.Decimal `json:"potential_payout"`

	Status          BetStatus        `json:"status"`
	RealizedPayout  decimal.Decimal  `json:"realized_payout"`
	BankrollBefore  decimal.Decimal  `json:"bankroll_before"`
	BankrollAfter   decimal.Decimal  `json:"bankroll_after"`

	Reasoning string `json:"reasoning"`

	ContentHash string `json:"content_hash"`

	PlacedAt  time.Time  `json:"placed_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// BetRefusal is logged in place of a bet when the confidence-to-bet
// coupling rule (§4.9) applies but no bet was placed — e.g. edge below
// threshold, bankroll too low, or bankroll exhausted. Silent non-betting
// on a confidence ≥ 0.70 call is a contract violation; this record is the
// alternative.
type BetRefusal struct {
	ID         uuid.UUID `json:"id"`
	RunID      uuid.UUID `json:"run_id"`
	ExpertID   uuid.UUID `json:"expert_id"`
	GameID     string    `json:"game_id"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
