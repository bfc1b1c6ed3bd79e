// Package betting implements the Bet Sizer, Placer, Settler, and Bankroll
// Manager (§4.9, §4.10): the virtual-bankroll accountability loop that
// forces stated confidence into skin-in-the-game wagers.
package betting

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gridiron/council/internal/cerrors"
	"github.com/gridiron/council/internal/integrity"
	"github.com/gridiron/council/internal/model"
	"github.com/gridiron/council/internal/personality"
)

// Sizing constants (§4.9).
const (
	minEdge             = 0.02
	minStakeDollars     = 5.0
	maxStakeBankrollPct = 0.30
	highConfidenceFloor = 0.70 // §4.9 confidence-to-bet coupling rule
)

// Settlement thresholds (§4.11, shared with the learning coordinator).
const (
	spreadZeroThreshold = 14.0
	totalZeroThreshold  = 20.0
)

// DecimalOdds converts American odds to decimal odds. American odds of 0
// is invalid input and rejected (§8 boundary behavior 9).
func DecimalOdds(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("betting: american odds of 0 is invalid")
	}
	if american > 0 {
		return 1 + float64(american)/100.0, nil
	}
	return 1 + 100.0/float64(-american), nil
}

// ImpliedProbability derives the market's implied win probability from
// American odds (§4.9 step 1).
func ImpliedProbability(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("betting: american odds of 0 is invalid")
	}
	if american > 0 {
		return 100.0 / (float64(american) + 100.0), nil
	}
	return float64(-american) / (float64(-american) + 100.0), nil
}

// KellyFraction computes f* = (p·b − (1−p)) / b (§4.9 step 3), where b is
// decimal odds minus one.
func KellyFraction(p, decimalOdds float64) float64 {
	b := decimalOdds - 1
	if b <= 0 {
		return 0
	}
	return (p*b - (1 - p)) / b
}

// SizeRequest carries the Bet Sizer's inputs (§4.9).
type SizeRequest struct {
	RunID        uuid.UUID
	ExpertID     uuid.UUID
	GameID       string
	Category     string
	Prediction   string
	Confidence   float64
	AmericanOdds int
	Archetype    model.Archetype
	Bankroll     decimal.Decimal
	MaxStakeCap  decimal.Decimal // configured_cap; zero means no additional cap beyond the 30% rule
	Reasoning    string
}

// Size runs the full Bet Sizer algorithm (§4.9) and returns either a
// pending VirtualBet or a BetRefusal explaining why no bet was placed.
// Exactly one of the two return values is non-nil.
func Size(req SizeRequest, now time.Time) (*model.VirtualBet, *model.BetRefusal) {
	refuse := func(reason string) (*model.VirtualBet, *model.BetRefusal) {
		return nil, &model.BetRefusal{
			ID:         uuid.New(),
			RunID:      req.RunID,
			ExpertID:   req.ExpertID,
			GameID:     req.GameID,
			Category:   req.Category,
			Confidence: req.Confidence,
			Reason:     reason,
			CreatedAt:  now,
		}
	}

	decOdds, err := DecimalOdds(req.AmericanOdds)
	if err != nil {
		return refuse(err.Error())
	}
	q, err := ImpliedProbability(req.AmericanOdds)
	if err != nil {
		return refuse(err.Error())
	}

	edge := req.Confidence - q
	if edge < minEdge {
		return refuse(fmt.Sprintf("edge %.4f below minimum %.2f", edge, minEdge))
	}

	f := KellyFraction(req.Confidence, decOdds)
	mult := personality.Multiplier(req.Archetype)
	f *= mult
	if f <= 0 {
		return refuse("kelly fraction non-positive after personality scaling")
	}

	bankrollFloat, _ := req.Bankroll.Float64()
	if bankrollFloat <= 0 {
		return refuse("bankroll exhausted")
	}

	stakeRaw := f * bankrollFloat
	maxStake := maxStakeBankrollPct * bankrollFloat
	if !req.MaxStakeCap.IsZero() {
		capFloat, _ := req.MaxStakeCap.Float64()
		if capFloat < maxStake {
			maxStake = capFloat
		}
	}

	stake := stakeRaw
	if stake > maxStake {
		stake = maxStake
	}
	if stake < minStakeDollars {
		return refuse(fmt.Sprintf("stake %.2f below minimum %.2f", stake, minStakeDollars))
	}

	stakeDec := decimal.NewFromFloat(stake).Round(2)
	payout, _ := Payout(req.AmericanOdds, stakeDec, true)

	bet := &model.VirtualBet{
		ID:                    uuid.New(),
		RunID:                 req.RunID,
		ExpertID:              req.ExpertID,
		GameID:                req.GameID,
		Category:              req.Category,
		Prediction:            req.Prediction,
		Confidence:            req.Confidence,
		AmericanOdds:          req.AmericanOdds,
		Stake:                 stakeDec,
		ImpliedProbability:    q,
		Edge:                  edge,
		KellyFraction:         f,
		PersonalityMultiplier: mult,
		PotentialPayout:       payout,
		Status:                model.BetPending,
		BankrollBefore:        req.Bankroll,
		Reasoning:             req.Reasoning,
		PlacedAt:              now,
	}
	bet.ContentHash = betContentHash(bet)
	return bet, nil
}

// betContentHash is the bet's tamper-evident identity (§4.5 audit trail,
// shared scheme with prediction bundles).
func betContentHash(b *model.VirtualBet) string {
	return integrity.ComputeHash(
		b.ExpertID.String(), b.GameID, b.Category, b.Prediction,
		fmt.Sprintf("%d", b.AmericanOdds), b.Stake.String(), fmt.Sprintf("%.4f", b.Confidence),
	)
}

// RequiresDecision reports whether the confidence-to-bet coupling rule
// applies (§4.9): confidence ≥ 0.70 must resolve to either a placed bet or
// an explicit refusal — never silence.
func RequiresDecision(confidence float64) bool {
	return confidence >= highConfidenceFloor
}

// Payout computes the net profit for American odds a and stake s
// (§4.10). win=true returns the winnings excluding the returned stake;
// win=false returns the loss (negative of stake).
func Payout(americanOdds int, stake decimal.Decimal, win bool) (decimal.Decimal, error) {
	if americanOdds == 0 {
		return decimal.Zero, fmt.Errorf("betting: american odds of 0 is invalid")
	}
	if !win {
		return stake.Neg(), nil
	}
	if americanOdds > 0 {
		return stake.Mul(decimal.NewFromInt(int64(americanOdds))).Div(decimal.NewFromInt(100)), nil
	}
	return stake.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(-americanOdds))), nil
}

// Placer is the storage dependency for persisting bets and bankrolls.
type Placer interface {
	InsertBet(ctx context.Context, bet model.VirtualBet) error
	InsertRefusal(ctx context.Context, refusal model.BetRefusal) error
	GetBankroll(ctx context.Context, expertID, runID uuid.UUID) (model.Bankroll, error)
	SaveBankroll(ctx context.Context, b model.Bankroll) error
}

// PlaceBet sizes and persists a bet (or refusal) against the expert's
// current bankroll, enforcing the elimination latch (§4.10 "No
// resurrection"): a bankroll with Active=false can never place another
// bet within the run.
func PlaceBet(ctx context.Context, store Placer, req SizeRequest, now time.Time) (*model.VirtualBet, *model.BetRefusal, error) {
	bankroll, err := store.GetBankroll(ctx, req.ExpertID, req.RunID)
	if err != nil {
		return nil, nil, fmt.Errorf("betting: load bankroll: %w", err)
	}
	if !bankroll.Active {
		return nil, nil, cerrors.ErrBankrollUnderflow
	}

	req.Bankroll = bankroll.CurrentUnits
	bet, refusal := Size(req, now)
	if refusal != nil {
		if err := store.InsertRefusal(ctx, *refusal); err != nil {
			return nil, nil, fmt.Errorf("betting: persist refusal: %w", err)
		}
		return nil, refusal, nil
	}

	if err := store.InsertBet(ctx, *bet); err != nil {
		return nil, nil, fmt.Errorf("betting: persist bet: %w", err)
	}
	return bet, nil, nil
}

// Outcome carries the observed game result needed to settle bets and score
// predictions (§4.10, §4.11).
type Outcome struct {
	WinnerCorrect bool
	SpreadError   float64 // |actual − predicted|, in points
	TotalError    float64 // |actual − predicted|, in points
	Push          bool
}

// Settle resolves a pending bet against an outcome (§4.10) and recomputes
// the expert's bankroll. It is idempotent: settling an already-settled bet
// is a no-op and returns the bet unchanged (§8 law 6).
func Settle(bet model.VirtualBet, bankroll model.Bankroll, outcome Outcome, now time.Time) (model.VirtualBet, model.Bankroll, error) {
	if bet.Status != model.BetPending {
		return bet, bankroll, nil
	}

	var payout decimal.Decimal
	var status model.BetStatus
	switch {
	case outcome.Push:
		payout = decimal.Zero
		status = model.BetPush
	case outcome.WinnerCorrect:
		p, err := Payout(bet.AmericanOdds, bet.Stake, true)
		if err != nil {
			return bet, bankroll, err
		}
		payout = p
		status = model.BetWon
	default:
		p, err := Payout(bet.AmericanOdds, bet.Stake, false)
		if err != nil {
			return bet, bankroll, err
		}
		payout = p
		status = model.BetLost
	}

	bet.Status = status
	bet.RealizedPayout = payout
	bet.BankrollBefore = bankroll.CurrentUnits
	settledAt := now
	bet.SettledAt = &settledAt

	bankroll.CurrentUnits = bankroll.CurrentUnits.Add(payout)
	bet.BankrollAfter = bankroll.CurrentUnits

	bankroll.TotalBets++
	if status == model.BetWon {
		bankroll.WinningBets++
	}
	updateStreaks(&bankroll, status)

	bankroll.Recompute(now)
	return bet, bankroll, nil
}

func updateStreaks(b *model.Bankroll, status model.BetStatus) {
	switch status {
	case model.BetWon:
		b.WinStreak++
		b.LoseStreak = 0
	case model.BetLost:
		b.LoseStreak++
		b.WinStreak = 0
	}
}

// ReturnSeries computes per-bet fractional returns (realized payout over
// bankroll_before) in chronological order, the shared input to Volatility,
// SharpeLike, and MaxDrawdown.
func ReturnSeries(settled []model.VirtualBet) []float64 {
	returns := make([]float64, 0, len(settled))
	for _, b := range settled {
		if b.Status == model.BetPending {
			continue
		}
		before, _ := b.BankrollBefore.Float64()
		if before == 0 {
			continue
		}
		payout, _ := b.RealizedPayout.Float64()
		returns = append(returns, payout/before)
	}
	return returns
}

// Volatility returns the sample standard deviation of a return series
// (§4.10 "stdev of last N returns").
func Volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)
	var sumSq float64
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(returns)-1))
}

// SharpeLike returns mean(returns)/stdev(returns) (§4.10), zero when
// volatility is zero.
func SharpeLike(returns []float64) float64 {
	vol := Volatility(returns)
	if vol == 0 {
		return 0
	}
	return meanOf(returns) / vol
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// MaxDrawdown returns the largest peak-to-trough decline across a
// chronological bankroll-units series, as a fraction of the peak (§4.10).
func MaxDrawdown(units []decimal.Decimal) float64 {
	if len(units) == 0 {
		return 0
	}
	peak, _ := units[0].Float64()
	var worst float64
	for _, u := range units {
		v, _ := u.Float64()
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - v) / peak
		if dd > worst {
			worst = dd
		}
	}
	return worst
}

// ScoreComponent decays linearly from 1 at zero error to 0 at threshold,
// floored at zero (§4.11 "zeroed at documented thresholds").
func ScoreComponent(errorMagnitude, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	c := 1 - math.Abs(errorMagnitude)/threshold
	if c < 0 {
		return 0
	}
	return c
}

// PredictionScore computes the learning-coordinator prediction score
// (§4.11 step 1): `0.4·winner_correct + 0.3·spread_component +
// 0.3·total_component`.
func PredictionScore(outcome Outcome) float64 {
	winnerTerm := 0.0
	if outcome.WinnerCorrect {
		winnerTerm = 1.0
	}
	spreadTerm := ScoreComponent(outcome.SpreadError, spreadZeroThreshold)
	totalTerm := ScoreComponent(outcome.TotalError, totalZeroThreshold)
	return 0.4*winnerTerm + 0.3*spreadTerm + 0.3*totalTerm
}
