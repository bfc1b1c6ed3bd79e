package betting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron/council/internal/cerrors"
	"github.com/gridiron/council/internal/model"
)

func TestSize_ScenarioA_ConservativeArchetypePositiveEdge(t *testing.T) {
	req := SizeRequest{
		RunID: uuid.New(), ExpertID: uuid.New(), GameID: "g1", Category: "winner",
		Prediction: "home", Confidence: 0.60, AmericanOdds: 120,
		Archetype: model.ArchetypeConservative, Bankroll: decimal.NewFromInt(1000),
	}
	bet, refusal := Size(req, time.Now())
	require.Nil(t, refusal)
	require.NotNil(t, bet)

	assert.InDelta(t, 0.4545, bet.ImpliedProbability, 0.001)
	assert.InDelta(t, 0.1455, bet.Edge, 0.001)
	stake, _ := bet.Stake.Float64()
	assert.InDelta(t, 133.33, stake, 0.1)

	payout, _ := bet.PotentialPayout.Float64()
	assert.InDelta(t, 160.00, payout, 0.1)
}

func TestSize_ScenarioB_CappedAtThirtyPercentBankroll(t *testing.T) {
	req := SizeRequest{
		RunID: uuid.New(), ExpertID: uuid.New(), GameID: "g1", Category: "winner",
		Prediction: "home", Confidence: 0.85, AmericanOdds: -200,
		Archetype: model.ArchetypeScholar, Bankroll: decimal.NewFromInt(500),
	}
	bet, refusal := Size(req, time.Now())
	require.Nil(t, refusal)
	require.NotNil(t, bet)
	stake, _ := bet.Stake.Float64()
	assert.InDelta(t, 150.0, stake, 0.1)
	assert.Equal(t, model.BetPending, bet.Status)
}

func TestSize_RejectsEdgeBelowMinimum(t *testing.T) {
	req := SizeRequest{
		RunID: uuid.New(), ExpertID: uuid.New(), GameID: "g1", Category: "winner",
		Prediction: "home", Confidence: 0.50, AmericanOdds: -200,
		Archetype: model.ArchetypeScholar, Bankroll: decimal.NewFromInt(500),
	}
	bet, refusal := Size(req, time.Now())
	assert.Nil(t, bet)
	require.NotNil(t, refusal)
}

func TestSize_RejectsStakeBelowMinimumFive(t *testing.T) {
	req := SizeRequest{
		RunID: uuid.New(), ExpertID: uuid.New(), GameID: "g1", Category: "winner",
		Prediction: "home", Confidence: 0.55, AmericanOdds: 110,
		Archetype: model.ArchetypeConservative, Bankroll: decimal.NewFromInt(10),
	}
	bet, refusal := Size(req, time.Now())
	assert.Nil(t, bet)
	require.NotNil(t, refusal)
}

func TestDecimalOdds_RejectsZero(t *testing.T) {
	_, err := DecimalOdds(0)
	assert.Error(t, err)
}

func TestImpliedProbability_RejectsZero(t *testing.T) {
	_, err := ImpliedProbability(0)
	assert.Error(t, err)
}

func TestSize_DeterministicForSameInputs(t *testing.T) {
	req := SizeRequest{
		RunID: uuid.New(), ExpertID: uuid.New(), GameID: "g1", Category: "winner",
		Prediction: "home", Confidence: 0.60, AmericanOdds: 120,
		Archetype: model.ArchetypeConservative, Bankroll: decimal.NewFromInt(1000),
	}
	now := time.Now()
	b1, _ := Size(req, now)
	b2, _ := Size(req, now)
	require.NotNil(t, b1)
	require.NotNil(t, b2)
	assert.True(t, b1.Stake.Equal(b2.Stake))
	assert.Equal(t, b1.KellyFraction, b2.KellyFraction)
}

func TestRequiresDecision_ThresholdIsSeventyPercent(t *testing.T) {
	assert.True(t, RequiresDecision(0.70))
	assert.False(t, RequiresDecision(0.69))
}

func TestPayout_PositiveOdds(t *testing.T) {
	p, err := Payout(120, decimal.NewFromInt(100), true)
	require.NoError(t, err)
	f, _ := p.Float64()
	assert.InDelta(t, 120.0, f, 0.001)
}

func TestPayout_NegativeOdds(t *testing.T) {
	p, err := Payout(-200, decimal.NewFromInt(100), true)
	require.NoError(t, err)
	f, _ := p.Float64()
	assert.InDelta(t, 50.0, f, 0.001)
}

func TestPayout_Loss(t *testing.T) {
	p, err := Payout(120, decimal.NewFromInt(100), false)
	require.NoError(t, err)
	f, _ := p.Float64()
	assert.InDelta(t, -100.0, f, 0.001)
}

func TestPayout_RejectsZeroOdds(t *testing.T) {
	_, err := Payout(0, decimal.NewFromInt(100), true)
	assert.Error(t, err)
}

func TestSettle_ScenarioE_EliminationLatch(t *testing.T) {
	bet := model.VirtualBet{
		ID: uuid.New(), AmericanOdds: -110, Stake: decimal.NewFromInt(10), Status: model.BetPending,
	}
	bankroll := model.Bankroll{
		StartingUnits: decimal.NewFromInt(10), CurrentUnits: decimal.NewFromInt(10),
		PeakUnits: decimal.NewFromInt(10), Active: true,
	}
	now := time.Now()
	settledBet, settledBankroll, err := Settle(bet, bankroll, Outcome{WinnerCorrect: false}, now)
	require.NoError(t, err)
	assert.Equal(t, model.BetLost, settledBet.Status)
	assert.True(t, settledBankroll.CurrentUnits.IsZero())
	assert.False(t, settledBankroll.Active)
	require.NotNil(t, settledBankroll.EliminationDate)
}

func TestSettle_IsIdempotent(t *testing.T) {
	bet := model.VirtualBet{ID: uuid.New(), AmericanOdds: 120, Stake: decimal.NewFromInt(100), Status: model.BetWon, RealizedPayout: decimal.NewFromInt(120)}
	bankroll := model.Bankroll{StartingUnits: decimal.NewFromInt(1000), CurrentUnits: decimal.NewFromInt(1120), Active: true}
	b2, br2, err := Settle(bet, bankroll, Outcome{WinnerCorrect: true}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, bet, b2)
	assert.Equal(t, bankroll, br2)
}

func TestSettle_PushRefundsZeroNet(t *testing.T) {
	bet := model.VirtualBet{ID: uuid.New(), AmericanOdds: 110, Stake: decimal.NewFromInt(50), Status: model.BetPending}
	bankroll := model.Bankroll{StartingUnits: decimal.NewFromInt(1000), CurrentUnits: decimal.NewFromInt(1000), PeakUnits: decimal.NewFromInt(1000), Active: true}
	b2, br2, err := Settle(bet, bankroll, Outcome{Push: true}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.BetPush, b2.Status)
	assert.True(t, br2.CurrentUnits.Equal(decimal.NewFromInt(1000)))
}

type fakePlacer struct {
	bankroll model.Bankroll
	bets     []model.VirtualBet
	refusals []model.BetRefusal
}

func (f *fakePlacer) InsertBet(ctx context.Context, bet model.VirtualBet) error {
	f.bets = append(f.bets, bet)
	return nil
}
func (f *fakePlacer) InsertRefusal(ctx context.Context, refusal model.BetRefusal) error {
	f.refusals = append(f.refusals, refusal)
	return nil
}
func (f *fakePlacer) GetBankroll(ctx context.Context, expertID, runID uuid.UUID) (model.Bankroll, error) {
	return f.bankroll, nil
}
func (f *fakePlacer) SaveBankroll(ctx context.Context, b model.Bankroll) error {
	f.bankroll = b
	return nil
}

func TestPlaceBet_RejectsWhenBankrollInactive(t *testing.T) {
	placer := &fakePlacer{bankroll: model.Bankroll{Active: false, CurrentUnits: decimal.Zero}}
	req := SizeRequest{
		ExpertID: uuid.New(), RunID: uuid.New(), GameID: "g1", Category: "winner",
		Prediction: "home", Confidence: 0.8, AmericanOdds: 110, Archetype: model.ArchetypeScholar,
	}
	_, _, err := PlaceBet(context.Background(), placer, req, time.Now())
	assert.ErrorIs(t, err, cerrors.ErrBankrollUnderflow)
}

func TestPlaceBet_PersistsBetWhenActiveAndProfitable(t *testing.T) {
	placer := &fakePlacer{bankroll: model.Bankroll{Active: true, CurrentUnits: decimal.NewFromInt(1000)}}
	req := SizeRequest{
		ExpertID: uuid.New(), RunID: uuid.New(), GameID: "g1", Category: "winner",
		Prediction: "home", Confidence: 0.60, AmericanOdds: 120, Archetype: model.ArchetypeConservative,
	}
	bet, refusal, err := PlaceBet(context.Background(), placer, req, time.Now())
	require.NoError(t, err)
	assert.Nil(t, refusal)
	require.NotNil(t, bet)
	assert.Len(t, placer.bets, 1)
}

func TestPredictionScore_PerfectPredictionScoresOne(t *testing.T) {
	score := PredictionScore(Outcome{WinnerCorrect: true, SpreadError: 0, TotalError: 0})
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScoreComponent_ZeroedAtThreshold(t *testing.T) {
	assert.Equal(t, 0.0, ScoreComponent(14, 14))
	assert.Equal(t, 0.0, ScoreComponent(20, 14))
}

func TestVolatility_ZeroForSingleReturn(t *testing.T) {
	assert.Equal(t, 0.0, Volatility([]float64{0.1}))
}

func TestMaxDrawdown_TracksPeakToTroughDecline(t *testing.T) {
	units := []decimal.Decimal{
		decimal.NewFromInt(1000), decimal.NewFromInt(1200), decimal.NewFromInt(600), decimal.NewFromInt(900),
	}
	dd := MaxDrawdown(units)
	assert.InDelta(t, 0.5, dd, 0.001)
}
