package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gridiron/council/internal/model"
)

// GetBankroll satisfies betting.Placer: loads an expert's current
// bankroll, returning an error wrapping ErrNotFound if none exists.
func (db *DB) GetBankroll(ctx context.Context, expertID, runID uuid.UUID) (model.Bankroll, error) {
	var b model.Bankroll
	err := db.pool.QueryRow(ctx,
		`SELECT expert_id, run_id, starting_units, current_units, peak_units, total_bets, winning_bets, roi,
		        volatility, sharpe_like, max_drawdown, win_streak, lose_streak, active, elimination_risk_level, elimination_date, updated_at
		 FROM bankrolls WHERE expert_id = $1 AND run_id = $2`, expertID, runID,
	).Scan(&b.ExpertID, &b.RunID, &b.StartingUnits, &b.CurrentUnits, &b.PeakUnits, &b.TotalBets, &b.WinningBets, &b.ROI,
		&b.Volatility, &b.SharpeLike, &b.MaxDrawdown, &b.WinStreak, &b.LoseStreak, &b.Active, &b.EliminationRiskLevel, &b.EliminationDate, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bankroll{}, fmt.Errorf("storage: bankroll expert=%s run=%s: %w", expertID, runID, ErrNotFound)
		}
		return model.Bankroll{}, fmt.Errorf("storage: get bankroll: %w", err)
	}
	return b, nil
}

// CreateBankroll seeds a new expert's starting bankroll for a run (§6
// init-run).
func (db *DB) CreateBankroll(ctx context.Context, b model.Bankroll) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO bankrolls (expert_id, run_id, starting_units, current_units, peak_units, active, elimination_risk_level, updated_at)
		 VALUES ($1, $2, $3, $3, $3, true, 'safe', now())
		 ON CONFLICT (expert_id, run_id) DO NOTHING`,
		b.ExpertID, b.RunID, b.StartingUnits,
	)
	if err != nil {
		return fmt.Errorf("storage: create bankroll: %w", err)
	}
	return nil
}

// SaveBankroll satisfies betting.Placer: persists a recomputed bankroll
// after a bet is placed or settled.
func (db *DB) SaveBankroll(ctx context.Context, b model.Bankroll) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE bankrolls SET current_units = $1, peak_units = $2, total_bets = $3, winning_bets = $4, roi = $5,
		        volatility = $6, sharpe_like = $7, max_drawdown = $8, win_streak = $9, lose_streak = $10,
		        active = $11, elimination_risk_level = $12, elimination_date = $13, updated_at = $14
		 WHERE expert_id = $15 AND run_id = $16`,
		b.CurrentUnits, b.PeakUnits, b.TotalBets, b.WinningBets, b.ROI,
		b.Volatility, b.SharpeLike, b.MaxDrawdown, b.WinStreak, b.LoseStreak,
		b.Active, string(b.EliminationRiskLevel), b.EliminationDate, b.UpdatedAt,
		b.ExpertID, b.RunID,
	)
	if err != nil {
		return fmt.Errorf("storage: save bankroll: %w", err)
	}
	return nil
}

// InsertBet satisfies betting.Placer: persists a newly sized, pending bet.
func (db *DB) InsertBet(ctx context.Context, bet model.VirtualBet) error {
	if bet.ID == uuid.Nil {
		bet.ID = uuid.New()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO virtual_bets (id, run_id, expert_id, game_id, category, prediction, confidence, american_odds,
		        stake, implied_probability, edge, kelly_fraction, personality_multiplier, potential_payout,
		        status, realized_payout, bankroll_before, bankroll_after, reasoning, content_hash, placed_at, settled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		bet.ID, bet.RunID, bet.ExpertID, bet.GameID, bet.Category, bet.Prediction, bet.Confidence, bet.AmericanOdds,
		bet.Stake, bet.ImpliedProbability, bet.Edge, bet.KellyFraction, bet.PersonalityMultiplier, bet.PotentialPayout,
		string(bet.Status), bet.RealizedPayout, bet.BankrollBefore, bet.BankrollAfter, bet.Reasoning, bet.ContentHash, bet.PlacedAt, bet.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert bet: %w", err)
	}
	return nil
}

// UpdateBetSettlement persists a bet's settlement outcome (§4.10).
func (db *DB) UpdateBetSettlement(ctx context.Context, bet model.VirtualBet) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE virtual_bets SET status = $1, realized_payout = $2, bankroll_before = $3, bankroll_after = $4, settled_at = $5
		 WHERE id = $6`,
		string(bet.Status), bet.RealizedPayout, bet.BankrollBefore, bet.BankrollAfter, bet.SettledAt, bet.ID,
	)
	if err != nil {
		return fmt.Errorf("storage: update bet settlement: %w", err)
	}
	return nil
}

// ListPendingBets returns every unsettled bet for a game, the Bet
// Settler's input at game-end (§4.10).
func (db *DB) ListPendingBets(ctx context.Context, runID uuid.UUID, gameID string) ([]model.VirtualBet, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, expert_id, game_id, category, prediction, confidence, american_odds,
		        stake, implied_probability, edge, kelly_fraction, personality_multiplier, potential_payout,
		        status, realized_payout, bankroll_before, bankroll_after, reasoning, content_hash, placed_at, settled_at
		 FROM virtual_bets WHERE run_id = $1 AND game_id = $2 AND status = 'pending'`,
		runID, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list pending bets: %w", err)
	}
	defer rows.Close()

	var bets []model.VirtualBet
	for rows.Next() {
		var b model.VirtualBet
		if err := rows.Scan(&b.ID, &b.RunID, &b.ExpertID, &b.GameID, &b.Category, &b.Prediction, &b.Confidence, &b.AmericanOdds,
			&b.Stake, &b.ImpliedProbability, &b.Edge, &b.KellyFraction, &b.PersonalityMultiplier, &b.PotentialPayout,
			&b.Status, &b.RealizedPayout, &b.BankrollBefore, &b.BankrollAfter, &b.Reasoning, &b.ContentHash, &b.PlacedAt, &b.SettledAt); err != nil {
			return nil, fmt.Errorf("storage: scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// ListSettledBets returns an expert's chronologically ordered settled
// bets, the input to betting.ReturnSeries for volatility/Sharpe/drawdown.
func (db *DB) ListSettledBets(ctx context.Context, expertID, runID uuid.UUID) ([]model.VirtualBet, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, expert_id, game_id, category, prediction, confidence, american_odds,
		        stake, implied_probability, edge, kelly_fraction, personality_multiplier, potential_payout,
		        status, realized_payout, bankroll_before, bankroll_after, reasoning, content_hash, placed_at, settled_at
		 FROM virtual_bets WHERE expert_id = $1 AND run_id = $2 AND status != 'pending' ORDER BY settled_at ASC`,
		expertID, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list settled bets: %w", err)
	}
	defer rows.Close()

	var bets []model.VirtualBet
	for rows.Next() {
		var b model.VirtualBet
		if err := rows.Scan(&b.ID, &b.RunID, &b.ExpertID, &b.GameID, &b.Category, &b.Prediction, &b.Confidence, &b.AmericanOdds,
			&b.Stake, &b.ImpliedProbability, &b.Edge, &b.KellyFraction, &b.PersonalityMultiplier, &b.PotentialPayout,
			&b.Status, &b.RealizedPayout, &b.BankrollBefore, &b.BankrollAfter, &b.Reasoning, &b.ContentHash, &b.PlacedAt, &b.SettledAt); err != nil {
			return nil, fmt.Errorf("storage: scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// InsertRefusal satisfies betting.Placer: persists a confidence-to-bet
// coupling refusal (§4.9).
func (db *DB) InsertRefusal(ctx context.Context, refusal model.BetRefusal) error {
	if refusal.ID == uuid.Nil {
		refusal.ID = uuid.New()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO bet_refusals (id, run_id, expert_id, game_id, category, confidence, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		refusal.ID, refusal.RunID, refusal.ExpertID, refusal.GameID, refusal.Category, refusal.Confidence, refusal.Reason, refusal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert bet refusal: %w", err)
	}
	return nil
}
