package db

import (
	"context"
	"fmt"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/models"
)

// TierRepo persists TierPerformance rows written by the Tier Analyzer (C5),
// unique on (wallet, tier_usd).
type TierRepo struct {
	conn *Connection
}

func NewTierRepo(conn *Connection) *TierRepo { return &TierRepo{conn: conn} }

func (r *TierRepo) UpsertTier(ctx context.Context, wallet string, t models.TierPerformance) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO tier_performance (wallet, tier_usd, roi_percentage, win_rate, n_trades, n_winners, n_losers,
			n_neutral, total_invested, is_optimal_tier)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (wallet, tier_usd) DO UPDATE SET
			roi_percentage = EXCLUDED.roi_percentage,
			win_rate = EXCLUDED.win_rate,
			n_trades = EXCLUDED.n_trades,
			n_winners = EXCLUDED.n_winners,
			n_losers = EXCLUDED.n_losers,
			n_neutral = EXCLUDED.n_neutral,
			total_invested = EXCLUDED.total_invested,
			is_optimal_tier = EXCLUDED.is_optimal_tier`,
		wallet, t.TierUSD, t.ROIPercentage, t.WinRate, t.NTrades, t.NWinners, t.NLosers, t.NNeutral,
		t.TotalInvested, t.IsOptimalTier)
	if err != nil {
		return fmt.Errorf("upserting tier performance: %w", errs.ClassifyPgError(err))
	}
	return nil
}

func (r *TierRepo) ForWallet(ctx context.Context, wallet string) ([]models.TierPerformance, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT wallet, tier_usd, roi_percentage, win_rate, n_trades, n_winners, n_losers, n_neutral,
			total_invested, is_optimal_tier
		FROM tier_performance WHERE wallet = $1 ORDER BY tier_usd ASC`, wallet)
	if err != nil {
		return nil, fmt.Errorf("listing tier performance: %w", err)
	}
	defer rows.Close()

	var out []models.TierPerformance
	for rows.Next() {
		var t models.TierPerformance
		if err := rows.Scan(&t.Wallet, &t.TierUSD, &t.ROIPercentage, &t.WinRate, &t.NTrades, &t.NWinners,
			&t.NLosers, &t.NNeutral, &t.TotalInvested, &t.IsOptimalTier); err != nil {
			return nil, fmt.Errorf("scanning tier performance: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
