package db

import (
	"context"
	"fmt"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/models"
)

// SmartWalletRepo persists the final elected SmartWallet rows (C6 output),
// unique on wallet.
type SmartWalletRepo struct {
	conn *Connection
}

func NewSmartWalletRepo(conn *Connection) *SmartWalletRepo { return &SmartWalletRepo{conn: conn} }

func (r *SmartWalletRepo) Upsert(ctx context.Context, sw models.SmartWallet) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO smart_wallets (wallet, optimal_threshold_tier, quality_score, threshold_status,
			optimal_tier_usd, global_score, global_weighted_roi, global_win_rate, global_trade_count,
			global_classification, elected_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (wallet) DO UPDATE SET
			optimal_threshold_tier = EXCLUDED.optimal_threshold_tier,
			quality_score = EXCLUDED.quality_score,
			threshold_status = EXCLUDED.threshold_status,
			optimal_tier_usd = EXCLUDED.optimal_tier_usd,
			global_score = EXCLUDED.global_score,
			global_weighted_roi = EXCLUDED.global_weighted_roi,
			global_win_rate = EXCLUDED.global_win_rate,
			global_trade_count = EXCLUDED.global_trade_count,
			global_classification = EXCLUDED.global_classification,
			elected_at = EXCLUDED.elected_at`,
		sw.Wallet, sw.OptimalThresholdTier, sw.QualityScore, sw.ThresholdStatus, sw.OptimalTierMetrics.TierUSD,
		sw.GlobalMetrics.Score, sw.GlobalMetrics.WeightedROI, sw.GlobalMetrics.WinRate, sw.GlobalMetrics.TradeCount,
		sw.GlobalMetrics.Classification, sw.ElectedAt)
	if err != nil {
		return fmt.Errorf("upserting smart wallet: %w", errs.ClassifyPgError(err))
	}
	return nil
}

func (r *SmartWalletRepo) ListActive(ctx context.Context) ([]models.SmartWallet, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT wallet, optimal_threshold_tier, quality_score, threshold_status, elected_at
		FROM smart_wallets WHERE threshold_status != 'NEUTRAL'`)
	if err != nil {
		return nil, fmt.Errorf("listing smart wallets: %w", err)
	}
	defer rows.Close()

	var out []models.SmartWallet
	for rows.Next() {
		var sw models.SmartWallet
		if err := rows.Scan(&sw.Wallet, &sw.OptimalThresholdTier, &sw.QualityScore, &sw.ThresholdStatus, &sw.ElectedAt); err != nil {
			return nil, fmt.Errorf("scanning smart wallet: %w", err)
		}
		out = append(out, sw)
	}
	return out, rows.Err()
}
