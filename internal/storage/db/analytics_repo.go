package db

import (
	"context"
	"fmt"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/models"
)

// AnalyticsRepo persists TokenAnalytics — upsert-by-key, recomputed
// idempotently from the transfer log each time the FIFO engine runs (Design
// Note "Cyclic analytics / re-entrancy").
type AnalyticsRepo struct {
	conn *Connection
}

func NewAnalyticsRepo(conn *Connection) *AnalyticsRepo { return &AnalyticsRepo{conn: conn} }

func (r *AnalyticsRepo) UpsertAnalytics(ctx context.Context, a models.TokenAnalytics) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO token_analytics (wallet, fungible_id, symbol, total_invested_usd, total_realized_usd,
			gains_airdrops_usd, current_value_usd, profit_loss_usd, roi_percentage, remaining_quantity,
			remaining_cost_basis, weighted_avg_buy_price, weighted_avg_sell_price, status,
			first_transaction_date, last_transaction_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (wallet, fungible_id) DO UPDATE SET
			total_invested_usd = EXCLUDED.total_invested_usd,
			total_realized_usd = EXCLUDED.total_realized_usd,
			gains_airdrops_usd = EXCLUDED.gains_airdrops_usd,
			current_value_usd = EXCLUDED.current_value_usd,
			profit_loss_usd = EXCLUDED.profit_loss_usd,
			roi_percentage = EXCLUDED.roi_percentage,
			remaining_quantity = EXCLUDED.remaining_quantity,
			remaining_cost_basis = EXCLUDED.remaining_cost_basis,
			weighted_avg_buy_price = EXCLUDED.weighted_avg_buy_price,
			weighted_avg_sell_price = EXCLUDED.weighted_avg_sell_price,
			status = EXCLUDED.status,
			first_transaction_date = EXCLUDED.first_transaction_date,
			last_transaction_date = EXCLUDED.last_transaction_date`,
		a.Wallet, a.FungibleID, a.Symbol, a.TotalInvestedUSD, a.TotalRealizedUSD, a.GainsAirdropsUSD,
		a.CurrentValueUSD, a.ProfitLossUSD, a.ROIPercentage, a.RemainingQuantity, a.RemainingCostBasis,
		a.WeightedAvgBuyPrice, a.WeightedAvgSellPrice, a.Status, a.FirstTransactionDate, a.LastTransactionDate)
	if err != nil {
		return fmt.Errorf("upserting token analytics: %w", errs.ClassifyPgError(err))
	}
	return nil
}

func (r *AnalyticsRepo) ForWallet(ctx context.Context, wallet string) ([]models.TokenAnalytics, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT wallet, fungible_id, symbol, total_invested_usd, total_realized_usd, gains_airdrops_usd,
			current_value_usd, profit_loss_usd, roi_percentage, remaining_quantity, remaining_cost_basis,
			weighted_avg_buy_price, weighted_avg_sell_price, status, first_transaction_date, last_transaction_date
		FROM token_analytics WHERE wallet = $1`, wallet)
	if err != nil {
		return nil, fmt.Errorf("listing token analytics: %w", err)
	}
	defer rows.Close()

	var out []models.TokenAnalytics
	for rows.Next() {
		var a models.TokenAnalytics
		if err := rows.Scan(&a.Wallet, &a.FungibleID, &a.Symbol, &a.TotalInvestedUSD, &a.TotalRealizedUSD,
			&a.GainsAirdropsUSD, &a.CurrentValueUSD, &a.ProfitLossUSD, &a.ROIPercentage, &a.RemainingQuantity,
			&a.RemainingCostBasis, &a.WeightedAvgBuyPrice, &a.WeightedAvgSellPrice, &a.Status,
			&a.FirstTransactionDate, &a.LastTransactionDate); err != nil {
			return nil, fmt.Errorf("scanning token analytics: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
