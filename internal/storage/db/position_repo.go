package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/models"
)

// PositionRepo persists TokenPosition (current-state snapshot, unique on
// (wallet, fungible_id)) and the append-only PositionChange diff log written
// by the Live Tracker (C7).
type PositionRepo struct {
	conn *Connection
}

func NewPositionRepo(conn *Connection) *PositionRepo { return &PositionRepo{conn: conn} }

func (r *PositionRepo) TokenPositions(ctx context.Context, wallet string) ([]models.TokenPosition, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT wallet, fungible_id, symbol, contract_address, chain, current_amount, current_usd_value,
			current_price_per_token, in_portfolio, last_updated
		FROM token_positions WHERE wallet = $1`, wallet)
	if err != nil {
		return nil, fmt.Errorf("listing token positions: %w", err)
	}
	defer rows.Close()

	var out []models.TokenPosition
	for rows.Next() {
		var p models.TokenPosition
		if err := rows.Scan(&p.Wallet, &p.FungibleID, &p.Symbol, &p.ContractAddress, &p.Chain, &p.CurrentAmount,
			&p.CurrentUSDValue, &p.CurrentPricePerToken, &p.InPortfolio, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("scanning token position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PositionRepo) UpsertTokenPosition(ctx context.Context, p models.TokenPosition) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO token_positions (wallet, fungible_id, symbol, contract_address, chain, current_amount,
			current_usd_value, current_price_per_token, in_portfolio, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (wallet, fungible_id) DO UPDATE SET
			current_amount = EXCLUDED.current_amount,
			current_usd_value = EXCLUDED.current_usd_value,
			current_price_per_token = EXCLUDED.current_price_per_token,
			in_portfolio = EXCLUDED.in_portfolio,
			last_updated = EXCLUDED.last_updated`,
		p.Wallet, p.FungibleID, p.Symbol, p.ContractAddress, p.Chain, p.CurrentAmount, p.CurrentUSDValue,
		p.CurrentPricePerToken, p.InPortfolio, p.LastUpdated)
	if err != nil {
		return fmt.Errorf("upserting token position: %w", errs.ClassifyPgError(err))
	}
	return nil
}

func (r *PositionRepo) InsertPositionChange(ctx context.Context, c models.PositionChange) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO position_changes (wallet, fungible_id, change_type, old_amount, new_amount, old_usd_value,
			new_usd_value, detected_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.Wallet, c.FungibleID, c.ChangeType, c.OldAmount, c.NewAmount, c.OldUSDValue, c.NewUSDValue, c.DetectedAt)
	if err != nil {
		return fmt.Errorf("inserting position change: %w", err)
	}
	return nil
}

func (r *PositionRepo) Get(ctx context.Context, wallet, fungibleID string) (*models.TokenPosition, error) {
	var p models.TokenPosition
	err := r.conn.QueryRow(ctx, `
		SELECT wallet, fungible_id, symbol, contract_address, chain, current_amount, current_usd_value,
			current_price_per_token, in_portfolio, last_updated
		FROM token_positions WHERE wallet = $1 AND fungible_id = $2`, wallet, fungibleID).Scan(
		&p.Wallet, &p.FungibleID, &p.Symbol, &p.ContractAddress, &p.Chain, &p.CurrentAmount, &p.CurrentUSDValue,
		&p.CurrentPricePerToken, &p.InPortfolio, &p.LastUpdated)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching token position: %w", err)
	}
	return &p, nil
}
