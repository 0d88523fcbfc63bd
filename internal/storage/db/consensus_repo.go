package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/models"
)

// ConsensusRepo persists ConsensusSignal rows (C9), unique on
// (contract_address, period_start) — the index SPEC_FULL.md adds to close the
// gap the original data model left open for this table.
type ConsensusRepo struct {
	conn *Connection
}

func NewConsensusRepo(conn *Connection) *ConsensusRepo { return &ConsensusRepo{conn: conn} }

// UpsertConsensusSignal reports whether the row materially changed (whale
// count or active status), so the caller (C9) only re-notifies on change.
func (r *ConsensusRepo) UpsertConsensusSignal(ctx context.Context, s models.ConsensusSignal) (bool, error) {
	wallets, err := json.Marshal(s.WalletAddresses)
	if err != nil {
		return false, fmt.Errorf("marshaling wallet addresses: %w", err)
	}

	var priorWhaleCount int
	var priorIsActive bool
	err = r.conn.QueryRow(ctx, `
		SELECT whale_count, is_active FROM consensus_signals
		WHERE contract_address = $1 AND period_start = $2`, s.ContractAddress, s.PeriodStart).Scan(&priorWhaleCount, &priorIsActive)
	existed := err == nil

	_, err = r.conn.Exec(ctx, `
		INSERT INTO consensus_signals (symbol, contract_address, detection_date, whale_count, total_investment,
			first_buy, last_buy, is_active, period_start, period_end, wallet_addresses)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (contract_address, period_start) DO UPDATE SET
			detection_date = EXCLUDED.detection_date,
			whale_count = EXCLUDED.whale_count,
			total_investment = EXCLUDED.total_investment,
			first_buy = EXCLUDED.first_buy,
			last_buy = EXCLUDED.last_buy,
			is_active = EXCLUDED.is_active,
			period_end = EXCLUDED.period_end,
			wallet_addresses = EXCLUDED.wallet_addresses`,
		s.Symbol, s.ContractAddress, s.DetectionDate, s.WhaleCount, s.TotalInvestment, s.FirstBuy, s.LastBuy,
		s.IsActive, s.PeriodStart, s.PeriodEnd, wallets)
	if err != nil {
		return false, fmt.Errorf("upserting consensus signal: %w", errs.ClassifyPgError(err))
	}

	changed := !existed || priorWhaleCount != s.WhaleCount || priorIsActive != s.IsActive
	return changed, nil
}
