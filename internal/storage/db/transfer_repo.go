package db

import (
	"context"
	"fmt"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/models"
)

// TransferRepo persists the append-only Transfer log (§3). Deduplication
// invariant: unique on (wallet, transaction_hash, fungible_id). Immutability
// invariant: price_per_token is never rewritten after insert — only
// inherited_price_per_token is ever back-filled, and only while NULL.
type TransferRepo struct {
	conn *Connection
}

func NewTransferRepo(conn *Connection) *TransferRepo { return &TransferRepo{conn: conn} }

// ReplaceTransferHistory implements ingest.Store's full-history resync: the
// existing rows for (wallet, fungible_id) are replaced inside one transaction
// so a partial write never leaves a half-populated history.
func (r *TransferRepo) ReplaceTransferHistory(ctx context.Context, wallet, fungibleID string, transfers []models.Transfer) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transfers WHERE wallet = $1 AND fungible_id = $2`, wallet, fungibleID); err != nil {
		return fmt.Errorf("clearing transfer history: %w", err)
	}

	for _, t := range transfers {
		if _, err := tx.Exec(ctx, insertTransferSQL,
			t.Wallet, t.TransactionHash, t.Symbol, t.ContractAddress, t.FungibleID, t.Direction, t.ActionType,
			t.Quantity, t.PricePerToken, t.InheritedPricePerToken, t.IsInheritedFromWallet, t.CounterpartyAddress,
			t.Timestamp, t.BlockNumber); err != nil {
			return fmt.Errorf("inserting transfer: %w", errs.ClassifyPgError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transfer history replace: %w", err)
	}
	return nil
}

// UpsertTransfersIgnore implements ingest.Store's incremental append: rows
// that already exist by (wallet, transaction_hash, fungible_id) are skipped,
// never overwritten, preserving the immutability invariant.
func (r *TransferRepo) UpsertTransfersIgnore(ctx context.Context, transfers []models.Transfer) (int, error) {
	inserted := 0
	for _, t := range transfers {
		tag, err := r.conn.Exec(ctx, insertTransferSQL+` ON CONFLICT (wallet, transaction_hash, fungible_id) DO NOTHING`,
			t.Wallet, t.TransactionHash, t.Symbol, t.ContractAddress, t.FungibleID, t.Direction, t.ActionType,
			t.Quantity, t.PricePerToken, t.InheritedPricePerToken, t.IsInheritedFromWallet, t.CounterpartyAddress,
			t.Timestamp, t.BlockNumber)
		if err != nil {
			return inserted, fmt.Errorf("inserting transfer: %w", errs.ClassifyPgError(err))
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

const insertTransferSQL = `
	INSERT INTO transfers (wallet, transaction_hash, symbol, contract_address, fungible_id, direction, action_type,
		quantity, price_per_token, inherited_price_per_token, is_inherited_from_wallet, counterparty_address,
		timestamp, block_number)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

// TransfersForToken implements tracker.Store's selective re-run source.
func (r *TransferRepo) TransfersForToken(ctx context.Context, wallet, fungibleID string) ([]models.Transfer, error) {
	return r.queryTransfers(ctx, `WHERE wallet = $1 AND fungible_id = $2`, wallet, fungibleID)
}

// ParentBuyTransfers implements migration.Store's cost-basis source (§4.8 step 6).
func (r *TransferRepo) ParentBuyTransfers(ctx context.Context, wallet, symbol string) ([]models.Transfer, error) {
	return r.queryTransfers(ctx, `WHERE wallet = $1 AND symbol = $2 AND action_type = 'buy'`, wallet, symbol)
}

func (r *TransferRepo) queryTransfers(ctx context.Context, where string, args ...interface{}) ([]models.Transfer, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT wallet, transaction_hash, symbol, contract_address, fungible_id, direction, action_type,
			quantity, price_per_token, inherited_price_per_token, is_inherited_from_wallet, counterparty_address,
			timestamp, block_number
		FROM transfers `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transfers: %w", err)
	}
	defer rows.Close()

	var out []models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.Wallet, &t.TransactionHash, &t.Symbol, &t.ContractAddress, &t.FungibleID, &t.Direction,
			&t.ActionType, &t.Quantity, &t.PricePerToken, &t.InheritedPricePerToken, &t.IsInheritedFromWallet,
			&t.CounterpartyAddress, &t.Timestamp, &t.BlockNumber); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetInheritedPriceWhereNull implements migration.Store's idempotent cost-basis
// inheritance (§4.8 step 6 / Open Question discussion): the IS NULL guard means
// re-running migration processing on the same pair never overwrites a price
// set by a prior run or by the normal ingestion path.
func (r *TransferRepo) SetInheritedPriceWhereNull(ctx context.Context, wallet, symbol string, price float64, fromWallet string) (int, error) {
	tag, err := r.conn.Exec(ctx, `
		UPDATE transfers
		SET inherited_price_per_token = $1, is_inherited_from_wallet = $2
		WHERE wallet = $3 AND symbol = $4 AND direction = 'in' AND inherited_price_per_token IS NULL`,
		price, fromWallet, wallet, symbol)
	if err != nil {
		return 0, fmt.Errorf("backfilling inherited price: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// RecentBuys implements the Consensus Detector's (C9) input source: every
// `buy` transfer by any of the given wallets within the last sinceHours,
// across all tokens.
func (r *TransferRepo) RecentBuys(ctx context.Context, wallets []string, sinceHours int) ([]models.Transfer, error) {
	if len(wallets) == 0 {
		return nil, nil
	}
	rows, err := r.conn.Query(ctx, `
		SELECT wallet, transaction_hash, symbol, contract_address, fungible_id, direction, action_type,
			quantity, price_per_token, inherited_price_per_token, is_inherited_from_wallet, counterparty_address,
			timestamp, block_number
		FROM transfers
		WHERE action_type = 'buy' AND wallet = ANY($1) AND timestamp >= now() - ($2 || ' hours')::interval`,
		wallets, sinceHours)
	if err != nil {
		return nil, fmt.Errorf("querying recent buys: %w", err)
	}
	defer rows.Close()

	var out []models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.Wallet, &t.TransactionHash, &t.Symbol, &t.ContractAddress, &t.FungibleID, &t.Direction,
			&t.ActionType, &t.Quantity, &t.PricePerToken, &t.InheritedPricePerToken, &t.IsInheritedFromWallet,
			&t.CounterpartyAddress, &t.Timestamp, &t.BlockNumber); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
