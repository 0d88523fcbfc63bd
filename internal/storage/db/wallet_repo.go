package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/models"
)

// WalletRepo persists the Wallet entity (§3).
type WalletRepo struct {
	conn *Connection
}

func NewWalletRepo(conn *Connection) *WalletRepo { return &WalletRepo{conn: conn} }

// UpsertWalletIgnore creates the wallet if absent; a conflict on the primary
// key is a no-op, satisfying migration.Store's insert-once contract.
func (r *WalletRepo) UpsertWalletIgnore(ctx context.Context, w models.Wallet) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO wallets (address, discovery_period, total_portfolio_value_usd, is_active, is_scored, transactions_extracted, last_sync)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO NOTHING`,
		w.Address, w.DiscoveryPeriod, w.TotalPortfolioValueUSD, w.IsActive, w.IsScored, w.TransactionsExtracted, w.LastSync)
	if err != nil {
		return fmt.Errorf("upserting wallet: %w", errs.ClassifyPgError(err))
	}
	return nil
}

func (r *WalletRepo) UpsertWallet(ctx context.Context, w models.Wallet) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO wallets (address, discovery_period, total_portfolio_value_usd, is_active, is_scored, transactions_extracted, last_sync)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO UPDATE SET
			total_portfolio_value_usd = EXCLUDED.total_portfolio_value_usd,
			is_active = EXCLUDED.is_active,
			is_scored = EXCLUDED.is_scored,
			transactions_extracted = EXCLUDED.transactions_extracted,
			last_sync = EXCLUDED.last_sync`,
		w.Address, w.DiscoveryPeriod, w.TotalPortfolioValueUSD, w.IsActive, w.IsScored, w.TransactionsExtracted, w.LastSync)
	if err != nil {
		return fmt.Errorf("upserting wallet: %w", errs.ClassifyPgError(err))
	}
	return nil
}

func (r *WalletRepo) Get(ctx context.Context, address string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.conn.QueryRow(ctx, `
		SELECT address, discovery_period, total_portfolio_value_usd, is_active, is_scored, transactions_extracted, last_sync
		FROM wallets WHERE address = $1`, address).Scan(
		&w.Address, &w.DiscoveryPeriod, &w.TotalPortfolioValueUSD, &w.IsActive, &w.IsScored, &w.TransactionsExtracted, &w.LastSync)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching wallet: %w", err)
	}
	return &w, nil
}

// UpdatePortfolioValue implements the tracker.Store piece of §4.7 step 4.
func (r *WalletRepo) UpdatePortfolioValue(ctx context.Context, address string, value float64, syncedAt time.Time) error {
	_, err := r.conn.Exec(ctx, `UPDATE wallets SET total_portfolio_value_usd = $1, last_sync = $2 WHERE address = $3`,
		value, syncedAt, address)
	if err != nil {
		return fmt.Errorf("updating portfolio value: %w", err)
	}
	return nil
}

func (r *WalletRepo) ListActive(ctx context.Context) ([]models.Wallet, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT address, discovery_period, total_portfolio_value_usd, is_active, is_scored, transactions_extracted, last_sync
		FROM wallets WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("listing active wallets: %w", err)
	}
	defer rows.Close()

	var out []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.Address, &w.DiscoveryPeriod, &w.TotalPortfolioValueUSD, &w.IsActive, &w.IsScored, &w.TransactionsExtracted, &w.LastSync); err != nil {
			return nil, fmt.Errorf("scanning wallet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
