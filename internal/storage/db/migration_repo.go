package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/models"
)

// MigrationRepo persists WalletMigration rows (C8), unique on
// (old_wallet, new_wallet, migration_date).
type MigrationRepo struct {
	conn *Connection
}

func NewMigrationRepo(conn *Connection) *MigrationRepo { return &MigrationRepo{conn: conn} }

func (r *MigrationRepo) InsertMigrationIgnore(ctx context.Context, m models.WalletMigration) error {
	tokens, err := json.Marshal(m.TokensTransferred)
	if err != nil {
		return fmt.Errorf("marshaling tokens transferred: %w", err)
	}
	_, err = r.conn.Exec(ctx, `
		INSERT INTO wallet_migrations (old_wallet, new_wallet, migration_date, tokens_transferred,
			total_value_transferred, transfer_percentage, is_validated)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (old_wallet, new_wallet, migration_date) DO NOTHING`,
		m.OldWallet, m.NewWallet, m.MigrationDate, tokens, m.TotalValueTransferred, m.TransferPercentage, m.IsValidated)
	if err != nil {
		return fmt.Errorf("inserting wallet migration: %w", errs.ClassifyPgError(err))
	}
	return nil
}
