package db

import (
	"context"
	"fmt"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/models"
)

// QualifiedRepo persists QualifiedWallet rows written by the Scorer (C4),
// one row per wallet that clears the qualification gates (§4.4).
type QualifiedRepo struct {
	conn *Connection
}

func NewQualifiedRepo(conn *Connection) *QualifiedRepo { return &QualifiedRepo{conn: conn} }

func (r *QualifiedRepo) Upsert(ctx context.Context, q models.QualifiedWallet) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO qualified_wallets (wallet, score, weighted_roi, win_rate, trade_count, classification)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (wallet) DO UPDATE SET
			score = EXCLUDED.score,
			weighted_roi = EXCLUDED.weighted_roi,
			win_rate = EXCLUDED.win_rate,
			trade_count = EXCLUDED.trade_count,
			classification = EXCLUDED.classification`,
		q.Wallet, q.Score, q.WeightedROI, q.WinRate, q.TradeCount, q.Classification)
	if err != nil {
		return fmt.Errorf("upserting qualified wallet: %w", errs.ClassifyPgError(err))
	}
	return nil
}

func (r *QualifiedRepo) ListAll(ctx context.Context) ([]models.QualifiedWallet, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT wallet, score, weighted_roi, win_rate, trade_count, classification FROM qualified_wallets`)
	if err != nil {
		return nil, fmt.Errorf("listing qualified wallets: %w", err)
	}
	defer rows.Close()

	var out []models.QualifiedWallet
	for rows.Next() {
		var q models.QualifiedWallet
		if err := rows.Scan(&q.Wallet, &q.Score, &q.WeightedROI, &q.WinRate, &q.TradeCount, &q.Classification); err != nil {
			return nil, fmt.Errorf("scanning qualified wallet: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
