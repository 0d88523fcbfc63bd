// Package pipeline implements the Orchestrator: it wires the nine components
// (C1-C9) and the persistence layer together into the named stages the CLI
// drives, grounded on the teacher's Application/Pipeline composition in
// cmd/oracle/startup and internal/pipeline.
package pipeline

import (
	"context"
	"time"

	"github.com/smartwallet/tracker/internal/storage/db"
	"github.com/smartwallet/tracker/pkg/models"
)

// Stores embeds every repo the domain components depend on and promotes their
// methods, satisfying ingest.Store, tracker.Store, migration.Store, and
// consensus.Store simultaneously without re-declaring any query. The one
// method name mismatch between tracker.Store and WalletRepo is bridged below.
type Stores struct {
	*db.WalletRepo
	*db.PositionRepo
	*db.TransferRepo
	*db.AnalyticsRepo
	*db.TierRepo
	*db.SmartWalletRepo
	*db.MigrationRepo
	*db.ConsensusRepo
	*db.QualifiedRepo
}

func NewStores(conn *db.Connection) *Stores {
	return &Stores{
		WalletRepo:      db.NewWalletRepo(conn),
		PositionRepo:    db.NewPositionRepo(conn),
		TransferRepo:    db.NewTransferRepo(conn),
		AnalyticsRepo:   db.NewAnalyticsRepo(conn),
		TierRepo:        db.NewTierRepo(conn),
		SmartWalletRepo: db.NewSmartWalletRepo(conn),
		MigrationRepo:   db.NewMigrationRepo(conn),
		ConsensusRepo:   db.NewConsensusRepo(conn),
		QualifiedRepo:   db.NewQualifiedRepo(conn),
	}
}

// UpdateWalletPortfolioValue adapts tracker.Store's expected name onto
// WalletRepo.UpdatePortfolioValue.
func (s *Stores) UpdateWalletPortfolioValue(ctx context.Context, wallet string, value float64, syncedAt time.Time) error {
	return s.WalletRepo.UpdatePortfolioValue(ctx, wallet, value, syncedAt)
}

// ListActiveSmartWallets adapts api.Store's expected name onto
// SmartWalletRepo.ListActive (ambiguous as a promoted method alongside
// WalletRepo.ListActive, so the API server depends on this explicit name).
func (s *Stores) ListActiveSmartWallets(ctx context.Context) ([]models.SmartWallet, error) {
	return s.SmartWalletRepo.ListActive(ctx)
}
