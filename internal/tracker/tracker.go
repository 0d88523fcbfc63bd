// Package tracker implements the Live Tracker (C7): periodically diffs smart
// wallet balances against Token Position rows, logs position changes, and
// triggers selective history rebuild, grounded on the ticker-driven scan loop
// used for dormant-token reactivation elsewhere in the example pack.
package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/smartwallet/tracker/internal/fifo"
	"github.com/smartwallet/tracker/internal/ingest"
	"github.com/smartwallet/tracker/internal/migration"
	"github.com/smartwallet/tracker/internal/provider"
	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// Store is the persistence boundary C7 needs.
type Store interface {
	TokenPositions(ctx context.Context, wallet string) ([]models.TokenPosition, error)
	UpsertTokenPosition(ctx context.Context, pos models.TokenPosition) error
	InsertPositionChange(ctx context.Context, change models.PositionChange) error
	UpdateWalletPortfolioValue(ctx context.Context, wallet string, value float64, syncedAt time.Time) error
	TransfersForToken(ctx context.Context, wallet, fungibleID string) ([]models.Transfer, error)
	UpsertAnalytics(ctx context.Context, a models.TokenAnalytics) error
}

// Options are the flags §4.7 defines on the tracking-live command.
type Options struct {
	BalanceOnly      bool
	TransactionsOnly bool
	MinUSD           float64
	HoursLookback    int
	DeltaRelative    float64
}

// Tracker implements C7.
type Tracker struct {
	provider  provider.DataProvider
	ingestor  *ingest.Ingestor
	migration *migration.Handler
	fifoEng   *fifo.Engine
	store     Store
	priceNow  func(symbol, contract, chain string) *float64
	logger    *logger.Logger
}

func New(p provider.DataProvider, ingestor *ingest.Ingestor, mig *migration.Handler, fifoEng *fifo.Engine, store Store, priceNow func(symbol, contract, chain string) *float64, log *logger.Logger) *Tracker {
	return &Tracker{provider: p, ingestor: ingestor, migration: mig, fifoEng: fifoEng, store: store, priceNow: priceNow, logger: log}
}

// Track runs §4.7 steps 1-6 for one smart wallet.
func (t *Tracker) Track(ctx context.Context, wallet models.Wallet, opts Options) error {
	balances, err := t.provider.ListBalances(ctx, wallet.Address)
	if err != nil {
		return fmt.Errorf("listing balances: %w", err)
	}

	existing, err := t.store.TokenPositions(ctx, wallet.Address)
	if err != nil {
		return fmt.Errorf("loading token positions: %w", err)
	}
	byFungibleID := make(map[string]models.TokenPosition, len(existing))
	for _, p := range existing {
		byFungibleID[p.FungibleID] = p
	}

	seen := make(map[string]bool, len(balances))
	var portfolioValue float64
	var affected []provider.Balance

	if !opts.TransactionsOnly {
		for _, b := range balances {
			portfolioValue += b.USDValue
			seen[b.FungibleID] = true
			prior, existed := byFungibleID[b.FungibleID]

			change, hasChange := classify(prior, existed, b, opts.DeltaRelative)
			if hasChange {
				change.Wallet = wallet.Address
				if err := t.store.InsertPositionChange(ctx, change); err != nil {
					return fmt.Errorf("persisting position change: %w", err)
				}
				affected = append(affected, b)
			}

			if err := t.store.UpsertTokenPosition(ctx, models.TokenPosition{
				Wallet:               wallet.Address,
				FungibleID:           b.FungibleID,
				Symbol:               b.Symbol,
				ContractAddress:      b.ContractAddress,
				Chain:                b.Chain,
				CurrentAmount:        b.Amount,
				CurrentUSDValue:      b.USDValue,
				CurrentPricePerToken: b.PricePerToken,
				InPortfolio:          b.Amount > 0,
				LastUpdated:          time.Now(),
			}); err != nil {
				return fmt.Errorf("upserting token position: %w", err)
			}
		}

		// Positions that existed before but are absent now are EXIT changes.
		for fungibleID, prior := range byFungibleID {
			if seen[fungibleID] || !prior.InPortfolio {
				continue
			}
			change := models.PositionChange{
				Wallet: wallet.Address, FungibleID: fungibleID, ChangeType: models.ChangeExit,
				OldAmount: prior.CurrentAmount, NewAmount: 0,
				OldUSDValue: prior.CurrentUSDValue, NewUSDValue: 0,
				DetectedAt: time.Now(),
			}
			if err := t.store.InsertPositionChange(ctx, change); err != nil {
				return fmt.Errorf("persisting exit change: %w", err)
			}
			prior.InPortfolio = false
			prior.CurrentAmount = 0
			prior.CurrentUSDValue = 0
			if err := t.store.UpsertTokenPosition(ctx, prior); err != nil {
				return fmt.Errorf("upserting exited token position: %w", err)
			}
		}

		if err := t.store.UpdateWalletPortfolioValue(ctx, wallet.Address, portfolioValue, time.Now()); err != nil {
			return fmt.Errorf("updating wallet portfolio value: %w", err)
		}
	}

	if opts.BalanceOnly {
		return nil
	}

	for _, b := range affected {
		if b.USDValue < opts.MinUSD {
			continue
		}
		if err := t.ingestor.ReplaceHistory(ctx, wallet.Address, b.FungibleID); err != nil {
			t.logger.Warning("history replace failed", map[string]interface{}{"wallet": wallet.Address, "fungible_id": b.FungibleID, "error": err.Error()})
			continue
		}
		transfers, err := t.store.TransfersForToken(ctx, wallet.Address, b.FungibleID)
		if err != nil {
			t.logger.Warning("loading transfers for rebuild failed", map[string]interface{}{"wallet": wallet.Address, "fungible_id": b.FungibleID, "error": err.Error()})
			continue
		}
		priceFn := func() *float64 { return t.priceNow(b.Symbol, b.ContractAddress, b.Chain) }
		analytics := t.fifoEng.Compute(wallet.Address, b.FungibleID, b.Symbol, transfers, priceFn)
		if err := t.store.UpsertAnalytics(ctx, analytics); err != nil {
			t.logger.Warning("upserting analytics failed", map[string]interface{}{"wallet": wallet.Address, "fungible_id": b.FungibleID, "error": err.Error()})
		}
	}

	if t.migration != nil {
		if err := t.migration.Process(ctx, wallet); err != nil {
			t.logger.Warning("migration handler failed", map[string]interface{}{"wallet": wallet.Address, "error": err.Error()})
		}
	}

	return nil
}

// classify implements §4.7 step 2's per-token classification.
func classify(prior models.TokenPosition, existed bool, current provider.Balance, deltaRel float64) (models.PositionChange, bool) {
	now := time.Now()
	base := models.PositionChange{
		FungibleID: current.FungibleID,
		NewAmount:  current.Amount, NewUSDValue: current.USDValue, DetectedAt: now,
	}

	if !existed || !prior.InPortfolio {
		if current.Amount <= 0 {
			return models.PositionChange{}, false
		}
		base.ChangeType = models.ChangeNew
		base.OldAmount = 0
		base.OldUSDValue = 0
		return base, true
	}

	base.OldAmount = prior.CurrentAmount
	base.OldUSDValue = prior.CurrentUSDValue

	if current.Amount <= epsilonQty(prior.CurrentAmount) {
		base.ChangeType = models.ChangeExit
		return base, true
	}

	if prior.CurrentAmount <= 0 {
		return models.PositionChange{}, false
	}

	delta := (current.Amount - prior.CurrentAmount) / prior.CurrentAmount
	switch {
	case delta > deltaRel:
		base.ChangeType = models.ChangeAccumulation
		return base, true
	case delta < -deltaRel:
		base.ChangeType = models.ChangeReduction
		return base, true
	default:
		return models.PositionChange{}, false
	}
}

// epsilonQty treats a balance at or below 0.01% of the prior amount (never less
// than 1e-9) as "quantity ≈ 0" per §4.7.
func epsilonQty(priorAmount float64) float64 {
	return math.Max(priorAmount*0.0001, 1e-9)
}
