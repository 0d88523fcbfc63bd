// Package migration implements the Migration Handler (C8): detects large
// portfolio transfers to a new EOA and injects inherited cost basis, grounded on
// the upsert-ignore persistence idiom used throughout the storage layer and on
// the FIFO engine's cost-override contract (§4.3).
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/internal/ingest"
	"github.com/smartwallet/tracker/internal/provider"
	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// Store is the persistence boundary C8 needs.
type Store interface {
	// UpsertWalletIgnore creates wallet if absent; no-op if it already exists.
	UpsertWalletIgnore(ctx context.Context, wallet models.Wallet) error

	// ParentBuyTransfers returns the parent wallet's buy transfers for a symbol,
	// used to compute the weighted average buy price to inherit.
	ParentBuyTransfers(ctx context.Context, wallet, symbol string) ([]models.Transfer, error)

	// SetInheritedPriceWhereNull applies inherited_price_per_token to every
	// inbound Transfer row for (wallet, symbol) that doesn't have one yet —
	// the IS NULL guard that makes this idempotent.
	SetInheritedPriceWhereNull(ctx context.Context, wallet, symbol string, price float64, fromWallet string) (rowsUpdated int, err error)

	// InsertMigrationIgnore records the migration, ignoring a duplicate
	// (old, new, date) key.
	InsertMigrationIgnore(ctx context.Context, m models.WalletMigration) error
}

// Gates are the migration detection parameters (§6 migration.*).
type Gates struct {
	PortfolioFraction float64
	WindowHours       int
}

// Handler implements C8.
type Handler struct {
	provider provider.DataProvider
	ingestor *ingest.Ingestor
	store    Store
	gates    Gates
	logger   *logger.Logger
}

func New(p provider.DataProvider, ingestor *ingest.Ingestor, store Store, gates Gates, log *logger.Logger) *Handler {
	return &Handler{provider: p, ingestor: ingestor, store: store, gates: gates, logger: log}
}

// Process runs §4.8 steps 1-7 for one smart wallet.
func (h *Handler) Process(ctx context.Context, wallet models.Wallet) error {
	sends, err := h.provider.ListRecentSends(ctx, wallet.Address, h.gates.WindowHours)
	if err != nil {
		return fmt.Errorf("listing recent sends: %w", err)
	}

	byRecipient := make(map[string]float64)
	tokensByRecipient := make(map[string][]provider.Send)
	for _, send := range sends {
		byRecipient[send.RecipientAddress] += send.USDValue
		tokensByRecipient[send.RecipientAddress] = append(tokensByRecipient[send.RecipientAddress], send)
	}

	threshold := wallet.TotalPortfolioValueUSD * h.gates.PortfolioFraction
	for recipient, total := range byRecipient {
		if wallet.TotalPortfolioValueUSD <= 0 || total <= threshold {
			continue
		}
		if err := h.processCandidate(ctx, wallet, recipient, total, tokensByRecipient[recipient]); err != nil {
			if errs.IsIntegrityConflict(err) {
				continue
			}
			h.logger.Warning("migration candidate processing failed",
				map[string]interface{}{"parent": wallet.Address, "recipient": recipient, "error": err.Error()})
		}
	}
	return nil
}

func (h *Handler) processCandidate(ctx context.Context, parent models.Wallet, recipient string, totalValue float64, sends []provider.Send) error {
	eoa, err := h.provider.IsEOA(ctx, recipient)
	if err != nil {
		return fmt.Errorf("checking EOA status: %w", err)
	}
	if eoa == nil || !*eoa {
		// Ambiguous or a contract: reject per §4.8 step 3.
		return nil
	}

	if err := h.store.UpsertWalletIgnore(ctx, models.Wallet{
		Address:         recipient,
		DiscoveryPeriod: models.DiscoveryPeriodMigration,
		IsScored:        false,
		IsActive:        true,
	}); err != nil {
		return fmt.Errorf("upserting migration recipient wallet: %w", err)
	}

	tokens := make([]models.TransferredToken, 0, len(sends))
	symbols := map[string]bool{}
	for _, s := range sends {
		tokens = append(tokens, models.TransferredToken{
			Symbol:     s.Symbol,
			FungibleID: s.FungibleID,
			Quantity:   s.Quantity,
			ValueUSD:   s.USDValue,
		})
		symbols[s.Symbol] = true
		if s.FungibleID == "" {
			continue
		}
		if err := h.ingestor.ReplaceHistory(ctx, recipient, s.FungibleID); err != nil {
			h.logger.Warning("failed to backfill recipient history",
				map[string]interface{}{"recipient": recipient, "fungible_id": s.FungibleID, "error": err.Error()})
		}
	}

	for symbol := range symbols {
		if err := h.inheritCostBasis(ctx, parent.Address, recipient, symbol); err != nil {
			h.logger.Warning("cost-basis inheritance failed",
				map[string]interface{}{"parent": parent.Address, "recipient": recipient, "symbol": symbol, "error": err.Error()})
		}
	}

	return h.store.InsertMigrationIgnore(ctx, models.WalletMigration{
		OldWallet:             parent.Address,
		NewWallet:             recipient,
		MigrationDate:         time.Now(),
		TokensTransferred:     tokens,
		TotalValueTransferred: totalValue,
		TransferPercentage:    totalValue / parent.TotalPortfolioValueUSD * 100,
		IsValidated:           true,
	})
}

// inheritCostBasis computes the parent's weighted average buy price for symbol
// and applies it to every still-uninherited inbound Transfer row for the
// recipient (§4.8 step 6). The price_per_token column is never touched; the
// IS NULL guard in SetInheritedPriceWhereNull makes repeated runs converge
// (Invariant 4).
func (h *Handler) inheritCostBasis(ctx context.Context, parent, recipient, symbol string) error {
	buys, err := h.store.ParentBuyTransfers(ctx, parent, symbol)
	if err != nil {
		return fmt.Errorf("loading parent buy transfers: %w", err)
	}

	var qtySum, costSum float64
	for _, t := range buys {
		if t.PricePerToken == nil || *t.PricePerToken <= 0 {
			continue
		}
		qtySum += t.Quantity
		costSum += t.Quantity * *t.PricePerToken
	}
	if qtySum <= 0 {
		return nil
	}
	avgPrice := costSum / qtySum

	_, err = h.store.SetInheritedPriceWhereNull(ctx, recipient, symbol, avgPrice, parent)
	if err != nil {
		return fmt.Errorf("setting inherited price: %w", err)
	}
	return nil
}
