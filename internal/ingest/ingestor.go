// Package ingest implements the Transfer Ingestor (C2): pulls per-wallet,
// per-token transfer history from the data provider, normalizes it, and
// deduplicates by transaction hash through the persistence layer's upsert-ignore.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/internal/provider"
	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// Store is the persistence boundary the ingestor needs: replace a (wallet,
// fungible_id) transfer history atomically, or upsert-ignore individual rows.
type Store interface {
	ReplaceTransferHistory(ctx context.Context, wallet, fungibleID string, transfers []models.Transfer) error
	UpsertTransfersIgnore(ctx context.Context, transfers []models.Transfer) (inserted int, err error)
}

// IngestError surfaces a persistent per-(wallet, token) failure, per §4.2 —
// existing rows are left intact.
type IngestError struct {
	Wallet string
	Token  string
	Reason string
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest failed for wallet=%s token=%s: %s", e.Wallet, e.Token, e.Reason)
}

// Ingestor implements C2's three operations.
type Ingestor struct {
	provider   provider.DataProvider
	store      Store
	maxRetries int
	logger     *logger.Logger
}

func New(p provider.DataProvider, store Store, maxRetries int, log *logger.Logger) *Ingestor {
	return &Ingestor{provider: p, store: store, maxRetries: maxRetries, logger: log}
}

// FetchFullHistory performs a paginated retrieval of all transfers for one
// wallet and one token, retrying transient provider errors with exponential
// backoff (max maxRetries), and returns an *IngestError on persistent failure
// without mutating any existing rows.
func (i *Ingestor) FetchFullHistory(ctx context.Context, wallet, fungibleID string) ([]models.Transfer, error) {
	var transfers []models.Transfer
	var err error
	for attempt := 0; attempt <= i.maxRetries; attempt++ {
		transfers, err = provider.FetchFullHistory(ctx, i.provider, wallet, fungibleID)
		if err == nil {
			return transfers, nil
		}
		if !errs.IsTransient(err) {
			break
		}
		backoff := time.Duration(1<<attempt) * 200 * time.Millisecond
		i.logger.Warning("transient ingest failure, retrying",
			map[string]interface{}{"wallet": wallet, "fungible_id": fungibleID, "attempt": attempt, "backoff_ms": backoff.Milliseconds()})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, &IngestError{Wallet: wallet, Token: fungibleID, Reason: err.Error()}
}

// FetchRecentSends returns outgoing transfers within the window, used by C8.
func (i *Ingestor) FetchRecentSends(ctx context.Context, wallet string, sinceHours int) ([]provider.Send, error) {
	sends, err := i.provider.ListRecentSends(ctx, wallet, sinceHours)
	if err != nil {
		return nil, &IngestError{Wallet: wallet, Reason: err.Error()}
	}
	return sends, nil
}

// ReplaceHistory deletes the existing rows for (wallet, fungibleID) and inserts
// the freshly fetched set, eliminating dedup edge cases when pagination
// boundaries shift (§4.2 rationale).
func (i *Ingestor) ReplaceHistory(ctx context.Context, wallet, fungibleID string) error {
	transfers, err := i.FetchFullHistory(ctx, wallet, fungibleID)
	if err != nil {
		return err
	}
	if err := i.store.ReplaceTransferHistory(ctx, wallet, fungibleID, transfers); err != nil {
		return fmt.Errorf("replacing transfer history: %w", err)
	}
	return nil
}

// IngestIncremental upserts a batch of already-fetched transfers, used when a
// provider response is ingested directly (e.g. discovery backfill) rather than
// via a full replace. Re-ingesting the same batch is a no-op (Invariant 5).
func (i *Ingestor) IngestIncremental(ctx context.Context, transfers []models.Transfer) (int, error) {
	inserted, err := i.store.UpsertTransfersIgnore(ctx, transfers)
	if err != nil {
		if errs.IsIntegrityConflict(err) {
			return inserted, nil
		}
		return 0, fmt.Errorf("upserting transfers: %w", err)
	}
	return inserted, nil
}
