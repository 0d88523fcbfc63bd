// Package provider defines the small, swappable capability interfaces the core
// depends on (Design Note "Polymorphism over providers"): the on-chain data
// provider and the EOA check. Price oracle access lives in internal/price, kept
// separate because C1 has its own fallback and caching behavior.
package provider

import (
	"context"
	"time"

	"github.com/smartwallet/tracker/pkg/models"
)

// Balance is one wallet holding as reported by the data provider.
type Balance struct {
	FungibleID      string
	Symbol          string
	ContractAddress string
	Chain           string
	Amount          float64
	USDValue        float64
	PricePerToken   float64
}

// TransferPage is one page of raw transfers, already normalized into the Transfer
// schema, plus a cursor for resuming a lazy, coroutine-style walk (Design Note
// "Coroutine-style pagination").
type TransferPage struct {
	Transfers []models.Transfer
	NextCursor string
	HasMore   bool
}

// Send is an outgoing transfer observed in a recent window, used by C8 to find
// migration candidates.
type Send struct {
	Wallet              string
	RecipientAddress    string
	FungibleID          string
	Symbol              string
	Quantity            float64
	USDValue            float64
	Timestamp           time.Time
}

// DataProvider is the on-chain data provider boundary (§6): list balances, list
// transfers paginated, and classify an address as EOA or contract.
type DataProvider interface {
	// ListBalances returns every current holding for a wallet.
	ListBalances(ctx context.Context, wallet string) ([]Balance, error)

	// ListTransfers returns one page of transfers for (wallet, fungibleID); pass
	// fungibleID="" to list across all tokens. cursor="" starts from the beginning.
	ListTransfers(ctx context.Context, wallet, fungibleID, cursor string) (TransferPage, error)

	// ListRecentSends returns outgoing transfers within the last sinceHours, used
	// by C8 step 1.
	ListRecentSends(ctx context.Context, wallet string, sinceHours int) ([]Send, error)

	// IsEOA classifies an address. A nil bool with err==nil means the provider
	// could not determine the answer (ambiguous) — C8 treats that as rejection.
	IsEOA(ctx context.Context, address string) (*bool, error)
}

// FetchFullHistory drains a DataProvider's paginated ListTransfers into a single
// slice, matching §4.2's fetch_full_history contract. It is a thin convenience
// over the lazy cursor sequence for callers that want the whole history at once
// (discovery backfill); callers that want incremental batching should drive
// ListTransfers directly and write every N items, per Design Note "Coroutine-style
// pagination".
func FetchFullHistory(ctx context.Context, p DataProvider, wallet, fungibleID string) ([]models.Transfer, error) {
	var out []models.Transfer
	cursor := ""
	for {
		page, err := p.ListTransfers(ctx, wallet, fungibleID, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Transfers...)
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	return out, nil
}
