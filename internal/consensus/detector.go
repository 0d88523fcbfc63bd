// Package consensus implements the Consensus Detector (C9): groups recent
// smart-wallet buys by token and emits a signal when enough distinct wallets
// converge, grounded on the grouping/threshold/upsert-by-key pattern used for
// coordinated-cluster detection elsewhere in the example pack.
package consensus

import (
	"context"
	"fmt"
	"time"

	"github.com/smartwallet/tracker/internal/notify"
	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// RecentBuy is one smart wallet's qualifying buy inside the rolling window.
type RecentBuy struct {
	Wallet          string
	Symbol          string
	ContractAddress string
	Chain           string
	USDValue        float64
	Timestamp       time.Time
}

// MarketData is the market-cap/liquidity enrichment source (§4.9).
type MarketData interface {
	MarketCap(ctx context.Context, contractAddress string) (float64, error)
	Liquidity(ctx context.Context, contractAddress string) (float64, error)
}

// Stablecoins reports whether a symbol is in the pinned stablecoin set (shared
// with the Price Resolver, C1).
type Stablecoins interface {
	IsStablecoin(symbol string) bool
}

// Store is the persistence boundary C9 needs: upsert by (contract, period_start).
type Store interface {
	UpsertConsensusSignal(ctx context.Context, s models.ConsensusSignal) (changed bool, err error)
}

// Gates are the detection parameters (§6 consensus.*).
type Gates struct {
	MinWhales   int
	WindowHours int
	McapMin     float64
	McapMax     float64
}

// Detector implements C9.
type Detector struct {
	market      MarketData
	stablecoins Stablecoins
	store       Store
	sink        notify.Sink
	gates       Gates
	logger      *logger.Logger
}

func New(market MarketData, stablecoins Stablecoins, store Store, sink notify.Sink, gates Gates, log *logger.Logger) *Detector {
	return &Detector{market: market, stablecoins: stablecoins, store: store, sink: sink, gates: gates, logger: log}
}

// Detect implements §4.9: group buys by contract, filter by market cap and
// stablecoin set, and emit a Consensus Signal when whale_count clears the
// configured minimum. now is passed in explicitly (no wall-clock calls inside
// this component) so detection is reproducible in tests.
func (d *Detector) Detect(ctx context.Context, buys []RecentBuy, now time.Time) ([]models.ConsensusSignal, error) {
	windowStart := now.Add(-time.Duration(d.gates.WindowHours) * time.Hour)

	type group struct {
		symbol          string
		contract        string
		chain           string
		wallets         map[string]bool
		totalInvestment float64
		firstBuy        time.Time
		lastBuy         time.Time
	}
	groups := make(map[string]*group)

	for _, b := range buys {
		if b.Timestamp.Before(windowStart) || b.Timestamp.After(now) {
			continue
		}
		g, ok := groups[b.ContractAddress]
		if !ok {
			g = &group{symbol: b.Symbol, contract: b.ContractAddress, chain: b.Chain,
				wallets: map[string]bool{}, firstBuy: b.Timestamp, lastBuy: b.Timestamp}
			groups[b.ContractAddress] = g
		}
		g.wallets[b.Wallet] = true
		g.totalInvestment += b.USDValue
		if b.Timestamp.Before(g.firstBuy) {
			g.firstBuy = b.Timestamp
		}
		if b.Timestamp.After(g.lastBuy) {
			g.lastBuy = b.Timestamp
		}
	}

	periodStart := windowStart
	periodEnd := now
	var signals []models.ConsensusSignal

	for contract, g := range groups {
		if d.stablecoins.IsStablecoin(g.symbol) {
			continue
		}
		mcap, err := d.market.MarketCap(ctx, contract)
		if err != nil {
			d.logger.Warning("market cap lookup failed", map[string]interface{}{"contract": contract, "error": err.Error()})
			continue
		}
		if mcap < d.gates.McapMin || mcap > d.gates.McapMax {
			continue
		}

		whaleCount := len(g.wallets)
		if whaleCount < d.gates.MinWhales {
			continue
		}

		addresses := make([]string, 0, len(g.wallets))
		for w := range g.wallets {
			addresses = append(addresses, w)
		}

		signal := models.ConsensusSignal{
			Symbol:          g.symbol,
			ContractAddress: contract,
			DetectionDate:   now,
			WhaleCount:      whaleCount,
			TotalInvestment: g.totalInvestment,
			FirstBuy:        g.firstBuy,
			LastBuy:         g.lastBuy,
			IsActive:        true,
			PeriodStart:     periodStart,
			PeriodEnd:       periodEnd,
			WalletAddresses: addresses,
		}

		changed, err := d.store.UpsertConsensusSignal(ctx, signal)
		if err != nil {
			return nil, fmt.Errorf("upserting consensus signal: %w", err)
		}
		signals = append(signals, signal)

		if changed && d.sink != nil {
			liquidity, _ := d.market.Liquidity(ctx, contract)
			if err := d.sink.Emit(ctx, notify.Signal{
				Symbol: g.symbol, Contract: contract, Chain: g.chain,
				WhaleCount: whaleCount, TotalInvestmentUSD: g.totalInvestment,
				FirstBuyISO8601: g.firstBuy.Format(time.RFC3339), LastBuyISO8601: g.lastBuy.Format(time.RFC3339),
				Mcap: mcap, Liquidity: liquidity, WalletAddresses: addresses,
			}); err != nil {
				d.logger.Warning("notification sink emit failed", map[string]interface{}{"contract": contract, "error": err.Error()})
			}
		}
	}

	return signals, nil
}
