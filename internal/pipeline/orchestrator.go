package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/smartwallet/tracker/internal/consensus"
	"github.com/smartwallet/tracker/internal/fifo"
	"github.com/smartwallet/tracker/internal/gateway"
	"github.com/smartwallet/tracker/internal/ingest"
	"github.com/smartwallet/tracker/internal/migration"
	"github.com/smartwallet/tracker/internal/notify"
	"github.com/smartwallet/tracker/internal/price"
	"github.com/smartwallet/tracker/internal/provider"
	"github.com/smartwallet/tracker/internal/scoring"
	"github.com/smartwallet/tracker/internal/threshold"
	"github.com/smartwallet/tracker/internal/tier"
	"github.com/smartwallet/tracker/internal/tracker"
	"github.com/smartwallet/tracker/internal/workerpool"
	"github.com/smartwallet/tracker/pkg/models"
	"github.com/smartwallet/tracker/pkg/utils/config"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// discoveryPeriods are the automated periods the discovery stage seeds;
// "manual" and "migration" wallets enter the system through other paths.
var discoveryPeriods = []models.DiscoveryPeriod{
	models.DiscoveryPeriod14d, models.DiscoveryPeriod30d,
	models.DiscoveryPeriod200d, models.DiscoveryPeriod360d,
}

// Orchestrator wires C1-C9 and the persistence layer into the named stages the
// CLI drives (§6), generalized from the teacher's fixed Pipeline/Processor
// registry into one struct exposing a Run* method per stage.
type Orchestrator struct {
	cfg    *config.Config
	logger *logger.Logger

	stores    *Stores
	clients   *gateway.ClientSet
	resolver  *price.Resolver
	fifoEng   *fifo.Engine
	ingestor  *ingest.Ingestor
	migration *migration.Handler
	tracker   *tracker.Tracker
	scorer    *scoring.Scorer
	tiers     *tier.Analyzer
	selector  *threshold.Selector
	consensus *consensus.Detector

	poolSize int
}

// New builds the Orchestrator from a loaded config, connected stores and a
// connected gateway client set, wiring every domain component; it is called
// from cmd/oracle/startup when the application is assembled.
func New(cfg *config.Config, log *logger.Logger, stores *Stores, clients *gateway.ClientSet, priceCache price.Cache, sink notify.Sink) *Orchestrator {
	resolver := price.New(clients.Primary, clients.Secondary, priceCache,
		time.Duration(cfg.Oracle.CacheTTLSeconds)*time.Second, cfg.Consensus.Stablecoins, log)

	fifoEng := fifo.New(log)
	ingestor := ingest.New(clients.Provider, stores, cfg.Provider.MaxRetries, log)
	migrationHandler := migration.New(clients.Provider, ingestor, stores, migration.Gates{
		PortfolioFraction: cfg.Migration.PortfolioFraction,
		WindowHours:       cfg.Migration.WindowHours,
	}, log)

	priceNow := func(symbol, contract, chain string) *float64 {
		q, err := resolver.Price(context.Background(), symbol, contract, chain)
		if err != nil || q == nil || q.Source == "none" {
			return nil
		}
		return &q.USDPrice
	}

	trk := tracker.New(clients.Provider, ingestor, migrationHandler, fifoEng, stores, priceNow, log)
	scorer := scoring.New(scoring.Gates{
		MinScore: cfg.Scoring.MinScore, MinWeightedROI: cfg.Scoring.MinWeightedROI, MinTrades: cfg.Scoring.MinTrades,
	})
	tiers := tier.New(cfg.Tiers.Grid)
	selector := threshold.New(threshold.Gates{
		MinTrades: cfg.Threshold.MinTrades, MinWinRate: cfg.Threshold.MinWinRate, ROICap: cfg.Threshold.ROICap,
	})
	detector := consensus.New(clients.Market, resolver, stores, sink, consensus.Gates{
		MinWhales: cfg.Consensus.MinWhales, WindowHours: cfg.Consensus.WindowHours,
		McapMin: cfg.Consensus.McapMin, McapMax: cfg.Consensus.McapMax,
	}, log)

	return &Orchestrator{
		cfg: cfg, logger: log, stores: stores, clients: clients,
		resolver: resolver, fifoEng: fifoEng, ingestor: ingestor, migration: migrationHandler,
		tracker: trk, scorer: scorer, tiers: tiers, selector: selector, consensus: detector,
		poolSize: cfg.WorkerPool.Size,
	}
}

// RunDiscovery implements the `discovery` command: pulls candidate addresses
// per automated period from the seed-wallet discovery source, registers new
// wallets, and backfills full transfer history for every held token.
func (o *Orchestrator) RunDiscovery(ctx context.Context) (int, error) {
	var totalFailed int
	for _, period := range discoveryPeriods {
		candidates, err := o.clients.Discovery.Candidates(ctx, string(period))
		if err != nil {
			o.logger.Warning("discovery source failed", map[string]interface{}{"period": period, "error": err.Error()})
			continue
		}
		o.logger.Info("discovery candidates fetched", map[string]interface{}{"period": period, "count": len(candidates)})

		results := workerpool.Run(ctx, o.poolSize, candidates, func(a string) string { return a },
			func(ctx context.Context, address string) error {
				if err := o.stores.UpsertWalletIgnore(ctx, models.Wallet{
					Address: address, DiscoveryPeriod: period, IsActive: true, LastSync: time.Now(),
				}); err != nil {
					return err
				}
				balances, err := o.clients.Provider.ListBalances(ctx, address)
				if err != nil {
					return fmt.Errorf("listing balances: %w", err)
				}
				for _, b := range balances {
					if b.FungibleID == "" {
						continue
					}
					if err := o.ingestor.ReplaceHistory(ctx, address, b.FungibleID); err != nil {
						o.logger.Warning("backfill failed", map[string]interface{}{"wallet": address, "fungible_id": b.FungibleID, "error": err.Error()})
					}
				}
				return nil
			})
		totalFailed += logFailures(o.logger, "discovery", results)
	}
	return totalFailed, nil
}

// RunScoring implements the `scoring` command: recomputes Token Analytics from
// each active wallet's Transfer log (backfilling it first if never extracted),
// then runs the Scorer over the refreshed analytics (§4.3, §4.4).
func (o *Orchestrator) RunScoring(ctx context.Context) (int, error) {
	wallets, err := o.stores.WalletRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing active wallets: %w", err)
	}

	results := workerpool.Run(ctx, o.poolSize, wallets, func(w models.Wallet) string { return w.Address },
		func(ctx context.Context, w models.Wallet) error {
			balances, err := o.clients.Provider.ListBalances(ctx, w.Address)
			if err != nil {
				return fmt.Errorf("listing balances: %w", err)
			}

			for _, b := range balances {
				if b.FungibleID == "" {
					continue
				}
				if !w.TransactionsExtracted {
					if err := o.ingestor.ReplaceHistory(ctx, w.Address, b.FungibleID); err != nil {
						o.logger.Warning("history fetch failed", map[string]interface{}{"wallet": w.Address, "fungible_id": b.FungibleID, "error": err.Error()})
						continue
					}
				}
				transfers, err := o.stores.TransfersForToken(ctx, w.Address, b.FungibleID)
				if err != nil {
					o.logger.Warning("loading transfers failed", map[string]interface{}{"wallet": w.Address, "fungible_id": b.FungibleID, "error": err.Error()})
					continue
				}
				if len(transfers) == 0 {
					continue
				}
				priceFn := func() *float64 {
					q, err := o.resolver.Price(ctx, b.Symbol, b.ContractAddress, b.Chain)
					if err != nil || q == nil || q.Source == "none" {
						return nil
					}
					return &q.USDPrice
				}
				analytics := o.fifoEng.Compute(w.Address, b.FungibleID, b.Symbol, transfers, priceFn)
				if err := o.stores.UpsertAnalytics(ctx, analytics); err != nil {
					o.logger.Warning("upserting analytics failed", map[string]interface{}{"wallet": w.Address, "fungible_id": b.FungibleID, "error": err.Error()})
				}
			}

			allAnalytics, err := o.stores.AnalyticsRepo.ForWallet(ctx, w.Address)
			if err != nil {
				return fmt.Errorf("loading analytics: %w", err)
			}
			qualified := o.scorer.Compute(allAnalytics)
			qualified.Wallet = w.Address
			if err := o.stores.QualifiedRepo.Upsert(ctx, qualified); err != nil {
				return fmt.Errorf("upserting qualified wallet: %w", err)
			}

			w.IsScored = true
			w.TransactionsExtracted = true
			return o.stores.UpsertWallet(ctx, w)
		})
	return logFailures(o.logger, "scoring", results), nil
}

// RunSmartWallets implements the `smartwallets` command: runs the Tier
// Analyzer and Threshold Selector over every qualified wallet and elects the
// ones clearing the qualification gates (§4.4-§4.6), tagging migration-origin
// elections as MIGRATION per §4.8.
func (o *Orchestrator) RunSmartWallets(ctx context.Context) (int, error) {
	qualifiedWallets, err := o.stores.QualifiedRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing qualified wallets: %w", err)
	}

	results := workerpool.Run(ctx, o.poolSize, qualifiedWallets, func(q models.QualifiedWallet) string { return q.Wallet },
		func(ctx context.Context, q models.QualifiedWallet) error {
			if !o.scorer.Qualifies(q) {
				return nil
			}

			analytics, err := o.stores.AnalyticsRepo.ForWallet(ctx, q.Wallet)
			if err != nil {
				return fmt.Errorf("loading analytics: %w", err)
			}
			tiers := o.tiers.Compute(q.Wallet, analytics)
			result := o.selector.Select(tiers)
			for i := range tiers {
				tiers[i].IsOptimalTier = result.OptimalTier != nil && tiers[i].TierUSD == result.OptimalTier.TierUSD
				if err := o.stores.TierRepo.UpsertTier(ctx, q.Wallet, tiers[i]); err != nil {
					o.logger.Warning("upserting tier failed", map[string]interface{}{"wallet": q.Wallet, "tier_usd": tiers[i].TierUSD, "error": err.Error()})
				}
			}

			if result.Status == models.ThresholdNeutral || result.Status == models.ThresholdNoReliableTier {
				return nil
			}

			wallet, err := o.stores.WalletRepo.Get(ctx, q.Wallet)
			if err != nil {
				return fmt.Errorf("loading wallet: %w", err)
			}
			status := result.Status
			if wallet != nil && wallet.DiscoveryPeriod == models.DiscoveryPeriodMigration {
				status = models.ThresholdMigration
			}

			sw := models.SmartWallet{
				Wallet: q.Wallet, OptimalThresholdTier: result.OptimalThresholdTier,
				QualityScore: result.QualityScore, ThresholdStatus: status,
				GlobalMetrics: q, ElectedAt: time.Now(),
			}
			if result.OptimalTier != nil {
				sw.OptimalTierMetrics = *result.OptimalTier
			}
			return o.stores.SmartWalletRepo.Upsert(ctx, sw)
		})
	return logFailures(o.logger, "smartwallets", results), nil
}

// RunConsensus implements the `consensus` command: gathers every active smart
// wallet's recent buys and runs the Consensus Detector (§4.9).
func (o *Orchestrator) RunConsensus(ctx context.Context) error {
	smartWallets, err := o.stores.SmartWalletRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("listing smart wallets: %w", err)
	}
	addresses := make([]string, len(smartWallets))
	for i, sw := range smartWallets {
		addresses[i] = sw.Wallet
	}

	transfers, err := o.stores.TransferRepo.RecentBuys(ctx, addresses, o.cfg.Consensus.WindowHours)
	if err != nil {
		return fmt.Errorf("loading recent buys: %w", err)
	}

	buys := make([]consensus.RecentBuy, 0, len(transfers))
	for _, t := range transfers {
		usdValue := t.EffectiveUnitCost() * t.Quantity
		buys = append(buys, consensus.RecentBuy{
			Wallet: t.Wallet, Symbol: t.Symbol, ContractAddress: t.ContractAddress,
			USDValue: usdValue, Timestamp: t.Timestamp,
		})
	}

	signals, err := o.consensus.Detect(ctx, buys, time.Now())
	if err != nil {
		return fmt.Errorf("detecting consensus: %w", err)
	}
	o.logger.Info("consensus detection complete", map[string]interface{}{"signals": len(signals)})
	return nil
}

// RunTrackingLive implements the `tracking-live` command: diffs every active
// smart wallet's balances against its Token Position rows (§4.7).
func (o *Orchestrator) RunTrackingLive(ctx context.Context, opts tracker.Options) (int, error) {
	smartWallets, err := o.stores.SmartWalletRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing smart wallets: %w", err)
	}

	results := workerpool.Run(ctx, o.poolSize, smartWallets, func(sw models.SmartWallet) string { return sw.Wallet },
		func(ctx context.Context, sw models.SmartWallet) error {
			wallet, err := o.stores.WalletRepo.Get(ctx, sw.Wallet)
			if err != nil {
				return fmt.Errorf("loading wallet: %w", err)
			}
			if wallet == nil {
				return fmt.Errorf("wallet %s not found", sw.Wallet)
			}
			return o.tracker.Track(ctx, *wallet, opts)
		})
	return logFailures(o.logger, "tracking-live", results), nil
}

// RunBacktest implements the `backtest` command: a read-only replay of already
// persisted Token Analytics against the current tier grid and threshold gates,
// reporting what would have qualified without mutating any state (§1
// Non-goals: no trade execution or synthetic order generation).
func (o *Orchestrator) RunBacktest(ctx context.Context) ([]threshold.Result, error) {
	qualifiedWallets, err := o.stores.QualifiedRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing qualified wallets: %w", err)
	}

	var results []threshold.Result
	for _, q := range qualifiedWallets {
		if !o.scorer.Qualifies(q) {
			continue
		}
		analytics, err := o.stores.AnalyticsRepo.ForWallet(ctx, q.Wallet)
		if err != nil {
			o.logger.Warning("loading analytics failed", map[string]interface{}{"wallet": q.Wallet, "error": err.Error()})
			continue
		}
		tiers := o.tiers.Compute(q.Wallet, analytics)
		results = append(results, o.selector.Select(tiers))
	}
	return results, nil
}

func logFailures(log *logger.Logger, stage string, results []workerpool.UnitResult) int {
	var failed int
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		log.Warning("stage unit failed", map[string]interface{}{"stage": stage, "wallet": r.Key, "error": r.Err.Error()})
	}
	log.Info("stage complete", map[string]interface{}{"stage": stage, "total": len(results), "failed": failed})
	return failed
}

var _ provider.DataProvider = (*gateway.Provider)(nil)
