// Package price implements the Price Resolver (C1): stablecoin pinning, then a
// primary oracle with secondary fallback, with unknown prices surfacing as a
// Quote with Source "none" rather than an error (callers must treat it as
// "cannot value").
package price

import (
	"context"
	"fmt"
	"time"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// Quote is a resolved USD price and the source that produced it.
type Quote struct {
	USDPrice float64
	Source   string // "stablecoin" | "cache" | "primary" | "secondary" | "none"
}

// OracleClient is the external spot-price oracle boundary (§6): price(contract,
// chain) -> (usd_price, source) | null. Implementations must be idempotent and
// side-effect-free.
type OracleClient interface {
	Price(ctx context.Context, contract, chain string) (*float64, error)
}

// Cache is the read-through price cache decorator (§2.2, §4.1), backed by Redis
// in production so C7's periodic valuation pass does not refetch the same
// contract's price once per wallet holding it.
type Cache interface {
	Get(ctx context.Context, key string) (*float64, bool, error)
	Set(ctx context.Context, key string, price float64, ttl time.Duration) error
}

// Resolver implements C1.
type Resolver struct {
	primary     OracleClient
	secondary   OracleClient
	cache       Cache
	cacheTTL    time.Duration
	stablecoins map[string]struct{}
	logger      *logger.Logger
}

// New builds a Resolver. stablecoins is the configured pin set (USDT, USDC, ...).
func New(primary, secondary OracleClient, cache Cache, cacheTTL time.Duration, stablecoins []string, log *logger.Logger) *Resolver {
	set := make(map[string]struct{}, len(stablecoins))
	for _, s := range stablecoins {
		set[s] = struct{}{}
	}
	return &Resolver{
		primary:     primary,
		secondary:   secondary,
		cache:       cache,
		cacheTTL:    cacheTTL,
		stablecoins: set,
		logger:      log,
	}
}

// IsStablecoin reports whether symbol is in the configured pin set.
func (r *Resolver) IsStablecoin(symbol string) bool {
	_, ok := r.stablecoins[symbol]
	return ok
}

// Price resolves a USD price for (contract, chain), pinning stablecoins to
// exactly $1.00. A Quote with Source "none" (USDPrice 0) and nil error means
// the price is genuinely unknown — analytics must value the position at cost
// basis.
func (r *Resolver) Price(ctx context.Context, symbol, contract, chain string) (*Quote, error) {
	if r.IsStablecoin(symbol) {
		return &Quote{USDPrice: 1.0, Source: "stablecoin"}, nil
	}

	cacheKey := fmt.Sprintf("price:%s:%s", chain, contract)
	if r.cache != nil {
		if cached, ok, err := r.cache.Get(ctx, cacheKey); err == nil && ok && cached != nil {
			return &Quote{USDPrice: *cached, Source: "cache"}, nil
		}
	}

	price, err := r.primary.Price(ctx, contract, chain)
	source := "primary"
	if err != nil || price == nil {
		if err != nil {
			r.logger.Warning("primary oracle failed, falling back to secondary",
				map[string]interface{}{"contract": contract, "chain": chain, "error": err.Error()})
		}
		price, err = r.secondary.Price(ctx, contract, chain)
		source = "secondary"
		if err != nil {
			return nil, errs.AsTransient(fmt.Errorf("secondary oracle: %w", err))
		}
	}

	if price == nil {
		r.logger.Debug("price unknown", map[string]interface{}{"contract": contract, "chain": chain})
		return &Quote{USDPrice: 0, Source: "none"}, nil
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, cacheKey, *price, r.cacheTTL)
	}

	return &Quote{USDPrice: *price, Source: source}, nil
}
