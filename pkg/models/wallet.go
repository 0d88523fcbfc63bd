package models

import "time"

// DiscoveryPeriod tags how a wallet entered the system.
type DiscoveryPeriod string

const (
	DiscoveryPeriod14d      DiscoveryPeriod = "14d"
	DiscoveryPeriod30d      DiscoveryPeriod = "30d"
	DiscoveryPeriod200d     DiscoveryPeriod = "200d"
	DiscoveryPeriod360d     DiscoveryPeriod = "360d"
	DiscoveryPeriodManual   DiscoveryPeriod = "manual"
	DiscoveryPeriodMigration DiscoveryPeriod = "migration"
)

// Wallet is the root entity: one row per on-chain address the system tracks.
type Wallet struct {
	Address                string          `json:"address"`
	DiscoveryPeriod         DiscoveryPeriod `json:"discovery_period"`
	TotalPortfolioValueUSD  float64         `json:"total_portfolio_value_usd"`
	IsActive                bool            `json:"is_active"`
	IsScored                bool            `json:"is_scored"`
	TransactionsExtracted   bool            `json:"transactions_extracted"`
	LastSync                time.Time       `json:"last_sync"`
}

// TokenPosition is the current-state snapshot of one wallet's holding in one token.
// Uniqueness invariant: exactly one row per (Wallet, FungibleID).
type TokenPosition struct {
	Wallet               string    `json:"wallet"`
	FungibleID           string    `json:"fungible_id"`
	Symbol               string    `json:"symbol"`
	ContractAddress      string    `json:"contract_address"`
	Chain                string    `json:"chain"`
	CurrentAmount        float64   `json:"current_amount"`
	CurrentUSDValue      float64   `json:"current_usd_value"`
	CurrentPricePerToken float64   `json:"current_price_per_token"`
	InPortfolio          bool      `json:"in_portfolio"`
	LastUpdated          time.Time `json:"last_updated"`
}
