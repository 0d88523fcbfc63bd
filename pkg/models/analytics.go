package models

import "time"

// AnalyticsStatus classifies a (wallet, token) analytics row by realized performance.
type AnalyticsStatus string

const (
	StatusGagnant        AnalyticsStatus = "GAGNANT"
	StatusPerdant        AnalyticsStatus = "PERDANT"
	StatusNeutre         AnalyticsStatus = "NEUTRE"
	StatusAirdropGagnant AnalyticsStatus = "AIRDROP_GAGNANT"
)

// TokenAnalytics is derived per (wallet, token) by the FIFO engine (C3) and
// recomputed idempotently from the Transfer log — it is an upsert-by-key table,
// never an append log (Design Note "Cyclic analytics / re-entrancy").
type TokenAnalytics struct {
	Wallet               string          `json:"wallet"`
	FungibleID           string          `json:"fungible_id"`
	Symbol               string          `json:"symbol"`
	TotalInvestedUSD     float64         `json:"total_invested_usd"`
	TotalRealizedUSD     float64         `json:"total_realized_usd"`
	GainsAirdropsUSD     float64         `json:"gains_airdrops_usd"`
	CurrentValueUSD      float64         `json:"current_value_usd"`
	ProfitLossUSD        float64         `json:"profit_loss_usd"`
	ROIPercentage        float64         `json:"roi_percentage"`
	RemainingQuantity    float64         `json:"remaining_quantity"`
	RemainingCostBasis   float64         `json:"remaining_cost_basis"`
	WeightedAvgBuyPrice  float64         `json:"weighted_avg_buy_price"`
	WeightedAvgSellPrice float64         `json:"weighted_avg_sell_price"`
	Status               AnalyticsStatus `json:"status"`
	FirstTransactionDate time.Time       `json:"first_transaction_date"`
	LastTransactionDate  time.Time       `json:"last_transaction_date"`
}

// Classification is the C4 scoring band.
type Classification string

const (
	ClassificationElite     Classification = "ELITE"
	ClassificationExcellent Classification = "EXCELLENT"
	ClassificationBon       Classification = "BON"
	ClassificationMoyen     Classification = "MOYEN"
	ClassificationFaible    Classification = "FAIBLE"
)

// QualifiedWallet is one row per wallet that clears the C4 qualification gates.
type QualifiedWallet struct {
	Wallet         string         `json:"wallet"`
	Score          float64        `json:"score"`
	WeightedROI    float64        `json:"weighted_roi"`
	WinRate        float64        `json:"win_rate"`
	TradeCount     int            `json:"trade_count"`
	Classification Classification `json:"classification"`
}

// TierPerformance is one row per (wallet, tier_usd) written by C5.
type TierPerformance struct {
	Wallet          string  `json:"wallet"`
	TierUSD         float64 `json:"tier_usd"`
	ROIPercentage   float64 `json:"roi_percentage"`
	WinRate         float64 `json:"win_rate"`
	NTrades         int     `json:"n_trades"`
	NWinners        int     `json:"n_winners"`
	NLosers         int     `json:"n_losers"`
	NNeutral        int     `json:"n_neutral"`
	TotalInvested   float64 `json:"total_invested"`
	IsOptimalTier   bool    `json:"is_optimal_tier"`
}

// ThresholdStatus is the C6 quality-score band a smart wallet is tagged with.
type ThresholdStatus string

const (
	ThresholdExceptional    ThresholdStatus = "EXCEPTIONAL"
	ThresholdExcellent      ThresholdStatus = "EXCELLENT"
	ThresholdGood           ThresholdStatus = "GOOD"
	ThresholdAverage        ThresholdStatus = "AVERAGE"
	ThresholdPoor           ThresholdStatus = "POOR"
	ThresholdNeutral        ThresholdStatus = "NEUTRAL"
	ThresholdNoReliableTier ThresholdStatus = "NO_RELIABLE_TIERS"
	ThresholdManual         ThresholdStatus = "MANUAL"
	ThresholdMigration      ThresholdStatus = "MIGRATION"
)

// SmartWallet is an elected wallet: qualified, and passing threshold selection
// above NEUTRAL.
type SmartWallet struct {
	Wallet               string          `json:"wallet"`
	OptimalThresholdTier float64         `json:"optimal_threshold_tier"`
	QualityScore         float64         `json:"quality_score"`
	ThresholdStatus      ThresholdStatus `json:"threshold_status"`
	OptimalTierMetrics   TierPerformance `json:"optimal_tier_metrics"`
	GlobalMetrics        QualifiedWallet `json:"global_metrics"`
	ElectedAt            time.Time       `json:"elected_at"`
}
