package models

import "time"

// ChangeType classifies one position diff detected by the Live Tracker (C7).
type ChangeType string

const (
	ChangeNew          ChangeType = "NEW"
	ChangeAccumulation ChangeType = "ACCUMULATION"
	ChangeReduction    ChangeType = "REDUCTION"
	ChangeExit         ChangeType = "EXIT"
)

// PositionChange is the append-only diff log C7 writes per affected token.
type PositionChange struct {
	Wallet       string     `json:"wallet"`
	FungibleID   string     `json:"fungible_id"`
	ChangeType   ChangeType `json:"change_type"`
	OldAmount    float64    `json:"old_amount"`
	NewAmount    float64    `json:"new_amount"`
	OldUSDValue  float64    `json:"old_usd_value"`
	NewUSDValue  float64    `json:"new_usd_value"`
	DetectedAt   time.Time  `json:"detected_at"`
}

// TransferredToken is one entry of a Wallet Migration's tokens_transferred list.
type TransferredToken struct {
	Symbol     string  `json:"symbol"`
	FungibleID string  `json:"fungible_id"`
	Quantity   float64 `json:"quantity"`
	ValueUSD   float64 `json:"value_usd"`
}

// WalletMigration is the C8 record of a detected portfolio migration. Unique on
// (OldWallet, NewWallet, MigrationDate).
type WalletMigration struct {
	OldWallet              string             `json:"old_wallet"`
	NewWallet              string             `json:"new_wallet"`
	MigrationDate          time.Time          `json:"migration_date"`
	TokensTransferred      []TransferredToken `json:"tokens_transferred"`
	TotalValueTransferred  float64            `json:"total_value_transferred"`
	TransferPercentage     float64            `json:"transfer_percentage"`
	IsValidated            bool               `json:"is_validated"`
}

// ConsensusSignal is emitted by C9 when ≥N smart wallets buy the same token inside
// the consensus window. Upserted by (ContractAddress, PeriodStart).
type ConsensusSignal struct {
	Symbol          string    `json:"symbol"`
	ContractAddress string    `json:"contract_address"`
	DetectionDate   time.Time `json:"detection_date"`
	WhaleCount      int       `json:"whale_count"`
	TotalInvestment float64   `json:"total_investment"`
	FirstBuy        time.Time `json:"first_buy"`
	LastBuy         time.Time `json:"last_buy"`
	IsActive        bool      `json:"is_active"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	WalletAddresses []string  `json:"wallet_addresses"`
}
