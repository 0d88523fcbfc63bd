package models

import "time"

// Direction is the side of a transfer relative to the wallet it is recorded against.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// ActionType classifies a transfer for FIFO purposes (§4.2 normalization rules).
type ActionType string

const (
	ActionBuy          ActionType = "buy"
	ActionSell         ActionType = "sell"
	ActionAirdrop      ActionType = "airdrop"
	ActionTransferIn   ActionType = "transfer_in"
	ActionTransferOut  ActionType = "transfer_out"
)

// Transfer is the append-only event log entry. Deduplication invariant: unique on
// (Wallet, TransactionHash, FungibleID). Immutability invariant: PricePerToken is
// never rewritten after insert.
type Transfer struct {
	ID                     int64      `json:"id"`
	Wallet                 string     `json:"wallet"`
	TransactionHash        string     `json:"transaction_hash"`
	Symbol                 string     `json:"symbol"`
	ContractAddress        string     `json:"contract_address"`
	FungibleID             string     `json:"fungible_id"`
	Direction              Direction  `json:"direction"`
	ActionType             ActionType `json:"action_type"`
	Quantity               float64    `json:"quantity"`
	PricePerToken          *float64   `json:"price_per_token"`
	InheritedPricePerToken *float64   `json:"inherited_price_per_token"`
	IsInheritedFromWallet  *string    `json:"is_inherited_from_wallet"`
	CounterpartyAddress    string     `json:"counterparty_address"`
	Timestamp              time.Time  `json:"timestamp"`
	BlockNumber            int64      `json:"block_number"`
}

// Before is the deterministic chronological tie-break: (timestamp, block_number,
// transaction_hash), all ascending. This resolves Open Question (a) — the FIFO
// engine sorts on this key exactly once before walking the lot queue.
func (t Transfer) Before(other Transfer) bool {
	if !t.Timestamp.Equal(other.Timestamp) {
		return t.Timestamp.Before(other.Timestamp)
	}
	if t.BlockNumber != other.BlockNumber {
		return t.BlockNumber < other.BlockNumber
	}
	return t.TransactionHash < other.TransactionHash
}

// EffectiveUnitCost returns the cost basis the FIFO engine must use for an inbound
// lot: the inherited price overrides the observed price when present (§4.3 cost
// override — the only place inheritance is honored).
func (t Transfer) EffectiveUnitCost() float64 {
	if t.InheritedPricePerToken != nil {
		return *t.InheritedPricePerToken
	}
	if t.PricePerToken != nil {
		return *t.PricePerToken
	}
	return 0
}
