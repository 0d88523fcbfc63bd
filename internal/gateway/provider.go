package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/smartwallet/tracker/internal/provider"
	"github.com/smartwallet/tracker/pkg/models"
)

// Provider implements provider.DataProvider and consensus.MarketData against
// the configured on-chain data provider, normalizing its wire shapes into the
// module's domain types per §4.2.
type Provider struct {
	http *httpClient
}

type balanceDTO struct {
	FungibleID      string  `json:"fungible_id"`
	Symbol          string  `json:"symbol"`
	ContractAddress string  `json:"contract_address"`
	Chain           string  `json:"chain"`
	Amount          float64 `json:"amount"`
	USDValue        float64 `json:"usd_value"`
	PricePerToken   float64 `json:"price_per_token"`
}

func (p *Provider) ListBalances(ctx context.Context, wallet string) ([]provider.Balance, error) {
	var dtos []balanceDTO
	if err := p.http.getJSON(ctx, "/v1/balances", url.Values{"wallet": {wallet}}, &dtos); err != nil {
		return nil, err
	}
	out := make([]provider.Balance, len(dtos))
	for i, d := range dtos {
		out[i] = provider.Balance{
			FungibleID: d.FungibleID, Symbol: d.Symbol, ContractAddress: d.ContractAddress,
			Chain: d.Chain, Amount: d.Amount, USDValue: d.USDValue, PricePerToken: d.PricePerToken,
		}
	}
	return out, nil
}

type transferDTO struct {
	TransactionHash     string  `json:"transaction_hash"`
	Symbol              string  `json:"symbol"`
	ContractAddress     string  `json:"contract_address"`
	FungibleID          string  `json:"fungible_id"`
	Direction           string  `json:"direction"` // "in" | "out"
	Quantity            float64 `json:"quantity"`
	QuoteCurrency       string  `json:"quote_currency,omitempty"`
	PricePerToken       *float64 `json:"price_per_token"`
	CounterpartyAddress string  `json:"counterparty_address"`
	TimestampUnix       int64   `json:"timestamp"`
	BlockNumber         int64   `json:"block_number"`
}

type transferPageDTO struct {
	Transfers  []transferDTO `json:"transfers"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

// classifyActionType implements §4.2's normalization rule: a quote currency
// present on an inbound transfer means a purchase, absent means an airdrop or
// plain incoming transfer; outbound with a quote currency is a sale.
func classifyActionType(d transferDTO) models.ActionType {
	switch {
	case d.Direction == "in" && d.QuoteCurrency != "":
		return models.ActionBuy
	case d.Direction == "in" && d.QuoteCurrency == "" && d.CounterpartyAddress == "":
		return models.ActionAirdrop
	case d.Direction == "in":
		return models.ActionTransferIn
	case d.Direction == "out" && d.QuoteCurrency != "":
		return models.ActionSell
	default:
		return models.ActionTransferOut
	}
}

func toTransfer(wallet string, d transferDTO) models.Transfer {
	return models.Transfer{
		Wallet:              wallet,
		TransactionHash:     d.TransactionHash,
		Symbol:              d.Symbol,
		ContractAddress:     d.ContractAddress,
		FungibleID:          d.FungibleID,
		Direction:           models.Direction(d.Direction),
		ActionType:          classifyActionType(d),
		Quantity:            d.Quantity,
		PricePerToken:       d.PricePerToken,
		CounterpartyAddress: d.CounterpartyAddress,
		Timestamp:           time.Unix(d.TimestampUnix, 0).UTC(),
		BlockNumber:         d.BlockNumber,
	}
}

func (p *Provider) ListTransfers(ctx context.Context, wallet, fungibleID, cursor string) (provider.TransferPage, error) {
	q := url.Values{"wallet": {wallet}}
	if fungibleID != "" {
		q.Set("fungible_id", fungibleID)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var dto transferPageDTO
	if err := p.http.getJSON(ctx, "/v1/transfers", q, &dto); err != nil {
		return provider.TransferPage{}, err
	}
	transfers := make([]models.Transfer, len(dto.Transfers))
	for i, d := range dto.Transfers {
		transfers[i] = toTransfer(wallet, d)
	}
	return provider.TransferPage{Transfers: transfers, NextCursor: dto.NextCursor, HasMore: dto.HasMore}, nil
}

type sendDTO struct {
	RecipientAddress string  `json:"recipient_address"`
	FungibleID       string  `json:"fungible_id"`
	Symbol           string  `json:"symbol"`
	Quantity         float64 `json:"quantity"`
	USDValue         float64 `json:"usd_value"`
	TimestampUnix    int64   `json:"timestamp"`
}

func (p *Provider) ListRecentSends(ctx context.Context, wallet string, sinceHours int) ([]provider.Send, error) {
	q := url.Values{"wallet": {wallet}, "since_hours": {strconv.Itoa(sinceHours)}}
	var dtos []sendDTO
	if err := p.http.getJSON(ctx, "/v1/sends", q, &dtos); err != nil {
		return nil, err
	}
	out := make([]provider.Send, len(dtos))
	for i, d := range dtos {
		out[i] = provider.Send{
			Wallet: wallet, RecipientAddress: d.RecipientAddress, FungibleID: d.FungibleID,
			Symbol: d.Symbol, Quantity: d.Quantity, USDValue: d.USDValue,
			Timestamp: time.Unix(d.TimestampUnix, 0).UTC(),
		}
	}
	return out, nil
}

type eoaDTO struct {
	IsEOA *bool `json:"is_eoa"`
}

func (p *Provider) IsEOA(ctx context.Context, address string) (*bool, error) {
	var dto eoaDTO
	if err := p.http.getJSON(ctx, "/v1/address_type", url.Values{"address": {address}}, &dto); err != nil {
		return nil, err
	}
	return dto.IsEOA, nil
}

type marketDTO struct {
	MarketCapUSD float64 `json:"market_cap_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
}

// MarketCap implements consensus.MarketData, reusing the same provider
// connection the balance/transfer endpoints use.
func (p *Provider) MarketCap(ctx context.Context, contractAddress string) (float64, error) {
	var dto marketDTO
	if err := p.http.getJSON(ctx, "/v1/market", url.Values{"contract_address": {contractAddress}}, &dto); err != nil {
		return 0, fmt.Errorf("fetching market data: %w", err)
	}
	return dto.MarketCapUSD, nil
}

func (p *Provider) Liquidity(ctx context.Context, contractAddress string) (float64, error) {
	var dto marketDTO
	if err := p.http.getJSON(ctx, "/v1/market", url.Values{"contract_address": {contractAddress}}, &dto); err != nil {
		return 0, fmt.Errorf("fetching market data: %w", err)
	}
	return dto.LiquidityUSD, nil
}
