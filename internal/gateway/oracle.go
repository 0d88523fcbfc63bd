package gateway

import (
	"context"
	"net/url"
)

// Oracle implements price.OracleClient against a single spot-price endpoint.
// Primary and secondary are two independently configured instances sharing
// this same implementation (§4.1 fallback pair).
type Oracle struct {
	http *httpClient
}

type priceDTO struct {
	USDPrice *float64 `json:"usd_price"`
}

// Price resolves a spot USD price for (contract, chain). A nil result with a
// nil error means the oracle has no data, matching price.OracleClient's
// null-is-not-an-error contract.
func (o *Oracle) Price(ctx context.Context, contract, chain string) (*float64, error) {
	var dto priceDTO
	err := o.http.getJSON(ctx, "/v1/price", url.Values{"contract_address": {contract}, "chain": {chain}}, &dto)
	if err != nil {
		return nil, err
	}
	return dto.USDPrice, nil
}
