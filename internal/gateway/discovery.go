package gateway

import (
	"context"
	"net/url"
)

// Discovery implements the seed-wallet discovery source (§1): given a
// discovery period, returns candidate wallet addresses to seed into the
// system. Kept separate from Provider even though it shares the same
// transport, since it is explicitly out-of-scope collaborator boundary (only
// its shape is specified).
type Discovery struct {
	http *httpClient
}

type discoveryDTO struct {
	Wallets []string `json:"wallets"`
}

func (d *Discovery) Candidates(ctx context.Context, period string) ([]string, error) {
	var dto discoveryDTO
	if err := d.http.getJSON(ctx, "/v1/discovery", url.Values{"period": {period}}, &dto); err != nil {
		return nil, err
	}
	return dto.Wallets, nil
}
