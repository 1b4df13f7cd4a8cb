package geckoterminal

import "tokenagg/internal/client/rest"

type TokensResponse struct {
	Data []Token `json:"data"`
}

type Token struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes TokenAttributes `json:"attributes"`
}

type Window struct {
	H1  rest.Number `json:"h1"`
	H24 rest.Number `json:"h24"`
}

type TokenAttributes struct {
	Address               string      `json:"address"`
	Name                  string      `json:"name"`
	Symbol                string      `json:"symbol"`
	Decimals              int         `json:"decimals"`
	TotalSupply           string      `json:"total_supply"`
	PriceUSD              string      `json:"price_usd"`
	PriceChangePercentage Window      `json:"price_change_percentage"`
	VolumeUSD             Window      `json:"volume_usd"`
	FDVUSD                rest.Number `json:"fdv_usd"`
	MarketCapUSD          rest.Number `json:"market_cap_usd"`
}

// MarketCap prefers the reported market cap, falling back to FDV.
func (a TokenAttributes) MarketCap() float64 {
	if v := a.MarketCapUSD.Float64(); v != 0 {
		return v
	}
	return a.FDVUSD.Float64()
}
