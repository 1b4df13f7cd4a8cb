package jupiter

import "tokenagg/internal/client/rest"

// Token is one entry of the search response. Older payloads carry address and
// priceUSD, newer ones id and usdPrice; both are accepted.
type Token struct {
	Address  string      `json:"address"`
	ID       string      `json:"id"`
	ChainID  *int64      `json:"chainId"`
	Decimals int         `json:"decimals"`
	Name     string      `json:"name"`
	Symbol   string      `json:"symbol"`
	Tags     []string    `json:"tags"`
	PriceUSD rest.Number `json:"priceUSD"`
	USDPrice rest.Number `json:"usdPrice"`
}

func (t Token) Mint() string {
	if t.Address != "" {
		return t.Address
	}
	return t.ID
}

func (t Token) Price() float64 {
	if t.PriceUSD.Valid {
		return t.PriceUSD.Value
	}
	return t.USDPrice.Float64()
}
