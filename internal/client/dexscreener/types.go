package dexscreener

import "tokenagg/internal/client/rest"

type SearchResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

type TokenRef struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type TxnCount struct {
	Buys  int64 `json:"buys"`
	Sells int64 `json:"sells"`
}

type Pair struct {
	ChainID     string   `json:"chainId"`
	DexID       string   `json:"dexId"`
	URL         string   `json:"url"`
	PairAddress string   `json:"pairAddress"`
	BaseToken   TokenRef `json:"baseToken"`
	QuoteToken  TokenRef `json:"quoteToken"`
	PriceNative string   `json:"priceNative"`
	PriceUSD    string   `json:"priceUsd"`
	Txns        struct {
		H1  TxnCount `json:"h1"`
		H24 TxnCount `json:"h24"`
	} `json:"txns"`
	Volume struct {
		H1  rest.Number `json:"h1"`
		H24 rest.Number `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H1  rest.Number `json:"h1"`
		H24 rest.Number `json:"h24"`
	} `json:"priceChange"`
	Liquidity *struct {
		USD rest.Number `json:"usd"`
	} `json:"liquidity"`
	FDV           rest.Number `json:"fdv"`
	MarketCap     rest.Number `json:"marketCap"`
	PairCreatedAt int64       `json:"pairCreatedAt"`
}

// Transactions24h sums buys and sells over the last day.
func (p Pair) Transactions24h() int64 {
	return p.Txns.H24.Buys + p.Txns.H24.Sells
}

func (p Pair) LiquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD.Float64()
}
