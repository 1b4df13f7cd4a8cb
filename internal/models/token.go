package models

import (
	"strings"
	"time"
)

// DefaultChain is assumed for tokens whose source does not report a network.
const DefaultChain = "solana"

// Token is one tradable asset as reported by one or more sources. Monetary
// fields are normalized into the native currency.
type Token struct {
	Address          string    `json:"token_address"`
	Name             string    `json:"token_name"`
	Ticker           string    `json:"token_ticker"`
	Chain            string    `json:"chain,omitempty"`
	PriceNative      float64   `json:"price_sol"`
	MarketCapNative  float64   `json:"market_cap_sol"`
	VolumeNative     float64   `json:"volume_sol"`
	LiquidityNative  float64   `json:"liquidity_sol"`
	TransactionCount int64     `json:"transaction_count"`
	PriceChange1h    *float64  `json:"price_1hr_change,omitempty"`
	PriceChange24h   *float64  `json:"price_24hr_change,omitempty"`
	PriceChange7d    *float64  `json:"price_7d_change,omitempty"`
	Protocol         string    `json:"protocol"`
	Provenance       []string  `json:"provenance"`
	ObservedAt       time.Time `json:"last_updated"`
}

// Key identifies a token within its chain. Addresses on different chains never collide.
func (t Token) Key() string {
	chain := strings.ToLower(strings.TrimSpace(t.Chain))
	if chain == "" {
		chain = DefaultChain
	}
	return chain + ":" + strings.ToLower(strings.TrimSpace(t.Address))
}

// TokenDelta is the sparse update streamed to live clients.
type TokenDelta struct {
	Address          string    `json:"token_address"`
	PriceNative      *float64  `json:"price_sol,omitempty"`
	VolumeNative     *float64  `json:"volume_sol,omitempty"`
	MarketCapNative  *float64  `json:"market_cap_sol,omitempty"`
	PriceChange1h    *float64  `json:"price_1hr_change,omitempty"`
	PriceChange24h   *float64  `json:"price_24hr_change,omitempty"`
	PriceChange7d    *float64  `json:"price_7d_change,omitempty"`
	TransactionCount *int64    `json:"transaction_count,omitempty"`
	EmittedAt        time.Time `json:"timestamp"`
}

// DeltaFromToken copies the streamed fields of t.
func DeltaFromToken(t Token, now time.Time) TokenDelta {
	price := t.PriceNative
	volume := t.VolumeNative
	mcap := t.MarketCapNative
	txns := t.TransactionCount
	return TokenDelta{
		Address:          t.Address,
		PriceNative:      &price,
		VolumeNative:     &volume,
		MarketCapNative:  &mcap,
		PriceChange1h:    t.PriceChange1h,
		PriceChange24h:   t.PriceChange24h,
		PriceChange7d:    t.PriceChange7d,
		TransactionCount: &txns,
		EmittedAt:        now,
	}
}

func Float(v float64) *float64 {
	return &v
}
