package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPayload = `{"schemaVersion":"1.0.0","pairs":[{
	"chainId":"solana","dexId":"raydium","pairAddress":"P1",
	"baseToken":{"address":"So111","name":"Wrapped SOL","symbol":"SOL"},
	"quoteToken":{"address":"EPj","name":"USD Coin","symbol":"USDC"},
	"priceNative":"0.0045","priceUsd":"0.45",
	"txns":{"h24":{"buys":10,"sells":5}},
	"volume":{"h24":50000},
	"priceChange":{"h1":1.5,"h24":-3.2},
	"liquidity":{"usd":20000},
	"fdv":1000000}]}`

func TestSearchDecodesPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "SOL", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(searchPayload))
	}))
	defer srv.Close()

	pairs, err := NewClient(srv.Client(), srv.URL, 0).Search(context.Background(), "SOL")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	p := pairs[0]
	assert.Equal(t, "So111", p.BaseToken.Address)
	assert.Equal(t, int64(15), p.Transactions24h())
	assert.Equal(t, 20000.0, p.LiquidityUSD())
	assert.Equal(t, 50000.0, p.Volume.H24.Float64())
	assert.Equal(t, -3.2, p.PriceChange.H24.Float64())
}

func TestTokenPairsUsesTokenPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/So111", r.URL.Path)
		_, _ = w.Write([]byte(`{"pairs":null}`))
	}))
	defer srv.Close()

	pairs, err := NewClient(srv.Client(), srv.URL, 0).TokenPairs(context.Background(), "So111")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
