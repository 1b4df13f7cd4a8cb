package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSnapshotRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tok := Token{
		Address:        "MintABC",
		Ticker:         "ABC",
		PriceNative:    0.25,
		VolumeNative:   12.5,
		PriceChange24h: Float(-4),
		Provenance:     []string{"dexscreener", "jupiter"},
		ObservedAt:     now,
	}
	snap, err := NewTokenSnapshot(tok, now)
	require.NoError(t, err)
	assert.Equal(t, "solana", snap.Chain)
	assert.Equal(t, "mintabc", snap.Address)
	assert.Equal(t, "0.25", snap.PriceNative.String())
	assert.Equal(t, "12.5", snap.VolumeNative.String())

	back, err := snap.Token()
	require.NoError(t, err)
	assert.Equal(t, "MintABC", back.Address)
	assert.Equal(t, tok.Provenance, back.Provenance)
	require.NotNil(t, back.PriceChange24h)
	assert.Equal(t, -4.0, *back.PriceChange24h)
}

func TestTokenKey(t *testing.T) {
	assert.Equal(t, "solana:abc", Token{Address: "ABC"}.Key())
	assert.Equal(t, "bsc:abc", Token{Address: "abc", Chain: "BSC"}.Key())
	assert.NotEqual(t, Token{Address: "abc", Chain: "bsc"}.Key(), Token{Address: "abc"}.Key())
}
