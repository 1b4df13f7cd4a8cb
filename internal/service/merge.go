package service

import (
	"tokenagg/internal/models"
)

// Merge collapses entries describing the same token (same chain and
// case-insensitive address) into one. Output keeps first-seen order, so the
// result depends on input order. Merge is idempotent.
func Merge(tokens []models.Token) []models.Token {
	index := make(map[string]int, len(tokens))
	out := make([]models.Token, 0, len(tokens))
	for _, t := range tokens {
		key := t.Key()
		if i, ok := index[key]; ok {
			out[i] = mergePair(out[i], t)
			continue
		}
		index[key] = len(out)
		t.Provenance = unionProvenance(nil, t.Provenance)
		out = append(out, t)
	}
	return out
}

// mergePair keeps the more complete entry as primary; a tie keeps existing.
// Volume, market cap, liquidity and transaction count fall back to the
// secondary when zero on the primary. Change fields fall back only when unset.
func mergePair(existing, incoming models.Token) models.Token {
	primary, secondary := existing, incoming
	if completeness(incoming) > completeness(existing) {
		primary, secondary = incoming, existing
	}

	merged := primary
	merged.VolumeNative = orFloat(primary.VolumeNative, secondary.VolumeNative)
	merged.MarketCapNative = orFloat(primary.MarketCapNative, secondary.MarketCapNative)
	merged.LiquidityNative = orFloat(primary.LiquidityNative, secondary.LiquidityNative)
	if merged.TransactionCount == 0 {
		merged.TransactionCount = secondary.TransactionCount
	}
	merged.PriceChange1h = coalesce(primary.PriceChange1h, secondary.PriceChange1h)
	merged.PriceChange24h = coalesce(primary.PriceChange24h, secondary.PriceChange24h)
	merged.PriceChange7d = coalesce(primary.PriceChange7d, secondary.PriceChange7d)
	merged.Provenance = unionProvenance(existing.Provenance, incoming.Provenance)
	if secondary.ObservedAt.After(merged.ObservedAt) {
		merged.ObservedAt = secondary.ObservedAt
	}
	return merged
}

func completeness(t models.Token) int {
	score := 0
	if t.VolumeNative > 0 {
		score += 10
	}
	if t.MarketCapNative > 0 {
		score += 5
	}
	if t.LiquidityNative > 0 {
		score += 5
	}
	if t.TransactionCount > 0 {
		score += 2
	}
	if t.PriceChange1h != nil {
		score++
	}
	if t.PriceChange24h != nil {
		score++
	}
	return score
}

func orFloat(primary, secondary float64) float64 {
	if primary != 0 {
		return primary
	}
	return secondary
}

func coalesce(primary, secondary *float64) *float64 {
	if primary != nil {
		return primary
	}
	return secondary
}

func unionProvenance(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, name := range list {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
