package source

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"tokenagg/internal/client/dexscreener"
	"tokenagg/internal/client/rest"
	"tokenagg/internal/models"
	"tokenagg/internal/throttle"
)

var DefaultPopularQueries = []string{"SOL", "BONK", "WIF", "POPCAT", "MYRO"}

type DexScreenerOptions struct {
	Options
	// Chains restricts accepted pairs; empty means solana only.
	Chains         []string
	PopularQueries []string
	PopularPause   time.Duration
}

// DexScreener maps trading pairs to tokens keyed by their base token.
type DexScreener struct {
	client  *dexscreener.Client
	opts    Options
	chains  map[string]struct{}
	popular []string
	pause   time.Duration
}

func NewDexScreener(client *dexscreener.Client, opts DexScreenerOptions) *DexScreener {
	chains := make(map[string]struct{})
	for _, c := range opts.Chains {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			chains[c] = struct{}{}
		}
	}
	if len(chains) == 0 {
		chains[models.DefaultChain] = struct{}{}
	}
	popular := opts.PopularQueries
	if len(popular) == 0 {
		popular = DefaultPopularQueries
	}
	return &DexScreener{
		client:  client,
		opts:    opts.Options.withDefaults(NameDexScreener),
		chains:  chains,
		popular: popular,
		pause:   opts.PopularPause,
	}
}

func (s *DexScreener) Name() string {
	return NameDexScreener
}

// SearchTokens runs the query, or the popular query list when query is empty.
func (s *DexScreener) SearchTokens(ctx context.Context, query string) []models.Token {
	query = strings.TrimSpace(query)
	if query != "" {
		return s.search(ctx, query)
	}
	out := []models.Token{}
	for i, q := range s.popular {
		if i > 0 {
			if err := throttle.Pause(ctx, s.pause); err != nil {
				break
			}
		}
		out = append(out, s.search(ctx, q)...)
	}
	return out
}

// TokenByAddress returns every accepted pair trading address.
func (s *DexScreener) TokenByAddress(ctx context.Context, address string) []models.Token {
	var pairs []dexscreener.Pair
	err := s.opts.Channel.Submit(ctx, func(ctx context.Context) error {
		var err error
		pairs, err = s.client.TokenPairs(ctx, address)
		return err
	}, true)
	if err != nil {
		s.opts.Logger.Error("token fetch failed", zap.String("address", address), zap.Error(err))
		return []models.Token{}
	}
	return s.transform(pairs)
}

func (s *DexScreener) search(ctx context.Context, query string) []models.Token {
	var pairs []dexscreener.Pair
	err := s.opts.Channel.Submit(ctx, func(ctx context.Context) error {
		var err error
		pairs, err = s.client.Search(ctx, query)
		return err
	}, true)
	if err != nil {
		s.opts.Logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return []models.Token{}
	}
	return s.transform(pairs)
}

func (s *DexScreener) transform(pairs []dexscreener.Pair) []models.Token {
	now := s.opts.Now()
	out := make([]models.Token, 0, len(pairs))
	for _, p := range pairs {
		chain := strings.ToLower(p.ChainID)
		if _, ok := s.chains[chain]; !ok {
			continue
		}
		if p.BaseToken.Address == "" || p.QuoteToken.Address == "" {
			continue
		}
		out = append(out, models.Token{
			Address:          p.BaseToken.Address,
			Name:             p.BaseToken.Name,
			Ticker:           p.BaseToken.Symbol,
			Chain:            chain,
			PriceNative:      rest.ParseFloat(p.PriceNative),
			MarketCapNative:  s.opts.toNative(p.FDV.Float64()),
			VolumeNative:     s.opts.toNative(p.Volume.H24.Float64()),
			LiquidityNative:  s.opts.toNative(p.LiquidityUSD()),
			TransactionCount: p.Transactions24h(),
			PriceChange1h:    p.PriceChange.H1.Ptr(),
			PriceChange24h:   p.PriceChange.H24.Ptr(),
			Protocol:         p.DexID,
			Provenance:       []string{NameDexScreener},
			ObservedAt:       now,
		})
	}
	return out
}
