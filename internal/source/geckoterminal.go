package source

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"tokenagg/internal/client/geckoterminal"
	"tokenagg/internal/client/rest"
	"tokenagg/internal/models"
	"tokenagg/internal/throttle"
)

const geckoProtocol = "GeckoTerminal"

var DefaultNetworks = []string{"solana", "ethereum", "bsc", "polygon", "avalanche", "arbitrum", "optimism"}

type GeckoTerminalOptions struct {
	Options
	Networks     []string
	NetworkPause time.Duration
}

// GeckoTerminal searches each configured network in turn.
type GeckoTerminal struct {
	client   *geckoterminal.Client
	opts     Options
	networks []string
	pause    time.Duration
}

func NewGeckoTerminal(client *geckoterminal.Client, opts GeckoTerminalOptions) *GeckoTerminal {
	networks := opts.Networks
	if len(networks) == 0 {
		networks = DefaultNetworks
	}
	return &GeckoTerminal{
		client:   client,
		opts:     opts.Options.withDefaults(NameGeckoTerminal),
		networks: networks,
		pause:    opts.NetworkPause,
	}
}

func (s *GeckoTerminal) Name() string {
	return NameGeckoTerminal
}

// SearchTokens concatenates per-network results. A failing network is skipped.
func (s *GeckoTerminal) SearchTokens(ctx context.Context, query string) []models.Token {
	query = s.opts.query(query)
	out := []models.Token{}
	for i, network := range s.networks {
		if i > 0 {
			if err := throttle.Pause(ctx, s.pause); err != nil {
				break
			}
		}
		var tokens []geckoterminal.Token
		err := s.opts.Channel.Submit(ctx, func(ctx context.Context) error {
			var err error
			tokens, err = s.client.NetworkTokens(ctx, network, query)
			return err
		}, true)
		if err != nil {
			s.opts.Logger.Debug("network search failed", zap.String("network", network), zap.Error(err))
			continue
		}
		out = append(out, s.transform(tokens, network)...)
	}
	return out
}

func (s *GeckoTerminal) transform(tokens []geckoterminal.Token, network string) []models.Token {
	now := s.opts.Now()
	chain := strings.ToLower(network)
	out := make([]models.Token, 0, len(tokens))
	for _, t := range tokens {
		a := t.Attributes
		if a.Address == "" {
			continue
		}
		out = append(out, models.Token{
			Address:         a.Address,
			Name:            a.Name,
			Ticker:          a.Symbol,
			Chain:           chain,
			PriceNative:     s.opts.toNative(rest.ParseFloat(a.PriceUSD)),
			MarketCapNative: s.opts.toNative(a.MarketCap()),
			VolumeNative:    s.opts.toNative(a.VolumeUSD.H24.Float64()),
			PriceChange1h:   a.PriceChangePercentage.H1.Ptr(),
			PriceChange24h:  a.PriceChangePercentage.H24.Ptr(),
			Protocol:        geckoProtocol,
			Provenance:      []string{NameGeckoTerminal},
			ObservedAt:      now,
		})
	}
	return out
}
