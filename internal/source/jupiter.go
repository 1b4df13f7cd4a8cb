package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tokenagg/internal/client/jupiter"
	"tokenagg/internal/models"
)

const jupiterProtocol = "Jupiter"

var jupiterChains = map[int64]string{
	101:   "solana",
	1:     "ethereum",
	56:    "bsc",
	137:   "polygon",
	43114: "avalanche",
	250:   "fantom",
	42161: "arbitrum",
	10:    "optimism",
}

// Jupiter only reports identity and a USD price.
type Jupiter struct {
	client *jupiter.Client
	opts   Options
}

func NewJupiter(client *jupiter.Client, opts Options) *Jupiter {
	return &Jupiter{client: client, opts: opts.withDefaults(NameJupiter)}
}

func (s *Jupiter) Name() string {
	return NameJupiter
}

func (s *Jupiter) SearchTokens(ctx context.Context, query string) []models.Token {
	query = s.opts.query(query)
	var tokens []jupiter.Token
	err := s.opts.Channel.Submit(ctx, func(ctx context.Context) error {
		var err error
		tokens, err = s.client.Search(ctx, query)
		return err
	}, true)
	if err != nil {
		s.opts.Logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return []models.Token{}
	}

	now := s.opts.Now()
	out := make([]models.Token, 0, len(tokens))
	for _, t := range tokens {
		addr := t.Mint()
		if addr == "" {
			continue
		}
		out = append(out, models.Token{
			Address:     addr,
			Name:        t.Name,
			Ticker:      t.Symbol,
			Chain:       jupiterChain(t.ChainID),
			PriceNative: s.opts.toNative(t.Price()),
			Protocol:    jupiterProtocol,
			Provenance:  []string{NameJupiter},
			ObservedAt:  now,
		})
	}
	return out
}

// jupiterChain maps numeric chain ids; a missing id means the home network.
func jupiterChain(id *int64) string {
	if id == nil {
		return models.DefaultChain
	}
	if name, ok := jupiterChains[*id]; ok {
		return name
	}
	return fmt.Sprintf("chain-%d", *id)
}
