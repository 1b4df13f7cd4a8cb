package source

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"tokenagg/internal/models"
	"tokenagg/internal/throttle"
)

// Source identifiers recorded in token provenance.
const (
	NameDexScreener   = "dexscreener"
	NameJupiter       = "jupiter"
	NameGeckoTerminal = "geckoterminal"
)

const DefaultNativeUSDPrice = 100.0

// Source fetches tokens from one upstream provider. SearchTokens never fails:
// upstream errors are logged and yield an empty result.
type Source interface {
	Name() string
	SearchTokens(ctx context.Context, query string) []models.Token
}

// Options are shared by every source.
type Options struct {
	Channel        *throttle.Channel
	Logger         *zap.Logger
	NativeUSDPrice float64
	DefaultQuery   string
	Now            func() time.Time
}

func (o Options) withDefaults(name string) Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	o.Logger = o.Logger.With(zap.String("source", name))
	if o.NativeUSDPrice <= 0 {
		o.NativeUSDPrice = DefaultNativeUSDPrice
	}
	if strings.TrimSpace(o.DefaultQuery) == "" {
		o.DefaultQuery = "SOL"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Channel == nil {
		o.Channel = throttle.NewChannel(name, 0, throttle.WithLogger(o.Logger))
	}
	return o
}

// toNative converts a USD amount into the native currency.
func (o Options) toNative(usd float64) float64 {
	return usd / o.NativeUSDPrice
}

func (o Options) query(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return o.DefaultQuery
	}
	return q
}
