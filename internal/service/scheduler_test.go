package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cronrunner "tokenagg/internal/cron"
	"tokenagg/internal/models"
)

func TestRunOnceInvalidatesAndRefreshes(t *testing.T) {
	src := &stubSource{name: "dexscreener", tokens: []models.Token{{Address: "A", VolumeNative: 1}}}
	agg, c := newTestAggregator(src)
	repo := &stubRepo{}
	ctx := context.Background()

	c.SetTokens(ctx, CacheKey("bonk"), []models.Token{{Address: "stale"}}, 0)
	c.SetTokens(ctx, CacheKey(""), []models.Token{{Address: "stale"}}, 0)

	s := &RefreshScheduler{Aggregator: agg, Cache: c, Store: repo}
	assert.Equal(t, 1, s.RunOnce(ctx))
	assert.Equal(t, int32(1), src.calls.Load())

	_, ok := c.GetTokens(ctx, CacheKey("bonk"))
	assert.False(t, ok)
	fresh, ok := c.GetTokens(ctx, CacheKey(""))
	require.True(t, ok)
	assert.Equal(t, "A", fresh[0].Address)

	require.Len(t, repo.snapshots, 1)
	assert.Equal(t, "a", repo.snapshots[0].Address)

	s.RunOnce(ctx)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRegisterAddsCronEntry(t *testing.T) {
	agg, c := newTestAggregator(&stubSource{name: "jupiter"})
	runner := cronrunner.New(nil, context.Background())
	s := &RefreshScheduler{Aggregator: agg, Cache: c, Interval: 2 * time.Second}
	require.NoError(t, s.Register(runner))
	assert.Equal(t, 1, runner.Len())
}
