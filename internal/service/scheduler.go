package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tokenagg/internal/cache"
	cronrunner "tokenagg/internal/cron"
	"tokenagg/internal/models"
	"tokenagg/internal/repository"
)

const DefaultRefreshInterval = 30 * time.Second

// RefreshScheduler periodically drops every cached aggregate and rebuilds the
// default one, so readers see data at most one interval old.
type RefreshScheduler struct {
	Aggregator *AggregatorService
	Cache      *cache.Cache
	// Store, when set, receives the refreshed tokens as latest snapshots.
	Store    repository.Repository
	Interval time.Duration
	Logger   *zap.Logger
}

// Register adds the refresh job to runner.
func (s *RefreshScheduler) Register(runner *cronrunner.Runner) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	_, err := runner.Add(cronrunner.Every(interval), func(ctx context.Context) {
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.logger().Info("refresh scheduled", zap.Duration("interval", interval))
	return nil
}

// RunOnce performs one refresh cycle. Failures are logged, never returned.
func (s *RefreshScheduler) RunOnce(ctx context.Context) int {
	if s.Cache != nil {
		removed := s.Cache.InvalidatePattern(ctx, CachePattern)
		s.logger().Debug("cache invalidated", zap.Int("keys", removed))
	}
	tokens, err := s.Aggregator.Aggregate(ctx, "")
	if err != nil {
		s.logger().Error("scheduled refresh failed", zap.Error(err))
		return 0
	}
	s.persist(ctx, tokens)
	s.logger().Debug("token cache refreshed", zap.Int("tokens", len(tokens)))
	return len(tokens)
}

func (s *RefreshScheduler) persist(ctx context.Context, tokens []models.Token) {
	if s.Store == nil || len(tokens) == 0 {
		return
	}
	now := time.Now().UTC()
	items := make([]models.TokenSnapshot, 0, len(tokens))
	for _, t := range tokens {
		snap, err := models.NewTokenSnapshot(t, now)
		if err != nil {
			s.logger().Warn("skip snapshot", zap.String("address", t.Address), zap.Error(err))
			continue
		}
		items = append(items, snap)
	}
	if err := s.Store.UpsertTokenSnapshots(ctx, items); err != nil {
		s.logger().Error("persist snapshots failed", zap.Int("tokens", len(items)), zap.Error(err))
	}
}

func (s *RefreshScheduler) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
