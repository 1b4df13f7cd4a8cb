package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tokenagg/internal/cache"
	"tokenagg/internal/client/dexscreener"
	"tokenagg/internal/client/geckoterminal"
	"tokenagg/internal/client/jupiter"
	"tokenagg/internal/config"
	"tokenagg/internal/db"
	gormrepository "tokenagg/internal/repository/gorm"
	"tokenagg/internal/service"
	"tokenagg/internal/source"
	"tokenagg/internal/throttle"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	cache      *cache.Cache
	dbConn     *db.DB
	store      *gormrepository.Store
	channels   []*throttle.Channel
	dex        *source.DexScreener
	aggregator *service.AggregatorService
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	a.cache = cache.New(newCacheStore(cfg.Redis), cfg.Redis.TTL, logger.Named("cache"))

	if strings.TrimSpace(cfg.DB.DSN) != "" {
		conn, err := db.Open(cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		if err := db.SetTimezone(conn, cfg.DB.Timezone); err != nil {
			logger.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(conn); err != nil {
			_ = db.Close(conn)
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		a.dbConn = conn
		a.store = gormrepository.New(conn.Gorm)
	}

	retry := throttle.RetryOptions{
		MaxRetries:        cfg.Retry.MaxRetries,
		InitialDelay:      cfg.Retry.InitialDelay,
		MaxDelay:          cfg.Retry.MaxDelay,
		Multiplier:        cfg.Retry.Multiplier,
		RetryableStatuses: cfg.Retry.RetryableStatuses,
	}
	httpClient := &http.Client{Timeout: cfg.Sources.HTTPTimeout}
	options := func(name string, quota int) source.Options {
		log := logger.Named(name)
		ch := throttle.NewChannel(name, quota, throttle.WithRetryOptions(retry), throttle.WithLogger(log))
		a.channels = append(a.channels, ch)
		return source.Options{
			Channel:        ch,
			Logger:         log,
			NativeUSDPrice: cfg.Sources.NativeUSDPrice,
			DefaultQuery:   cfg.Sources.DefaultQuery,
		}
	}

	dexCfg := cfg.Sources.DexScreener
	a.dex = source.NewDexScreener(
		dexscreener.NewClient(httpClient, dexCfg.BaseURL, cfg.Sources.HTTPTimeout),
		source.DexScreenerOptions{
			Options:        options(source.NameDexScreener, dexCfg.RateLimit),
			Chains:         dexCfg.Chains,
			PopularQueries: dexCfg.PopularQueries,
			PopularPause:   dexCfg.PopularPause,
		},
	)
	jup := source.NewJupiter(
		jupiter.NewClient(httpClient, cfg.Sources.Jupiter.BaseURL, cfg.Sources.HTTPTimeout),
		options(source.NameJupiter, cfg.Sources.Jupiter.RateLimit),
	)
	geckoCfg := cfg.Sources.GeckoTerminal
	gecko := source.NewGeckoTerminal(
		geckoterminal.NewClient(httpClient, geckoCfg.BaseURL, geckoCfg.APIKey, cfg.Sources.HTTPTimeout),
		source.GeckoTerminalOptions{
			Options:      options(source.NameGeckoTerminal, geckoCfg.RateLimit),
			Networks:     geckoCfg.Networks,
			NetworkPause: geckoCfg.NetworkPause,
		},
	)

	a.aggregator = &service.AggregatorService{
		Sources: []source.Source{a.dex, jup, gecko},
		Cache:   a.cache,
		Lookup:  a.dex,
		Logger:  logger.Named("aggregator"),
		TTL:     cfg.Redis.TTL,
	}
	if a.store != nil {
		a.aggregator.Store = a.store
	}
	return a, nil
}

func newCacheStore(cfg config.RedisConfig) cache.Store {
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), "memory") {
		return cache.NewMemoryStore()
	}
	return cache.NewRedisStore(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (a *app) refreshScheduler() *service.RefreshScheduler {
	s := &service.RefreshScheduler{
		Aggregator: a.aggregator,
		Cache:      a.cache,
		Interval:   a.cfg.Updates.Interval,
		Logger:     a.logger.Named("scheduler"),
	}
	if a.store != nil {
		s.Store = a.store
	}
	return s
}

func (a *app) close() {
	for _, ch := range a.channels {
		ch.Close()
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("cache close failed", zap.Error(err))
	}
	if err := db.Close(a.dbConn); err != nil {
		a.logger.Warn("db close failed", zap.Error(err))
	}
}
