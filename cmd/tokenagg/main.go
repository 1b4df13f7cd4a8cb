package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"tokenagg/internal/config"
	cronrunner "tokenagg/internal/cron"
	"tokenagg/internal/handler"
	"tokenagg/internal/logger"
	"tokenagg/internal/models"
	"tokenagg/internal/service"
	"tokenagg/internal/stream"

	_ "tokenagg/docs"
)

func main() {
	root := &cobra.Command{
		Use:          "tokenagg",
		Short:        "Multi-source token aggregator",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path (default $TA_CONFIG or config/config.yaml)")
	root.PersistentFlags().Bool("env-only", false, "ignore the config file and read TA_* variables only")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("cache-backend", "", "cache backend (redis, memory)")
	root.PersistentFlags().String("redis-addr", "", "redis address")
	root.PersistentFlags().String("db-dsn", "", "postgres DSN; empty disables persistence")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, refresh scheduler and live stream",
		RunE:  runServe,
	}
	serveCmd.Flags().String("http-addr", "", "HTTP listen address")
	root.AddCommand(serveCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate once and print the result as JSON",
		RunE:  runAggregate,
	}
	aggregateCmd.Flags().String("q", "", "search query")
	aggregateCmd.Flags().String("sort-field", string(models.SortVolume), "volume|market_cap|liquidity|transaction_count|price_change")
	aggregateCmd.Flags().String("sort-order", string(models.OrderDesc), "asc|desc")
	aggregateCmd.Flags().Int("limit", 20, "number of tokens to print")
	aggregateCmd.Flags().Float64("min-volume", 0, "minimum volume in native units")
	aggregateCmd.Flags().String("protocol", "", "exact protocol match")
	aggregateCmd.Flags().String("time-period", "", "1h|24h|7d")
	root.AddCommand(aggregateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = os.Getenv("TA_CONFIG")
	}
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly, _ := cmd.Flags().GetBool("env-only")
	if raw := os.Getenv("TA_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}
	return config.Load(cfgPath, envOnly, cmd.Flags())
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(handler.AccessLogMiddleware(logger.Named("http")))

	broadcaster := stream.NewBroadcaster(a.aggregator, logger.Named("stream"))

	healthHandler := &handler.HealthHandler{Cache: a.cache, Stream: broadcaster}
	if a.dbConn != nil {
		healthHandler.DB = a.dbConn.Gorm
	}
	healthHandler.Register(engine)

	limited := engine.Group("", handler.NewRateLimiter(cfg.API.RateLimitPerMinute).Middleware())
	tokensHandler := &handler.TokensHandler{
		Service:      a.aggregator,
		DefaultLimit: cfg.API.DefaultLimit,
		MaxLimit:     cfg.API.MaxLimit,
		Logger:       logger,
	}
	tokensHandler.Register(limited)
	sourcesHandler := &handler.SourcesHandler{Service: a.aggregator, Logger: logger}
	sourcesHandler.Register(limited)
	streamHandler := &handler.StreamHandler{Stream: broadcaster}
	streamHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	scheduler := a.refreshScheduler()
	if err := scheduler.Register(cronRunner); err != nil {
		return err
	}
	cronRunner.Start()
	go scheduler.RunOnce(ctx)
	go broadcaster.Run(ctx, cfg.Updates.WebsocketInterval)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err = <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	broadcaster.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	cronRunner.Stop()
	return err
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	query, _ := cmd.Flags().GetString("q")
	sortField, _ := cmd.Flags().GetString("sort-field")
	sortOrder, _ := cmd.Flags().GetString("sort-order")
	limit, _ := cmd.Flags().GetInt("limit")
	protocol, _ := cmd.Flags().GetString("protocol")
	period, _ := cmd.Flags().GetString("time-period")

	filters := models.FilterSpec{Protocol: protocol, TimePeriod: models.TimePeriod(period)}
	if cmd.Flags().Changed("min-volume") {
		v, _ := cmd.Flags().GetFloat64("min-volume")
		filters.MinVolume = &v
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := a.aggregator.Aggregate(ctx, query)
	if err != nil {
		return err
	}
	if tokens, err = service.Filter(tokens, filters); err != nil {
		return err
	}
	if tokens, err = service.Sort(tokens, models.SortSpec{Field: models.SortField(sortField), Order: models.SortOrder(sortOrder)}); err != nil {
		return err
	}
	page := service.Paginate(tokens, models.PageRequest{Limit: limit})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"tokens":      page.Tokens,
		"total":       page.Total,
		"next_cursor": page.NextCursor,
	})
}
