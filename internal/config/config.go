package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Redis   RedisConfig   `mapstructure:"redis"`
	DB      DBConfig      `mapstructure:"db"`
	Sources SourcesConfig `mapstructure:"sources"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Updates UpdatesConfig `mapstructure:"updates"`
	API     APIConfig     `mapstructure:"api"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// RedisConfig selects the cache backend. Backend "memory" keeps entries in process.
type RedisConfig struct {
	Backend  string        `mapstructure:"backend"`
	Addr     string        `mapstructure:"addr"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DBConfig is optional; an empty DSN disables snapshot persistence.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type SourcesConfig struct {
	NativeUSDPrice float64             `mapstructure:"native_usd_price"`
	HTTPTimeout    time.Duration       `mapstructure:"http_timeout"`
	DefaultQuery   string              `mapstructure:"default_query"`
	DexScreener    DexScreenerConfig   `mapstructure:"dexscreener"`
	Jupiter        JupiterConfig       `mapstructure:"jupiter"`
	GeckoTerminal  GeckoTerminalConfig `mapstructure:"geckoterminal"`
}

type DexScreenerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RateLimit      int           `mapstructure:"rate_limit"`
	Chains         []string      `mapstructure:"chains"`
	PopularQueries []string      `mapstructure:"popular_queries"`
	PopularPause   time.Duration `mapstructure:"popular_pause"`
}

type JupiterConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	RateLimit int    `mapstructure:"rate_limit"`
}

type GeckoTerminalConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	RateLimit    int           `mapstructure:"rate_limit"`
	APIKey       string        `mapstructure:"api_key"`
	Networks     []string      `mapstructure:"networks"`
	NetworkPause time.Duration `mapstructure:"network_pause"`
}

type RetryConfig struct {
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialDelay      time.Duration `mapstructure:"initial_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	Multiplier        float64       `mapstructure:"multiplier"`
	RetryableStatuses []int         `mapstructure:"retryable_statuses"`
}

type UpdatesConfig struct {
	Interval          time.Duration `mapstructure:"interval"`
	WebsocketInterval time.Duration `mapstructure:"websocket_interval"`
}

type APIConfig struct {
	DefaultLimit       int `mapstructure:"default_limit"`
	MaxLimit           int `mapstructure:"max_limit"`
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

// Load merges defaults, the YAML file at path (unless envOnly), TA_* environment
// variables and, when given, bound command line flags.
func Load(path string, envOnly bool, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if !envOnly && path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Sources.DexScreener.Chains = cleanStrings(cfg.Sources.DexScreener.Chains)
	cfg.Sources.DexScreener.PopularQueries = cleanStrings(cfg.Sources.DexScreener.PopularQueries)
	cfg.Sources.GeckoTerminal.Networks = cleanStrings(cfg.Sources.GeckoTerminal.Networks)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)

	v.SetDefault("redis.backend", "redis")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "30s")

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("sources.native_usd_price", 100)
	v.SetDefault("sources.http_timeout", "10s")
	v.SetDefault("sources.default_query", "SOL")
	v.SetDefault("sources.dexscreener.base_url", "https://api.dexscreener.com")
	v.SetDefault("sources.dexscreener.rate_limit", 300)
	v.SetDefault("sources.dexscreener.chains", []string{"solana"})
	v.SetDefault("sources.dexscreener.popular_queries", []string{"SOL", "BONK", "WIF", "POPCAT", "MYRO"})
	v.SetDefault("sources.dexscreener.popular_pause", "200ms")
	v.SetDefault("sources.jupiter.base_url", "https://lite-api.jup.ag")
	v.SetDefault("sources.jupiter.rate_limit", 100)
	v.SetDefault("sources.geckoterminal.base_url", "https://api.geckoterminal.com/api/v2")
	v.SetDefault("sources.geckoterminal.rate_limit", 100)
	v.SetDefault("sources.geckoterminal.networks", []string{"solana", "ethereum", "bsc", "polygon", "avalanche", "arbitrum", "optimism"})
	v.SetDefault("sources.geckoterminal.network_pause", "100ms")

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.initial_delay", "1s")
	v.SetDefault("retry.max_delay", "30s")
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.retryable_statuses", []int{429, 500, 502, 503, 504})

	v.SetDefault("updates.interval", "30s")
	v.SetDefault("updates.websocket_interval", "5s")

	v.SetDefault("api.default_limit", 20)
	v.SetDefault("api.max_limit", 100)
	v.SetDefault("api.rate_limit_per_minute", 100)
}

// bindFlags maps dashed flag names onto config keys, e.g. --http-addr -> server.http_addr.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	keys := map[string]string{
		"http-addr":     "server.http_addr",
		"log-level":     "log.level",
		"redis-addr":    "redis.addr",
		"cache-backend": "redis.backend",
		"db-dsn":        "db.dsn",
	}
	for flagName, key := range keys {
		f := flags.Lookup(flagName)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
