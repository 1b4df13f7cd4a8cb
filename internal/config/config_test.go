package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsEnvOnly(t *testing.T) {
	cfg, err := Load("", true, nil)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 100.0, cfg.Sources.NativeUSDPrice)
	assert.Equal(t, 300, cfg.Sources.DexScreener.RateLimit)
	assert.Equal(t, []string{"solana"}, cfg.Sources.DexScreener.Chains)
	assert.Len(t, cfg.Sources.GeckoTerminal.Networks, 7)
	assert.Equal(t, []int{429, 500, 502, 503, 504}, cfg.Retry.RetryableStatuses)
	assert.Equal(t, 5*time.Second, cfg.Updates.WebsocketInterval)
	assert.Equal(t, 100, cfg.API.MaxLimit)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TA_UPDATES_INTERVAL", "45s")
	t.Setenv("TA_REDIS_BACKEND", "memory")

	cfg, err := Load("", true, nil)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Updates.Interval)
	assert.Equal(t, "memory", cfg.Redis.Backend)
}

func TestLoadFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("server:\n  http_addr: \":9000\"\nsources:\n  geckoterminal:\n    networks: [\"solana\", \" \", \"bsc\"]\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--log-level=debug"}))

	cfg, err := Load(path, false, flags)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"solana", "bsc"}, cfg.Sources.GeckoTerminal.Networks)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.App.Env)
}
