package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPairs, cfg.Tracking.Pairs)
	assert.Equal(t, 30, cfg.Indicators.MinHistoryBars)
	assert.Equal(t, 3600*time.Second, cfg.WeakCooldown())
	assert.Equal(t, 2*time.Second, cfg.RetryBackoff())
	assert.Equal(t, 250*time.Millisecond, cfg.ScanPause())
	assert.Equal(t, 2.0, cfg.Scoring.Thresholds.Medium)
	assert.Equal(t, 4.0, cfg.Scoring.Thresholds.Strong)
	assert.True(t, cfg.Mode(model.ModeLevels).LevelBonus)
	assert.False(t, cfg.Mode(model.ModeManual).LevelBonus)
	assert.True(t, cfg.Mode(model.ModeAuto).ThrottleWeak)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: file-token
tracking:
  pairs: [BTC/USDT, ETH/USDT]
scoring:
  weights:
    volume: 0.9
levels:
  cluster_tolerance_pct: 1.0
modes:
  manual:
    throttle_weak: false
    level_bonus: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.Telegram.BotToken)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, cfg.Tracking.Pairs)
	assert.Equal(t, 0.9, cfg.Scoring.Weights.Volume)
	assert.Equal(t, 1.0, cfg.Scoring.Weights.Trend, "unset weights keep defaults")
	assert.Equal(t, ModeOptions{ThrottleWeak: false, LevelBonus: true}, cfg.Mode(model.ModeManual))
	assert.True(t, cfg.Mode(model.ModeLevels).LevelBonus, "modes absent from the file keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("BINANCE_BASE_URL", "http://localhost:9999")
	t.Setenv("HTTPS_PROXY", "http://proxy:3128")
	t.Setenv("SQLITE_PATH", "/tmp/journal.db")
	t.Setenv("WEAK_COOLDOWN_SECONDS", "60")

	cfg, err := Load(writeConfig(t, "telegram:\n  bot_token: file-token\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, "http://localhost:9999", cfg.Exchange.BaseURL)
	assert.Equal(t, "http://proxy:3128", cfg.Proxy)
	assert.Equal(t, "/tmp/journal.db", cfg.Database.SQLitePath)
	assert.Equal(t, time.Minute, cfg.WeakCooldown())
}

func TestLoad_BadEnvCooldown(t *testing.T) {
	t.Setenv("WEAK_COOLDOWN_SECONDS", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "tracking: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Telegram.BotToken = "token"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.BotToken = "" }},
		{"negative weight", func(c *Config) { c.Scoring.Weights.Volume = -1 }},
		{"thresholds out of order", func(c *Config) { c.Scoring.Thresholds.Strong = 1 }},
		{"zero window", func(c *Config) { c.Indicators.RSIPeriod = 0 }},
		{"unknown timeframe", func(c *Config) { c.Tracking.Timeframes = []string{"1h", "2w"} }},
		{"unknown scalp timeframe", func(c *Config) { c.Tracking.ScalpTimeframe = "3m" }},
		{"empty pairs", func(c *Config) { c.Tracking.Pairs = nil }},
		{"zero cluster tolerance", func(c *Config) { c.Levels.ClusterTolerancePct = 0 }},
		{"zero proximity", func(c *Config) { c.Levels.ProximityATRMultiplier = 0 }},
		{"short candle limit", func(c *Config) { c.Tracking.CandleLimit = 10 }},
		{"unknown mode", func(c *Config) { c.Modes["swing"] = ModeOptions{} }},
		{"no attempts", func(c *Config) { c.Telegram.RetryAttempts = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBuilders(t *testing.T) {
	cfg := Default()
	assert.InDelta(t, 0.004, cfg.Engine().Proximity.FallbackPct, 1e-12)
	assert.NoError(t, cfg.Engine().Validate())
	f, err := cfg.Finder()
	require.NoError(t, err)
	assert.NotNil(t, f)
	assert.Equal(t, 200, cfg.IndicatorParams().EMASlow)
}
