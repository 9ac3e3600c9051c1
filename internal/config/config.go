package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/levels"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

// ModeOptions are the per-mode scoring and throttling switches.
type ModeOptions struct {
	ThrottleWeak bool `yaml:"throttle_weak"`
	LevelBonus   bool `yaml:"level_bonus"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken            string `yaml:"bot_token"`
		RetryAttempts       int    `yaml:"retry_attempts"`
		RetryBackoffSeconds int    `yaml:"retry_backoff_seconds"`
	} `yaml:"telegram"`
	Exchange struct {
		BaseURL           string  `yaml:"base_url"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"exchange"`
	Tracking struct {
		Pairs             []string `yaml:"pairs"`
		Timeframes        []string `yaml:"timeframes"`
		AutoUniverse      []string `yaml:"auto_universe"`
		AutoTimeframes    []string `yaml:"auto_timeframes"`
		ScalpTimeframe    string   `yaml:"scalp_timeframe"`
		CandleLimit       int      `yaml:"candle_limit"`
		LevelsCandleLimit int      `yaml:"levels_candle_limit"`
		ScanPauseMS       int      `yaml:"scan_pause_ms"`
	} `yaml:"tracking"`
	Indicators struct {
		MinHistoryBars int `yaml:"min_history_bars"`
		EMAFast        int `yaml:"ema_fast"`
		EMAMid         int `yaml:"ema_mid"`
		EMASlow        int `yaml:"ema_slow"`
		RSIPeriod      int `yaml:"rsi_period"`
		MACDFast       int `yaml:"macd_fast"`
		MACDSlow       int `yaml:"macd_slow"`
		MACDSignal     int `yaml:"macd_signal"`
		ATRPeriod      int `yaml:"atr_period"`
		VolumeMAPeriod int `yaml:"volume_ma_period"`
	} `yaml:"indicators"`
	Levels struct {
		ExtremaOrder           int     `yaml:"extrema_order"`
		ClusterTolerancePct    float64 `yaml:"cluster_tolerance_pct"`
		ProximityATRMultiplier float64 `yaml:"proximity_atr_multiplier"`
		ProximityFallbackPct   float64 `yaml:"proximity_fallback_pct"`
	} `yaml:"levels"`
	Scoring struct {
		Weights struct {
			Trend     float64 `yaml:"trend"`
			EMACross  float64 `yaml:"ema_cross"`
			MACDCross float64 `yaml:"macd_cross"`
			RSIStrong float64 `yaml:"rsi_strong"`
			RSIWeak   float64 `yaml:"rsi_weak"`
			Volume    float64 `yaml:"volume"`
		} `yaml:"weights"`
		Thresholds struct {
			Medium float64 `yaml:"medium"`
			Strong float64 `yaml:"strong"`
		} `yaml:"thresholds"`
		RSI struct {
			BuyStrong  float64 `yaml:"buy_strong"`
			BuyWeak    float64 `yaml:"buy_weak"`
			SellStrong float64 `yaml:"sell_strong"`
			SellWeak   float64 `yaml:"sell_weak"`
		} `yaml:"rsi"`
	} `yaml:"scoring"`
	Cooldown struct {
		WeakCooldownSeconds int `yaml:"weak_cooldown_seconds"`
	} `yaml:"cooldown"`
	Modes    map[model.Mode]ModeOptions `yaml:"modes"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// DefaultPairs are the USDT pairs offered for tracking and auto scanning.
var DefaultPairs = []string{
	"BTC/USDT", "ETH/USDT", "XRP/USDT", "MATIC/USDT", "ADA/USDT",
	"DOGE/USDT", "SOL/USDT", "TRX/USDT", "SUI/USDT",
}

// Default returns a config with every option at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.Telegram.RetryAttempts = 3
	cfg.Telegram.RetryBackoffSeconds = 2
	cfg.Exchange.BaseURL = "https://api.binance.com"
	cfg.Exchange.RequestsPerSecond = 8

	cfg.Tracking.Pairs = append([]string(nil), DefaultPairs...)
	cfg.Tracking.Timeframes = []string{"5m", "15m", "30m", "1h", "4h", "1d"}
	cfg.Tracking.AutoUniverse = append([]string(nil), DefaultPairs...)
	cfg.Tracking.AutoTimeframes = []string{"15m", "1h", "4h"}
	cfg.Tracking.ScalpTimeframe = "5m"
	cfg.Tracking.CandleLimit = 200
	cfg.Tracking.LevelsCandleLimit = 300
	cfg.Tracking.ScanPauseMS = 250

	p := calculator.DefaultParams()
	ind := &cfg.Indicators
	ind.MinHistoryBars, ind.EMAFast, ind.EMAMid, ind.EMASlow = p.MinHistoryBars, p.EMAFast, p.EMAMid, p.EMASlow
	ind.RSIPeriod, ind.MACDFast, ind.MACDSlow, ind.MACDSignal = p.RSIPeriod, p.MACDFast, p.MACDSlow, p.MACDSignal
	ind.ATRPeriod, ind.VolumeMAPeriod = p.ATRPeriod, p.VolumeMAPeriod

	cfg.Levels.ExtremaOrder = 4
	cfg.Levels.ClusterTolerancePct = 0.6
	cfg.Levels.ProximityATRMultiplier = 0.7
	cfg.Levels.ProximityFallbackPct = 0.4

	e := strategy.DefaultEngine()
	w := &cfg.Scoring.Weights
	w.Trend, w.EMACross, w.MACDCross = e.Weights.Trend, e.Weights.EMACross, e.Weights.MACDCross
	w.RSIStrong, w.RSIWeak, w.Volume = e.Weights.RSIStrong, e.Weights.RSIWeak, e.Weights.Volume
	cfg.Scoring.Thresholds.Medium, cfg.Scoring.Thresholds.Strong = e.Thresholds.Medium, e.Thresholds.Strong
	r := &cfg.Scoring.RSI
	r.BuyStrong, r.BuyWeak, r.SellStrong, r.SellWeak = e.RSI.BuyStrong, e.RSI.BuyWeak, e.RSI.SellStrong, e.RSI.SellWeak

	cfg.Cooldown.WeakCooldownSeconds = 3600
	cfg.Modes = map[model.Mode]ModeOptions{
		model.ModeManual: {ThrottleWeak: true},
		model.ModeAuto:   {ThrottleWeak: true},
		model.ModeScalp:  {ThrottleWeak: true},
		model.ModeLevels: {ThrottleWeak: true, LevelBonus: true},
	}
	return cfg
}

// Load preloads .env if present, reads the YAML file over the defaults, then applies
// environment variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	modes := cfg.Modes
	cfg.Modes = nil

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	// modes absent from the file keep their defaults
	for m, opts := range modes {
		if _, ok := cfg.Modes[m]; !ok {
			if cfg.Modes == nil {
				cfg.Modes = make(map[model.Mode]ModeOptions)
			}
			cfg.Modes[m] = opts
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("WEAK_COOLDOWN_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEAK_COOLDOWN_SECONDS: %w", err)
		}
		c.Cooldown.WeakCooldownSeconds = n
	}
	return nil
}

// Validate checks that all required fields are set and every option is in range.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.RetryAttempts < 1 {
		return fmt.Errorf("telegram.retry_attempts must be at least 1")
	}
	if c.Telegram.RetryBackoffSeconds < 0 {
		return fmt.Errorf("telegram.retry_backoff_seconds must not be negative")
	}
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if len(c.Tracking.Pairs) == 0 {
		return fmt.Errorf("tracking.pairs must not be empty")
	}
	for _, group := range []struct {
		name string
		tfs  []string
	}{
		{"tracking.timeframes", c.Tracking.Timeframes},
		{"tracking.auto_timeframes", c.Tracking.AutoTimeframes},
		{"tracking.scalp_timeframe", []string{c.Tracking.ScalpTimeframe}},
	} {
		if len(group.tfs) == 0 {
			return fmt.Errorf("%s must not be empty", group.name)
		}
		for _, tf := range group.tfs {
			if _, err := model.TimeframeDuration(tf); err != nil {
				return fmt.Errorf("%s: %w", group.name, err)
			}
		}
	}
	if c.Tracking.CandleLimit < c.Indicators.MinHistoryBars || c.Tracking.LevelsCandleLimit < c.Indicators.MinHistoryBars {
		return fmt.Errorf("tracking candle limits must be at least indicators.min_history_bars (%d)", c.Indicators.MinHistoryBars)
	}
	if c.Tracking.ScanPauseMS < 0 {
		return fmt.Errorf("tracking.scan_pause_ms must not be negative")
	}
	if err := c.IndicatorParams().Validate(); err != nil {
		return err
	}
	if _, err := c.Finder(); err != nil {
		return err
	}
	if err := c.Engine().Validate(); err != nil {
		return err
	}
	if c.Cooldown.WeakCooldownSeconds < 0 {
		return fmt.Errorf("cooldown.weak_cooldown_seconds must not be negative")
	}
	for m := range c.Modes {
		if _, err := model.ParseMode(string(m)); err != nil {
			return fmt.Errorf("modes: %w", err)
		}
	}
	return nil
}

// IndicatorParams returns the indicator windows.
func (c *Config) IndicatorParams() calculator.Params {
	ind := c.Indicators
	return calculator.Params{
		MinHistoryBars: ind.MinHistoryBars,
		EMAFast:        ind.EMAFast,
		EMAMid:         ind.EMAMid,
		EMASlow:        ind.EMASlow,
		RSIPeriod:      ind.RSIPeriod,
		MACDFast:       ind.MACDFast,
		MACDSlow:       ind.MACDSlow,
		MACDSignal:     ind.MACDSignal,
		ATRPeriod:      ind.ATRPeriod,
		VolumeMAPeriod: ind.VolumeMAPeriod,
	}
}

// Engine builds the signal scorer.
func (c *Config) Engine() *strategy.Engine {
	s := c.Scoring
	return &strategy.Engine{
		Weights: strategy.Weights{
			Trend:     s.Weights.Trend,
			EMACross:  s.Weights.EMACross,
			MACDCross: s.Weights.MACDCross,
			RSIStrong: s.Weights.RSIStrong,
			RSIWeak:   s.Weights.RSIWeak,
			Volume:    s.Weights.Volume,
		},
		Thresholds: strategy.Thresholds{Medium: s.Thresholds.Medium, Strong: s.Thresholds.Strong},
		RSI: strategy.RSIBands{
			BuyStrong:  s.RSI.BuyStrong,
			BuyWeak:    s.RSI.BuyWeak,
			SellStrong: s.RSI.SellStrong,
			SellWeak:   s.RSI.SellWeak,
		},
		Proximity: levels.Proximity{
			ATRMultiplier: c.Levels.ProximityATRMultiplier,
			FallbackPct:   c.Levels.ProximityFallbackPct / 100,
		},
	}
}

// Finder builds the level finder. Percentages in the file are converted to fractions.
func (c *Config) Finder() (*levels.Finder, error) {
	return levels.NewFinder(c.Levels.ExtremaOrder, c.Levels.ClusterTolerancePct/100)
}

// Mode returns the options of a mode; unknown modes get throttling only.
func (c *Config) Mode(m model.Mode) ModeOptions {
	if opts, ok := c.Modes[m]; ok {
		return opts
	}
	return ModeOptions{ThrottleWeak: true}
}

// WeakCooldown is the weak-signal window.
func (c *Config) WeakCooldown() time.Duration {
	return time.Duration(c.Cooldown.WeakCooldownSeconds) * time.Second
}

// RetryBackoff is the pause between notification attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Telegram.RetryBackoffSeconds) * time.Second
}

// ScanPause is the pacing between auto-scan fetches.
func (c *Config) ScanPause() time.Duration {
	return time.Duration(c.Tracking.ScanPauseMS) * time.Millisecond
}
