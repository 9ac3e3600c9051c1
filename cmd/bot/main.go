package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SignalSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.IndicatorParams(), cfg.Tracking.CandleLimit)

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy)
	tn.Attempts = cfg.Telegram.RetryAttempts
	tn.Backoff = cfg.RetryBackoff()

	rec := openRecorder(cfg.Database.SQLitePath)
	defer rec.Close()

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.NewScheduler(ctx, cfg, col, tn, rec)
	if err != nil {
		log.Fatalf("[FATAL] init scheduler: %v", err)
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("[FATAL] start scheduler: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tn.StartPolling(gctx, sched.HandleCommand)
		return nil
	})
	log.Println("[INFO] Telegram polling started")
	log.Println("[INFO] SignalSentinel is running. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	sched.Stop()
	if err := g.Wait(); err != nil {
		log.Printf("[ERROR] shutdown: %v", err)
	}
	log.Println("[INFO] SignalSentinel stopped")
}

// newFetcher picks the synthetic source when MOCK_DATA=true, Binance otherwise.
func newFetcher(cfg *config.Config) collector.Fetcher {
	if os.Getenv("MOCK_DATA") == "true" {
		return &collector.MockFetcher{Price: 50000}
	}
	return collector.NewBinanceFetcher(cfg.Exchange.BaseURL, cfg.Proxy, cfg.Exchange.RequestsPerSecond)
}

// openRecorder falls back to the no-op journal when no path is set or the database cannot be opened.
func openRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Printf("[WARN] signal journal disabled: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}
