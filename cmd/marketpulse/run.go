package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"MarketPulse/internal/board"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/gateway"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/news"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the refresh scheduler, dashboard server and Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("RUN_ON_START") == "true" {
				runOnStart = true
			}
			return run(runOnStart)
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Refresh the watchlist immediately (env RUN_ON_START=true)")
	return cmd
}

func run(runOnStart bool) error {
	log.Println("[INFO] MarketPulse starting...")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// Providers share one client and one limiter.
	client := collector.NewHTTPClient(cfg.Proxy, cfg.Providers.Timeout)
	limiter := collector.NewLimiter(cfg.Providers.RateLimit)
	col := collector.NewCollector(cfg.Watchlist,
		collector.NewSimulatedFetcher(cfg.Watchlist, time.Now().UnixNano()), m,
		collector.NewBrapiFetcher(cfg.Providers.Brapi.BaseURL, cfg.Providers.Brapi.Token, client, limiter),
		collector.NewAwesomeFetcher(cfg.Providers.AwesomeAPI.BaseURL, client, limiter),
		collector.NewYahooFetcher(cfg.Providers.Yahoo.BaseURL, client, limiter),
	)
	log.Printf("[INFO] watching %d instruments", len(cfg.Watchlist))

	symbols := make([]string, len(cfg.Watchlist))
	for i, inst := range cfg.Watchlist {
		symbols[i] = inst.Symbol
	}
	if err := ensureDir(cfg.State.BoardFile); err != nil {
		return err
	}
	b, err := board.New(cfg.State.BoardFile, symbols)
	if err != nil {
		return fmt.Errorf("init board: %w", err)
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		if err := ensureDir(cfg.Database.SQLitePath); err != nil {
			return err
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	hub := gateway.NewHub(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, b, tn, rec)
	sched.Publisher = hub
	sched.Metrics = m
	if cfg.News.Enabled {
		sched.News = news.NewChain(cfg.News.Limit, m,
			&news.BrapiSource{Client: client, BaseURL: cfg.Providers.Brapi.BaseURL, Token: cfg.Providers.Brapi.Token},
			&news.NewsAPISource{Client: client, BaseURL: cfg.News.NewsAPIURL, APIKey: cfg.News.NewsAPIKey},
			&news.RSSSource{Client: client, Endpoint: cfg.News.RSSURL},
		)
	}
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.NewsCron, cfg.Schedule.DigestCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	srv := gateway.NewServer(cfg.Server.Addr, gateway.Deps{
		Hub:      hub,
		Board:    b,
		News:     sched,
		Gatherer: reg,
	})
	srv.Start()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Printf("[WARN] dashboard shutdown: %v", err)
		}
	}()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		log.Println("[INFO] Telegram not configured, alerts disabled")
	}

	if runOnStart {
		log.Println("[INFO] run-on-start enabled, refreshing now")
		go func() {
			sched.RunRefreshNow()
			sched.RunNewsNow()
		}()
	}

	log.Println("[INFO] MarketPulse is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] MarketPulse stopped")
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
