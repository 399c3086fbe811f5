package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PyramidSentinel/internal/collector"
	"PyramidSentinel/internal/config"
	"PyramidSentinel/internal/logger"
	"PyramidSentinel/internal/notifier"
	"PyramidSentinel/internal/recorder"
	"PyramidSentinel/internal/scheduler"
	"PyramidSentinel/internal/server"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := logger.New(logger.Config{Pretty: true})
		boot.Fatal().Err(err).Str("path", cfgPath).Msg("load config")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("symbol", cfg.DataSource.Symbol).Msg("PyramidSentinel starting")

	fetcher := collector.New(cfg.DataSource.Provider, cfg.Proxy)
	log.Info().Str("source", fetcher.Name()).Msg("data source selected")
	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, log)

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A nil *TelegramNotifier must not reach the interface field.
	var n notifier.Notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.Enabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		n = tn
	} else {
		log.Info().Msg("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, col, cfg.Position, rec, n, log)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.ReportCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, refreshing now")
		go sched.RunNow()
	}

	var srv *server.Server
	if cfg.Server.Port > 0 {
		srv = server.New(server.Config{
			Log:       log,
			Port:      cfg.Server.Port,
			Fetcher:   fetcher,
			Snapshots: sched,
		})
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("HTTP server failed")
			}
		}()
	}

	log.Info().Msg("PyramidSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown")
		}
		done()
	}
	cancel()
	log.Info().Msg("PyramidSentinel stopped")
}
