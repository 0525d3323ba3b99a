// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"job-search-mas/internal/bootstrap"
	"job-search-mas/internal/config"
	tele "job-search-mas/internal/infra/adapters/telegram"
	"job-search-mas/internal/infra/api"
	"job-search-mas/internal/infra/i18n"
	"job-search-mas/internal/infra/logging"
	"job-search-mas/internal/infra/metrics"
	red "job-search-mas/internal/infra/redis"
	"job-search-mas/internal/infra/sched"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, offline AI allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		logging.New(config.LogConfig{}, true).Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap")
	}
	defer app.Close()

	// ---- HTTP API ----
	server := api.NewServer(app.Facade, cfg.App, logger).
		WithHealthCheck("postgres", app.DB.Ping)
	if app.Redis != nil {
		server = server.WithHealthCheck("redis", app.Redis.Ping)
	}
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Telegram ----
	var bot *tele.RealTelegramBotAdapter
	if cfg.Bot.Token != "" {
		tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
		if err != nil {
			logger.Fatal().Err(err).Msg("i18n")
		}
		kv := app.KV()
		bot, err = tele.NewRealTelegramBotAdapter(cfg, tele.Deps{
			Journeys:   app.Facade,
			States:     red.NewStateRepo(kv, time.Hour),
			Limiter:    red.NewRateLimiter(kv),
			Locker:     app.Locker(),
			Translator: tr,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		go func() {
			if err := bot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	} else {
		logger.Info().Msg("bot.token not set; telegram front end disabled")
	}

	// ---- Background jobs ----
	janitor := sched.NewSessionJanitor(cfg.Workers.JanitorInterval, app.Memory, logger)
	go func() { _ = janitor.Run(ctx) }()
	dbStats := sched.NewDBStatsReporter(15*time.Second, app.DB, logger)
	go func() { _ = dbStats.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")
	cancel()

	if bot != nil {
		bot.StopPolling()
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
}
