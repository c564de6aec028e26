package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"edgewatch/internal/bot"
	"edgewatch/internal/config"
	"edgewatch/internal/edge"
	"edgewatch/internal/health"
	"edgewatch/internal/logger"
	"edgewatch/internal/polymarket"
	"edgewatch/internal/storage"
	"edgewatch/internal/telegram"
	"edgewatch/internal/tracker"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	logger.L().Infof("configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.MaxAlerts, cfg.Storage.DBPath)
	if err != nil {
		logger.L().Fatalf("failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.L().Errorf("failed to close storage: %v", err)
		}
	}()

	client := polymarket.NewClient(
		cfg.Polymarket.GammaAPIURL,
		cfg.Polymarket.Timeout,
		polymarket.ClientConfig{
			MaxRetries:        cfg.Polymarket.MaxRetries,
			RetryDelayBase:    cfg.Polymarket.RetryDelayBase,
			RetryDelayMax:     cfg.Polymarket.RetryDelayMax,
			PageSize:          cfg.Polymarket.PageSize,
			RequestsPerSecond: cfg.Polymarket.RequestsPerSecond,
		},
	)

	classifier := edge.New()
	trk := tracker.New(classifier, tracker.Config{
		LiquidityThreshold:     cfg.Tracker.LiquidityThreshold,
		PriceChangeThreshold:   cfg.Tracker.PriceChangeThreshold,
		VolumeSpikeRatio:       cfg.Tracker.VolumeSpikeRatio,
		MinLiquidityForAlerts:  cfg.Tracker.MinLiquidityForAlerts,
		MinVolumeForAlerts:     cfg.Tracker.MinVolumeForAlerts,
		MinPriorVolumeForSpike: cfg.Tracker.MinPriorVolumeForSpike,
		GroupCooldown:          cfg.Tracker.GroupCooldown,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notifier *telegram.Client
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries,
			cfg.Telegram.RetryDelayBase,
		)
		if err != nil {
			logger.L().Fatalf("failed to initialize Telegram client: %v", err)
		}
		logger.L().Info("telegram client initialized")
	} else {
		logger.L().Debug("telegram notifications disabled")
	}

	b := bot.New(cfg, client, classifier, trk, notifier, store)
	if notifier != nil {
		notifier.SetCallbacks(telegram.Callbacks{
			Status:   b.Status,
			Trending: b.Trending,
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.L().Info("shutdown signal received")
		cancel()
	}()

	if notifier != nil {
		notifier.ListenForCommands(ctx)
	}
	if cfg.Health.Enabled {
		health.New(cfg.Health.Port, b.StatusMap).Start(ctx)
	}

	b.Run(ctx)
	logger.L().Info("service stopped")
}
