// Package bot drives the poll loop: fetch markets, run the tracker,
// deliver alerts, and answer status queries from the health server and
// the Telegram command surface.
package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"edgewatch/internal/config"
	"edgewatch/internal/edge"
	"edgewatch/internal/logger"
	"edgewatch/internal/models"
	"edgewatch/internal/polymarket"
	"edgewatch/internal/storage"
	"edgewatch/internal/telegram"
	"edgewatch/internal/tracker"
)

const trendingCacheSize = 50

// Bot owns the tracker instance and coordinates all collaborators. The
// tracker is only touched from the poll goroutine; the counters guarded by
// mu are read concurrently by the health and Telegram goroutines.
type Bot struct {
	cfg        *config.Config
	client     *polymarket.Client
	classifier *edge.Classifier
	tracker    *tracker.Tracker
	notifier   *telegram.Client // nil when telegram is disabled
	store      *storage.Storage

	mu              sync.RWMutex
	startTime       time.Time
	lastCheck       time.Time
	alertsToday     int
	alertsDate      string // UTC date the counter belongs to
	totalMarkets    int
	edgeMarkets     int
	trackedMarkets  int
	trending        []models.Market
	initialScanDone bool
}

// New wires up the orchestrator. notifier may be nil.
func New(cfg *config.Config, client *polymarket.Client, classifier *edge.Classifier,
	trk *tracker.Tracker, notifier *telegram.Client, store *storage.Storage) *Bot {
	b := &Bot{
		cfg:        cfg,
		client:     client,
		classifier: classifier,
		tracker:    trk,
		notifier:   notifier,
		store:      store,
		startTime:  time.Now(),
		alertsDate: time.Now().UTC().Format("2006-01-02"),
	}
	// Seed today's counter from history so /status survives restarts.
	if n, err := store.CountSince(startOfDayUTC(time.Now())); err == nil {
		b.alertsToday = n
	}
	return b
}

// Run executes the poll loop until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	log := logger.WithComponent("bot")
	log.Infof("starting monitoring (interval: %v, price threshold: %.0f%%, liquidity threshold: $%.0f)",
		b.cfg.Polymarket.PollInterval,
		b.cfg.Tracker.PriceChangeThreshold*100,
		b.cfg.Tracker.LiquidityThreshold)

	b.sendStartupMessage()
	b.initialScan(ctx)

	ticker := time.NewTicker(b.cfg.Polymarket.PollInterval)
	defer ticker.Stop()

	consecutiveFailures := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("monitoring stopped")
			b.sendShutdownMessage()
			return

		case <-ticker.C:
			err := b.runCycle(ctx)
			if err != nil {
				consecutiveFailures++
				log.Errorf("monitoring cycle failed: %v", err)
				if consecutiveFailures == 1 && b.notifier != nil {
					if sendErr := b.notifier.SendError(err); sendErr != nil {
						log.Warnf("failed to send error notification: %v", sendErr)
					}
				}
				continue
			}
			if consecutiveFailures > 0 && b.notifier != nil {
				if sendErr := b.notifier.SendRecovery(consecutiveFailures); sendErr != nil {
					log.Warnf("failed to send recovery notification: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}
}

// initialScan learns every active market before alerting begins and warms
// the trending cache. A failed scan is reported but not fatal: the next
// successful cycle becomes the learning pass instead.
func (b *Bot) initialScan(ctx context.Context) {
	log := logger.WithComponent("bot")
	log.Info("starting initial full market scan")

	if b.notifier != nil {
		_ = b.notifier.SendMessage(models.EscapeMarkdownV2(
			"🔄 Initial scan in progress: learning all Polymarket markets. This can take a minute."))
	}

	markets, err := b.client.FetchAllActiveMarkets(ctx)
	if err != nil {
		log.Errorf("initial scan failed: %v", err)
		if b.notifier != nil {
			_ = b.notifier.SendMessage(models.EscapeMarkdownV2(
				"⚠️ Initial scan failed; the bot will learn from the next poll instead."))
		}
		return
	}

	b.refreshCaches(markets)
	b.tracker.Process(markets) // learning pass, emits nothing

	b.mu.Lock()
	b.initialScanDone = true
	b.lastCheck = time.Now()
	b.trackedMarkets = b.tracker.TrackedMarketCount()
	total, edgeCount := b.totalMarkets, b.edgeMarkets
	b.mu.Unlock()

	log.Infof("initial scan complete: %d total markets, %d edge markets", total, edgeCount)
	if b.notifier != nil {
		_ = b.notifier.SendMessage(fmt.Sprintf("✅ *Initial scan done*\n%s",
			models.EscapeMarkdownV2(fmt.Sprintf("📊 Total markets: %d\n🎯 Edge markets: %d\nNow watching for new markets and changes.", total, edgeCount))))
	}
}

// runCycle performs one poll tick: fetch, detect, deliver.
func (b *Bot) runCycle(ctx context.Context) error {
	log := logger.WithComponent("bot")
	start := time.Now()

	markets, err := b.client.FetchAllActiveMarkets(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch markets: %w", err)
	}
	if len(markets) == 0 {
		log.Warn("no markets fetched from API")
		return nil
	}
	log.Infof("fetched %d active markets", len(markets))

	b.refreshCaches(markets)

	alerts := b.tracker.Process(markets)
	if len(alerts) > 0 {
		log.Infof("found %d alerts to send", len(alerts))
		b.deliver(alerts)
	} else {
		log.Debugf("no new alerts (tracking %d markets)", b.tracker.TrackedMarketCount())
	}

	b.tracker.CleanupExpiredKeys()

	b.mu.Lock()
	b.lastCheck = time.Now()
	b.trackedMarkets = b.tracker.TrackedMarketCount()
	if !b.initialScanDone {
		b.initialScanDone = b.tracker.Initialized()
	}
	b.mu.Unlock()

	log.Infof("monitoring cycle completed in %v", time.Since(start))
	return nil
}

// deliver sends alerts in order. Failures are logged and counted; they
// never block subsequent deliveries.
func (b *Bot) deliver(alerts []models.Alert) {
	log := logger.WithComponent("bot")
	sent := 0
	for i := range alerts {
		if b.notifier != nil && !b.notifier.SendAlert(&alerts[i]) {
			continue
		}
		sent++
		if err := b.store.RecordAlert(&alerts[i]); err != nil {
			log.Warnf("failed to record alert for market %s: %v", alerts[i].Market.ID, err)
		}
	}
	log.Infof("sent %d/%d alerts", sent, len(alerts))

	b.mu.Lock()
	b.rollAlertsDateLocked()
	b.alertsToday += sent
	b.mu.Unlock()
}

// refreshCaches recomputes market counters and the trending cache: the top
// alive edge markets by liquidity.
func (b *Bot) refreshCaches(markets []models.Market) {
	var alive []models.Market
	edgeCount := 0
	for i := range markets {
		if !b.classifier.Matches(markets[i].Question, markets[i].Tags) {
			continue
		}
		edgeCount++
		if !markets[i].IsDead() {
			alive = append(alive, markets[i])
		}
	}
	sort.Slice(alive, func(i, j int) bool {
		return alive[i].Liquidity > alive[j].Liquidity
	})
	if len(alive) > trendingCacheSize {
		alive = alive[:trendingCacheSize]
	}

	b.mu.Lock()
	b.totalMarkets = len(markets)
	b.edgeMarkets = edgeCount
	b.trending = alive
	b.mu.Unlock()
}

// Status returns a snapshot for the Telegram /status command.
func (b *Bot) Status() telegram.Status {
	b.mu.Lock()
	b.rollAlertsDateLocked()
	s := telegram.Status{
		TrackedMarkets:  b.trackedMarkets,
		EdgeMarkets:     b.edgeMarkets,
		LastCheck:       b.lastCheck,
		AlertsToday:     b.alertsToday,
		PollInterval:    b.cfg.Polymarket.PollInterval,
		Uptime:          time.Since(b.startTime),
		InitialScanDone: b.initialScanDone,
	}
	b.mu.Unlock()
	return s
}

// StatusMap returns the status fields for the health/metrics endpoints.
func (b *Bot) StatusMap() map[string]any {
	s := b.Status()
	lastCheck := "never"
	if !s.LastCheck.IsZero() {
		lastCheck = s.LastCheck.UTC().Format("2006-01-02 15:04:05 UTC")
	}
	return map[string]any{
		"tracked_markets":       s.TrackedMarkets,
		"edge_markets":          s.EdgeMarkets,
		"last_check":            lastCheck,
		"alerts_today":          s.AlertsToday,
		"poll_interval_seconds": int(s.PollInterval.Seconds()),
		"uptime_seconds":        int(s.Uptime.Seconds()),
		"initial_scan_done":     s.InitialScanDone,
	}
}

// Trending returns the cached top edge markets.
func (b *Bot) Trending() []models.Market {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Market, len(b.trending))
	copy(out, b.trending)
	return out
}

// rollAlertsDateLocked resets the daily counter on UTC day rollover.
// Callers must hold mu.
func (b *Bot) rollAlertsDateLocked() {
	today := time.Now().UTC().Format("2006-01-02")
	if today != b.alertsDate {
		b.alertsDate = today
		b.alertsToday = 0
	}
}

func (b *Bot) sendStartupMessage() {
	if b.notifier == nil {
		return
	}
	domains := edge.Domains()
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.Name()
	}
	text := fmt.Sprintf("🚀 *Polymarket Edge Bot started*\n\n%s",
		models.EscapeMarkdownV2(fmt.Sprintf(
			"⚡ Polling every %s\n💧 Liquidity threshold: $%.0f\n📊 Price change threshold: %.0f%%\n\n🎯 Watched domains:\n%s\n\nUse /status and /trending.",
			b.cfg.Polymarket.PollInterval,
			b.cfg.Tracker.LiquidityThreshold,
			b.cfg.Tracker.PriceChangeThreshold*100,
			strings.Join(names, ", "))))
	if err := b.notifier.SendMessage(text); err != nil {
		logger.WithComponent("bot").Warnf("failed to send startup message: %v", err)
	}
}

func (b *Bot) sendShutdownMessage() {
	if b.notifier == nil {
		return
	}
	_ = b.notifier.SendMessage("🛑 *Polymarket Edge Bot stopped*")
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
