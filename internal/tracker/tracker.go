// Package tracker holds the alert detection engine: it compares each poll
// snapshot against last-known market state, classifies changes against
// thresholds, and emits deduplicated, cooldown-gated alert events.
package tracker

import (
	"fmt"
	"math"
	"strings"
	"time"

	"edgewatch/internal/edge"
	"edgewatch/internal/filters"
	"edgewatch/internal/logger"
	"edgewatch/internal/models"
)

// Config holds the detection thresholds and suppression floors.
type Config struct {
	// LiquidityThreshold is the minimum liquidity (USD) for a brand-new
	// market to alert.
	LiquidityThreshold float64
	// PriceChangeThreshold is the minimum absolute outcome-price delta
	// (fraction of 1.0) to alert.
	PriceChangeThreshold float64
	// VolumeSpikeRatio is the minimum fractional 24h-volume increase to alert.
	VolumeSpikeRatio float64
	// MinLiquidityForAlerts: markets below this liquidity never trigger
	// price/volume alerts, though they are still tracked.
	MinLiquidityForAlerts float64
	// MinVolumeForAlerts: below this 24h volume, price/volume alerts are
	// suppressed as noise.
	MinVolumeForAlerts float64
	// MinPriorVolumeForSpike: below this prior 24h volume, a spike ratio is
	// considered unreliable and suppressed.
	MinPriorVolumeForSpike float64
	// GroupCooldown is the shared suppression window for near-duplicate
	// markets (same normalized question).
	GroupCooldown time.Duration
}

// DefaultConfig returns the default detection thresholds.
func DefaultConfig() Config {
	return Config{
		LiquidityThreshold:     1000,
		PriceChangeThreshold:   0.10,
		VolumeSpikeRatio:       0.50,
		MinLiquidityForAlerts:  1000,
		MinVolumeForAlerts:     100,
		MinPriorVolumeForSpike: 500,
		GroupCooldown:          60 * time.Minute,
	}
}

// marketState is the last-observed snapshot retained per market.
type marketState struct {
	prices     map[string]float64
	volume24h  float64
	liquidity  float64
	lastSeenAt time.Time
}

// Tracker detects alertable market changes across poll ticks. It is owned
// by a single polling goroutine; calls are not safe for concurrent use.
type Tracker struct {
	cfg        Config
	classifier *edge.Classifier

	known         map[string]*marketState
	alertedKeys   map[string]struct{}
	alertedGroups map[string]time.Time
	initialized   bool

	now func() time.Time
}

// New creates a tracker using the given classifier and thresholds.
func New(classifier *edge.Classifier, cfg Config) *Tracker {
	return &Tracker{
		cfg:           cfg,
		classifier:    classifier,
		known:         make(map[string]*marketState),
		alertedKeys:   make(map[string]struct{}),
		alertedGroups: make(map[string]time.Time),
		now:           time.Now,
	}
}

func snapshotOf(m *models.Market, now time.Time) *marketState {
	prices := make(map[string]float64, len(m.Outcomes))
	for i, outcome := range m.Outcomes {
		if i < len(m.OutcomePrices) {
			prices[outcome] = m.OutcomePrices[i]
		}
	}
	return &marketState{
		prices:     prices,
		volume24h:  m.Volume24h,
		liquidity:  m.Liquidity,
		lastSeenAt: now,
	}
}

// hourBucket is the current UTC hour truncated to YYYYMMDDHH, the dedup
// scope for price and volume alert keys.
func hourBucket(t time.Time) string {
	return t.UTC().Format("2006010215")
}

// Process ingests one poll batch and returns the alerts it produced, in
// input order. The very first non-empty batch is a learning pass: it seeds
// state and emits nothing.
func (t *Tracker) Process(markets []models.Market) []models.Alert {
	var alerts []models.Alert
	for i := range markets {
		alerts = append(alerts, t.checkMarket(&markets[i])...)
	}
	if !t.initialized && len(markets) > 0 {
		t.initialized = true
		logger.WithComponent("tracker").Infof(
			"initial load complete, tracking %d markets; future changes will trigger alerts", len(t.known))
	}
	return alerts
}

// checkMarket evaluates a single market. A panic here (malformed input)
// is confined to this market so the rest of the batch still processes.
func (t *Tracker) checkMarket(market *models.Market) (alerts []models.Alert) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithComponent("tracker").Errorf("error checking market %s: %v", market.ID, r)
			alerts = nil
		}
	}()

	now := t.now()

	match := t.classifier.Classify(market.Question, market.Tags)
	if match == nil {
		// Non-edge markets are tracked minimally so a later retag still has
		// a baseline, but their movements are never evaluated.
		t.seedIfAbsent(market, now)
		return nil
	}

	if filters.IsDailyMarket(market.Question) {
		t.seedIfAbsent(market, now)
		return nil
	}

	liveSports := filters.IsLiveSportsMarket(market.Question)
	prev, tracked := t.known[market.ID]

	if !tracked {
		if t.initialized && !liveSports && market.Liquidity >= t.cfg.LiquidityThreshold {
			key := "new:" + market.ID
			if _, alerted := t.alertedKeys[key]; !alerted {
				alerts = append(alerts, models.Alert{
					Kind:      models.AlertNewMarket,
					Market:    *market,
					Message:   "New market detected in your edge domains",
					Edge:      match,
					Timestamp: now,
				})
				t.alertedKeys[key] = struct{}{}
				logger.WithComponent("tracker").Infof("new edge market alert: %s [%s]",
					truncate(market.Question, 50), match.Domain)
			}
		}
	} else {
		switch {
		case market.Liquidity < t.cfg.MinLiquidityForAlerts:
			// Too illiquid to act on.
		case market.Volume24h < t.cfg.MinVolumeForAlerts:
			// No real trading activity.
		case liveSports:
			// In-play swings are noise.
		default:
			// The cooldown state is snapshotted once so the price and volume
			// checks stay independent: a price alert marking the group must
			// not suppress this market's volume alert in the same call.
			group := filters.GroupKey(market.Question)
			onCooldown := t.groupOnCooldown(group, now)
			if alert := t.checkPriceChange(market, prev, match, group, onCooldown, now); alert != nil {
				alerts = append(alerts, *alert)
			}
			if alert := t.checkVolumeSpike(market, prev, match, group, onCooldown, now); alert != nil {
				alerts = append(alerts, *alert)
			}
		}
	}

	t.known[market.ID] = snapshotOf(market, now)
	return alerts
}

// checkPriceChange scans outcomes in sequence order and returns at most
// one alert per call.
func (t *Tracker) checkPriceChange(market *models.Market, prev *marketState, match *edge.Match, group string, onCooldown bool, now time.Time) *models.Alert {
	for i, outcome := range market.Outcomes {
		if i >= len(market.OutcomePrices) {
			break
		}
		current := market.OutcomePrices[i]
		previous, ok := prev.prices[outcome]
		if !ok || previous <= 0 {
			continue
		}
		delta := current - previous
		if math.Abs(delta) < t.cfg.PriceChangeThreshold {
			continue
		}

		key := fmt.Sprintf("price:%s:%s:%s", market.ID, outcome, hourBucket(now))
		if _, alerted := t.alertedKeys[key]; alerted {
			continue
		}
		if onCooldown {
			continue
		}

		t.alertedKeys[key] = struct{}{}
		t.alertedGroups[group] = now
		logger.WithComponent("tracker").Infof("price change alert: %s [%+.1f%%]",
			truncate(market.Question, 50), delta*100)
		return &models.Alert{
			Kind:      models.AlertPriceChange,
			Market:    *market,
			Message:   "Significant price move on " + outcome,
			Edge:      match,
			Timestamp: now,
			Metadata: map[string]any{
				"outcome":       outcome,
				"priceChange":   delta,
				"previousPrice": previous,
				"currentPrice":  current,
			},
		}
	}
	return nil
}

func (t *Tracker) checkVolumeSpike(market *models.Market, prev *marketState, match *edge.Match, group string, onCooldown bool, now time.Time) *models.Alert {
	if prev.volume24h <= 0 || prev.volume24h < t.cfg.MinPriorVolumeForSpike {
		return nil
	}
	ratio := (market.Volume24h - prev.volume24h) / prev.volume24h
	if ratio <= t.cfg.VolumeSpikeRatio {
		return nil
	}

	key := fmt.Sprintf("volume:%s:%s", market.ID, hourBucket(now))
	if _, alerted := t.alertedKeys[key]; alerted {
		return nil
	}
	if onCooldown {
		return nil
	}

	t.alertedKeys[key] = struct{}{}
	t.alertedGroups[group] = now
	logger.WithComponent("tracker").Infof("volume spike alert: %s [+%.0f%%]",
		truncate(market.Question, 50), ratio*100)
	return &models.Alert{
		Kind:      models.AlertVolumeSpike,
		Market:    *market,
		Message:   fmt.Sprintf("Volume spike detected: +%.0f%%", ratio*100),
		Edge:      match,
		Timestamp: now,
		Metadata: map[string]any{
			"volumeIncreaseRatio": ratio,
		},
	}
}

func (t *Tracker) groupOnCooldown(group string, now time.Time) bool {
	last, ok := t.alertedGroups[group]
	return ok && now.Sub(last) < t.cfg.GroupCooldown
}

func (t *Tracker) seedIfAbsent(market *models.Market, now time.Time) {
	if _, ok := t.known[market.ID]; !ok {
		t.known[market.ID] = snapshotOf(market, now)
	}
}

// CleanupExpiredKeys evicts price/volume alert keys whose hour bucket has
// rolled over. New-market keys carry no bucket and are kept forever: a
// market id alerts as new at most once per process lifetime.
func (t *Tracker) CleanupExpiredKeys() {
	bucket := hourBucket(t.now())
	for key := range t.alertedKeys {
		if strings.HasPrefix(key, "new:") {
			continue
		}
		idx := strings.LastIndexByte(key, ':')
		if suffix := key[idx+1:]; suffix != bucket {
			delete(t.alertedKeys, key)
		}
	}
	for group, last := range t.alertedGroups {
		if t.now().Sub(last) >= t.cfg.GroupCooldown {
			delete(t.alertedGroups, group)
		}
	}
}

// TrackedMarketCount returns the number of markets with retained state.
func (t *Tracker) TrackedMarketCount() int {
	return len(t.known)
}

// Initialized reports whether the learning pass has completed.
func (t *Tracker) Initialized() bool {
	return t.initialized
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
