package telegram

import (
	"strings"
	"testing"
	"time"

	"edgewatch/internal/models"
)

func TestNewClientRejectsBadChatID(t *testing.T) {
	if _, err := NewClient("token", "not-a-number", 3, time.Second); err == nil {
		t.Error("expected error for non-numeric chat ID")
	}
}

func TestFormatStatus(t *testing.T) {
	s := Status{
		TrackedMarkets:  1200,
		EdgeMarkets:     34,
		LastCheck:       time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		AlertsToday:     7,
		PollInterval:    3 * time.Minute,
		Uptime:          90 * time.Minute,
		InitialScanDone: true,
	}

	msg := formatStatus(s)
	for _, want := range []string{
		"Bot Status",
		"Markets tracked: 1200",
		"Edge markets: 34",
		`Last check: 2025\-03\-10 12:00:00 UTC`,
		"Alerts sent today: 7",
		"Poll interval: 3m0s",
		"Uptime: 1h30m0s",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("status missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Initial scan still in progress") {
		t.Error("scan-in-progress note should be absent when scan is done")
	}
}

func TestFormatStatusBeforeFirstCheck(t *testing.T) {
	msg := formatStatus(Status{})
	if !strings.Contains(msg, "Last check: never") {
		t.Errorf("expected 'never' before first check:\n%s", msg)
	}
	if !strings.Contains(msg, "Initial scan still in progress") {
		t.Errorf("expected scan-in-progress note:\n%s", msg)
	}
}

func TestFormatTrending(t *testing.T) {
	markets := []models.Market{
		{
			Question:      "Will PSG win Ligue 1?",
			Slug:          "will-psg-win-ligue-1",
			Outcomes:      []string{"Yes", "No"},
			OutcomePrices: []float64{0.62, 0.38},
			Volume24h:     15000,
		},
	}

	msg := formatTrending(markets)
	for _, want := range []string{
		"Trending Edge Markets",
		"Will PSG win Ligue 1?",
		`Yes: 62\.0% \| No: 38\.0%`,
		"https://polymarket.com/event/will-psg-win-ligue-1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("trending missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatTrendingEmpty(t *testing.T) {
	msg := formatTrending(nil)
	if !strings.Contains(msg, "No trending edge markets") {
		t.Errorf("unexpected empty-trending message:\n%s", msg)
	}
}

func TestFormatTrendingTruncatesLongQuestionsByRune(t *testing.T) {
	question := strings.Repeat("x", 79) + "°F and some trailing detail"
	markets := []models.Market{{
		Question:      question,
		Slug:          "slug",
		Outcomes:      []string{"Yes", "No"},
		OutcomePrices: []float64{0.5, 0.5},
	}}

	msg := formatTrending(markets)
	want := models.EscapeMarkdownV2(strings.Repeat("x", 79) + "°...")
	if !strings.Contains(msg, want) {
		t.Errorf("expected rune-safe truncation %q in:\n%s", want, msg)
	}
	if strings.Contains(msg, "trailing detail") {
		t.Error("question should have been truncated")
	}
}

func TestFormatTrendingCapsAtFive(t *testing.T) {
	var markets []models.Market
	for i := 0; i < 8; i++ {
		markets = append(markets, models.Market{
			Question:      "Question",
			Slug:          "slug",
			Outcomes:      []string{"Yes", "No"},
			OutcomePrices: []float64{0.5, 0.5},
		})
	}
	msg := formatTrending(markets)
	if strings.Contains(msg, `6\.`) {
		t.Errorf("trending must cap at five entries:\n%s", msg)
	}
	if !strings.Contains(msg, `5\.`) {
		t.Errorf("expected five entries:\n%s", msg)
	}
}

func TestWelcomeMessageListsCommands(t *testing.T) {
	msg := welcomeMessage()
	for _, want := range []string{"/status", "/trending", "/help"} {
		if !strings.Contains(msg, want) {
			t.Errorf("welcome missing %q:\n%s", want, msg)
		}
	}
}
