package models

import (
	"strings"
	"testing"
	"time"

	"edgewatch/internal/edge"
)

func validMarket() Market {
	return Market{
		ID:            "12345",
		Question:      "Will PSG win Ligue 1?",
		Slug:          "will-psg-win-ligue-1",
		Outcomes:      []string{"Yes", "No"},
		OutcomePrices: []float64{0.62, 0.38},
		Volume24h:     15000,
		Liquidity:     42000,
		Active:        true,
	}
}

func TestMarketValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Market)
		wantErr bool
	}{
		{name: "valid", mutate: func(m *Market) {}},
		{name: "missing id", mutate: func(m *Market) { m.ID = "" }, wantErr: true},
		{name: "missing question", mutate: func(m *Market) { m.Question = "" }, wantErr: true},
		{name: "mismatched price count", mutate: func(m *Market) { m.OutcomePrices = []float64{0.62} }, wantErr: true},
		{name: "price above one", mutate: func(m *Market) { m.OutcomePrices[0] = 1.2 }, wantErr: true},
		{name: "negative price", mutate: func(m *Market) { m.OutcomePrices[1] = -0.1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMarket()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMarketIsDead(t *testing.T) {
	m := validMarket()
	if m.IsDead() {
		t.Error("active open market reported dead")
	}
	m.Closed = true
	if !m.IsDead() {
		t.Error("closed market not reported dead")
	}
	m.Closed = false
	m.Active = false
	if !m.IsDead() {
		t.Error("inactive market not reported dead")
	}
}

func TestMarketURL(t *testing.T) {
	m := validMarket()
	if got := m.URL(); got != "https://polymarket.com/event/will-psg-win-ligue-1" {
		t.Errorf("unexpected URL %q", got)
	}
}

func TestFormattedPrices(t *testing.T) {
	m := validMarket()
	if got := m.FormattedPrices(); got != "Yes: 62.0% | No: 38.0%" {
		t.Errorf("unexpected formatted prices %q", got)
	}
}

func TestPriceForOutcome(t *testing.T) {
	m := validMarket()
	if p, ok := m.PriceForOutcome("No"); !ok || p != 0.38 {
		t.Errorf("PriceForOutcome(No) = %f, %v", p, ok)
	}
	if _, ok := m.PriceForOutcome("Maybe"); ok {
		t.Error("unknown outcome should not resolve")
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "hello world"},
		{"a_b*c[d]e", `a\_b\*c\[d\]e`},
		{"1.5% (up)", `1\.5% \(up\)`},
		{"x-y=z!", `x\-y\=z\!`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeMarkdownV2(tt.in); got != tt.want {
			t.Errorf("EscapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	alert := Alert{
		Kind:   AlertPriceChange,
		Market: validMarket(),
		Edge: &edge.Match{
			Domain:          edge.FootballEuro,
			MatchedKeywords: []string{"psg", "ligue 1"},
			Confidence:      0.6,
		},
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"outcome":       "Yes",
			"priceChange":   0.15,
			"previousPrice": 0.47,
			"currentPrice":  0.62,
		},
	}

	msg := alert.FormatMessage()

	for _, want := range []string{
		"PRICE MOVE",
		"Football Europe",
		"Will PSG win Ligue 1?",
		`Yes: 62\.0% \| No: 38\.0%`,
		`Change: \+15\.0%`,
		`Previous price: 47\.0%`,
		"Keywords: psg, ligue 1",
		"https://polymarket.com/event/will-psg-win-ligue-1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatMessageKeywordsCapped(t *testing.T) {
	alert := Alert{
		Kind:   AlertNewMarket,
		Market: validMarket(),
		Edge: &edge.Match{
			Domain:          edge.FootballEuro,
			MatchedKeywords: []string{"psg", "ligue 1", "marseille", "lyon"},
			Confidence:      1.0,
		},
		Timestamp: time.Now(),
	}

	msg := alert.FormatMessage()
	if !strings.Contains(msg, "NEW MARKET") {
		t.Errorf("missing header:\n%s", msg)
	}
	if !strings.Contains(msg, "Keywords: psg, ligue 1, marseille") {
		t.Errorf("expected first three keywords only:\n%s", msg)
	}
	if strings.Contains(msg, "lyon") {
		t.Errorf("fourth keyword should be dropped:\n%s", msg)
	}
}

func TestFormatMessageVolumeSpike(t *testing.T) {
	alert := Alert{
		Kind:      AlertVolumeSpike,
		Market:    validMarket(),
		Timestamp: time.Now(),
		Metadata:  map[string]any{"volumeIncreaseRatio": 1.1},
	}

	msg := alert.FormatMessage()
	if !strings.Contains(msg, "VOLUME SPIKE") {
		t.Errorf("missing header:\n%s", msg)
	}
	if !strings.Contains(msg, `Volume \+110%`) {
		t.Errorf("missing volume delta line:\n%s", msg)
	}
}
