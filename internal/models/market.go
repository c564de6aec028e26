// Package models defines the core domain entities: markets and alert events.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Market is a normalized snapshot of one Polymarket market, constructed
// fresh on every poll and immutable after construction.
type Market struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Slug          string    `json:"slug"`
	Outcomes      []string  `json:"outcomes"`
	OutcomePrices []float64 `json:"outcome_prices"`
	Volume        float64   `json:"volume"`
	Volume24h     float64   `json:"volume_24h"`
	Liquidity     float64   `json:"liquidity"`
	EndDate       time.Time `json:"end_date,omitempty"`
	Active        bool      `json:"active"`
	Closed        bool      `json:"closed"`
	Tags          []string  `json:"tags"`
	Image         string    `json:"image,omitempty"`
}

// Validate checks market field constraints.
func (m *Market) Validate() error {
	if m.ID == "" {
		return errors.New("market ID must not be empty")
	}
	if m.Question == "" {
		return errors.New("market question must not be empty")
	}
	if len(m.Outcomes) != len(m.OutcomePrices) {
		return errors.New("outcomes and outcome prices must have equal length")
	}
	for _, p := range m.OutcomePrices {
		if p < 0.0 || p > 1.0 {
			return errors.New("outcome price must be between 0.0 and 1.0")
		}
	}
	if m.Volume < 0 {
		return errors.New("volume must not be negative")
	}
	if m.Volume24h < 0 {
		return errors.New("volume 24h must not be negative")
	}
	if m.Liquidity < 0 {
		return errors.New("liquidity must not be negative")
	}
	return nil
}

// IsDead reports whether the market is closed or no longer active.
func (m *Market) IsDead() bool {
	return m.Closed || !m.Active
}

// URL returns the public Polymarket page for this market.
func (m *Market) URL() string {
	return "https://polymarket.com/event/" + m.Slug
}

// FormattedPrices renders outcome prices as "Yes: 62.0% | No: 38.0%".
func (m *Market) FormattedPrices() string {
	if len(m.Outcomes) == 0 || len(m.OutcomePrices) == 0 {
		return "N/A"
	}
	n := len(m.Outcomes)
	if len(m.OutcomePrices) < n {
		n = len(m.OutcomePrices)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf("%s: %.1f%%", m.Outcomes[i], m.OutcomePrices[i]*100))
	}
	return strings.Join(parts, " | ")
}

// PriceForOutcome returns the price of the named outcome, if present.
func (m *Market) PriceForOutcome(outcome string) (float64, bool) {
	for i, o := range m.Outcomes {
		if o == outcome && i < len(m.OutcomePrices) {
			return m.OutcomePrices[i], true
		}
	}
	return 0, false
}
