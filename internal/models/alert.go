package models

import (
	"fmt"
	"strings"
	"time"

	"edgewatch/internal/edge"
)

// AlertKind enumerates the alert event types.
type AlertKind string

const (
	AlertNewMarket   AlertKind = "new_market"
	AlertPriceChange AlertKind = "price_change"
	AlertVolumeSpike AlertKind = "volume_spike"
)

// Alert is a typed notification payload. It is immutable once constructed
// and consumed exactly once by the notifier.
type Alert struct {
	Kind      AlertKind
	Market    Market
	Message   string
	Edge      *edge.Match
	Timestamp time.Time
	Metadata  map[string]any
}

// FormatMessage renders the alert as a Telegram MarkdownV2 message:
// a kind/domain header, the question, prices, liquidity, volume,
// kind-specific delta lines, up to three matched keywords, and a link.
func (a *Alert) FormatMessage() string {
	var emoji, title string
	switch a.Kind {
	case AlertNewMarket:
		emoji, title = "🚨", "NEW MARKET"
	case AlertPriceChange:
		emoji, title = "📊", "PRICE MOVE"
	default:
		emoji, title = "🔥", "VOLUME SPIKE"
	}

	var lines []string
	if a.Edge != nil {
		lines = append(lines, fmt.Sprintf("%s *%s* %s %s",
			emoji, EscapeMarkdownV2(title), a.Edge.Domain.Emoji(), EscapeMarkdownV2(a.Edge.Domain.Name())))
	} else {
		lines = append(lines, fmt.Sprintf("%s *%s*", emoji, EscapeMarkdownV2(title)))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("*%s*", EscapeMarkdownV2(a.Market.Question)))
	lines = append(lines, "")
	lines = append(lines, "💹 "+EscapeMarkdownV2(a.Market.FormattedPrices()))
	lines = append(lines, "💧 "+EscapeMarkdownV2(fmt.Sprintf("Liquidity: $%.0f", a.Market.Liquidity)))
	lines = append(lines, "💰 "+EscapeMarkdownV2(fmt.Sprintf("Volume 24h: $%.0f", a.Market.Volume24h)))

	if change, ok := a.metaFloat("priceChange"); ok {
		direction := "📈"
		if change < 0 {
			direction = "📉"
		}
		lines = append(lines, direction+" "+EscapeMarkdownV2(fmt.Sprintf("Change: %+.1f%%", change*100)))
		if prev, ok := a.metaFloat("previousPrice"); ok {
			lines = append(lines, EscapeMarkdownV2(fmt.Sprintf("Previous price: %.1f%%", prev*100)))
		}
	}
	if ratio, ok := a.metaFloat("volumeIncreaseRatio"); ok {
		lines = append(lines, "📈 "+EscapeMarkdownV2(fmt.Sprintf("Volume +%.0f%%", ratio*100)))
	}

	if a.Edge != nil && len(a.Edge.MatchedKeywords) > 0 {
		keywords := a.Edge.MatchedKeywords
		if len(keywords) > 3 {
			keywords = keywords[:3]
		}
		lines = append(lines, "🔍 "+EscapeMarkdownV2("Keywords: "+strings.Join(keywords, ", ")))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🔗 [Open on Polymarket](%s)", a.Market.URL()))

	return strings.Join(lines, "\n")
}

func (a *Alert) metaFloat(key string) (float64, bool) {
	if a.Metadata == nil {
		return 0, false
	}
	v, ok := a.Metadata[key].(float64)
	return v, ok
}

// EscapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
