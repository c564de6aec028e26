// Package filters holds pure predicates for recognizing market categories
// that should never trigger change alerts, plus the group-key normalization
// that collapses near-duplicate question variants onto a shared cooldown key.
package filters

import (
	"regexp"
	"strings"
)

var months = `(january|february|march|april|may|june|july|august|september|october|november|december)`

// dailyPatterns recognize recurring date-qualified markets: daily weather
// and scheduled fixtures that respawn every day with a new date.
var dailyPatterns = []*regexp.Regexp{
	// "Will it be 45-47°F in NYC on January 5?"
	regexp.MustCompile(`(?i)\d+\s*-\s*\d+\s*°\s*[cf]`),
	// "Highest temperature in London on 2025-01-05?"
	regexp.MustCompile(`(?i)\b(highest|lowest)\s+temperature\b`),
	// "Will it rain in Paris on January 5?"
	regexp.MustCompile(`(?i)\bwill it (rain|snow)\b.*\bon\b`),
	// Date-qualified scheduled matches: "Lakers vs. Celtics, January 5"
	regexp.MustCompile(`(?i)\bvs\.?\b.*\b` + months + `\s+\d{1,2}\b`),
	regexp.MustCompile(`(?i)\bvs\.?\b.*\b\d{4}-\d{2}-\d{2}\b`),
}

// liveSportsPatterns recognize in-play sports markets whose prices swing
// with every possession; their movements are noise, not signal.
var liveSportsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bo/u\b`),
	regexp.MustCompile(`(?i)\bover/under\b`),
	regexp.MustCompile(`(?i)\b(point )?spread\b`),
	regexp.MustCompile(`(?i)\bmoneyline\b`),
	regexp.MustCompile(`(?i)\bnext (goal|point|touchdown|basket|wicket)\b`),
	regexp.MustCompile(`(?i)\b(red|yellow) card\b`),
	regexp.MustCompile(`(?i)\b(1st|2nd|first|second) half\b`),
	regexp.MustCompile(`(?i)\bhalftime\b`),
	regexp.MustCompile(`(?i)\bovertime\b`),
	regexp.MustCompile(`(?i)\bin-play\b`),
	regexp.MustCompile(`(?i)\bboth teams to score\b`),
	regexp.MustCompile(`(?i)\bfirst goalscorer\b`),
	regexp.MustCompile(`(?i)\bwin by \d+\b`),
}

// groupKey replacements, applied in order. Temperature ranges must be
// rewritten before scores: "45-47°F" would otherwise match the N-M score
// pattern first and leave the unit dangling.
var (
	tempRangeRe  = regexp.MustCompile(`\d+\s*-\s*\d+\s*°\s*[cf]`)
	isoDateRe    = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	monthDayRe   = regexp.MustCompile(`\b` + months + `\s+\d{1,2}(st|nd|rd|th)?\b`)
	percentRe    = regexp.MustCompile(`\b\d+(\.\d+)?\s*%`)
	scoreRe      = regexp.MustCompile(`\b\d+\s*-\s*\d+\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// IsDailyMarket reports whether the question describes a recurring
// daily/routine market.
func IsDailyMarket(question string) bool {
	for _, p := range dailyPatterns {
		if p.MatchString(question) {
			return true
		}
	}
	return false
}

// IsLiveSportsMarket reports whether the question describes a live
// in-play sports market.
func IsLiveSportsMarket(question string) bool {
	for _, p := range liveSportsPatterns {
		if p.MatchString(question) {
			return true
		}
	}
	return false
}

// GroupKey normalizes a question so that variants of the same underlying
// event share one cooldown key: dates, temperature ranges, percentages and
// scores are replaced with placeholder tokens and whitespace is collapsed.
func GroupKey(question string) string {
	key := strings.ToLower(question)
	key = tempRangeRe.ReplaceAllString(key, "<temp>")
	key = isoDateRe.ReplaceAllString(key, "<date>")
	key = monthDayRe.ReplaceAllString(key, "<date>")
	key = percentRe.ReplaceAllString(key, "<pct>")
	key = scoreRe.ReplaceAllString(key, "<score>")
	key = whitespaceRe.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}
