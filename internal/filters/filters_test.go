package filters

import "testing"

func TestIsDailyMarket(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"Will it be 45-47°F in NYC on January 5?", true},
		{"Highest temperature in London on 2025-01-05?", true},
		{"Lowest temperature in Paris today?", true},
		{"Will it rain in Paris on January 5?", true},
		{"Will it snow in Lyon on Christmas Day?", true},
		{"Lakers vs. Celtics, January 5", true},
		{"Arsenal vs Chelsea on 2025-02-14", true},
		{"Will PSG win Ligue 1 this season?", false},
		{"Will Macron resign before 2027?", false},
		{"Will it rain frogs someday?", false},
	}
	for _, tt := range tests {
		if got := IsDailyMarket(tt.question); got != tt.want {
			t.Errorf("IsDailyMarket(%q) = %v, want %v", tt.question, got, tt.want)
		}
	}
}

func TestIsLiveSportsMarket(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"PSG o/u 2.5 goals", true},
		{"Over/under 210.5 points", true},
		{"Will the spread hold at -7?", true},
		{"Moneyline: Liverpool to win", true},
		{"Will PSG score the next goal?", true},
		{"Will there be a red card in the match?", true},
		{"Most points in the first half", true},
		{"Score tied at halftime?", true},
		{"Will the game go to overtime?", true},
		{"Both teams to score?", true},
		{"First goalscorer: Mbappe?", true},
		{"Will Madrid win by 3 or more?", true},
		{"Will PSG win Ligue 1 this season?", false},
		{"Will Macron win re-election?", false},
	}
	for _, tt := range tests {
		if got := IsLiveSportsMarket(tt.question); got != tt.want {
			t.Errorf("IsLiveSportsMarket(%q) = %v, want %v", tt.question, got, tt.want)
		}
	}
}

func TestGroupKeyCollapsesVariants(t *testing.T) {
	pairs := []struct {
		name string
		a, b string
	}{
		{
			name: "temperature ranges and month dates",
			a:    "Will it be 45-47°F on January 5",
			b:    "Will it be 50-52°F on January 6",
		},
		{
			name: "iso dates",
			a:    "Arsenal to lead on 2025-01-05",
			b:    "Arsenal to lead on 2025-03-20",
		},
		{
			name: "percentages",
			a:    "Will turnout exceed 40% in the vote",
			b:    "Will turnout exceed 62.5% in the vote",
		},
		{
			name: "scores",
			a:    "Will the match end 2-1 tonight",
			b:    "Will the match end 3-0 tonight",
		},
		{
			name: "case and whitespace",
			a:    "Will   MACRON  Resign",
			b:    "will macron resign",
		},
		{
			name: "ordinal dates",
			a:    "Rain in Paris on March 3rd",
			b:    "Rain in Paris on March 21st",
		},
	}
	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			ka, kb := GroupKey(tt.a), GroupKey(tt.b)
			if ka != kb {
				t.Errorf("keys differ:\n  %q -> %q\n  %q -> %q", tt.a, ka, tt.b, kb)
			}
		})
	}
}

func TestGroupKeyPlaceholders(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"Will it be 45-47°F on January 5", "will it be <temp> on <date>"},
		{"Final score 2-1 on 2025-01-05", "final score <score> on <date>"},
		{"Turnout above 40%?", "turnout above <pct>?"},
	}
	for _, tt := range tests {
		if got := GroupKey(tt.question); got != tt.want {
			t.Errorf("GroupKey(%q) = %q, want %q", tt.question, got, tt.want)
		}
	}
}

func TestGroupKeyDistinctQuestionsStayDistinct(t *testing.T) {
	a := GroupKey("Will Macron resign before 2027?")
	b := GroupKey("Will Le Pen win in 2027?")
	if a == b {
		t.Errorf("unrelated questions collapsed to %q", a)
	}
}
