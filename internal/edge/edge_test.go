package edge

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestClassify(t *testing.T) {
	c := New()

	tests := []struct {
		name       string
		text       string
		tags       []string
		wantDomain Domain
		wantConf   float64
		wantNil    bool
	}{
		{
			name:       "two keywords score 0.6",
			text:       "Will PSG win Ligue 1 this season?",
			wantDomain: FootballEuro,
			wantConf:   0.6,
		},
		{
			name:       "single keyword clears the floor",
			text:       "Will Macron dissolve the assembly?",
			wantDomain: PoliticsFR,
			wantConf:   0.3,
		},
		{
			name:       "three keywords earn the bonus capped at 1.0",
			text:       "Will PSG, Marseille or Lyon finish top of the table?",
			wantDomain: FootballEuro,
			wantConf:   1.0,
		},
		{
			name:       "tags contribute to matching",
			text:       "Who wins the title?",
			tags:       []string{"Ligue 1"},
			wantDomain: FootballEuro,
			wantConf:   0.3,
		},
		{
			name:    "no keyword matches",
			text:    "Will bitcoin close above 100k?",
			wantNil: true,
		},
		{
			name:    "keyword only matches whole words",
			text:    "pls resolve this market",
			wantNil: true,
		},
		{
			name:       "short keyword still matches as a word",
			text:       "Will PS back the coalition?",
			wantDomain: PoliticsFR,
			wantConf:   0.3,
		},
		{
			name:       "equal scores keep the earlier domain",
			text:       "Mbappe weather delay",
			wantDomain: FootballIntl,
			wantConf:   0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text, tt.tags)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected no match, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a match, got nil")
			}
			if got.Domain != tt.wantDomain {
				t.Errorf("domain = %s, want %s", got.Domain, tt.wantDomain)
			}
			if !almostEqual(got.Confidence, tt.wantConf) {
				t.Errorf("confidence = %f, want %f", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestClassifyReportsMatchedKeywords(t *testing.T) {
	c := New()
	got := c.Classify("Will PSG win Ligue 1?", nil)
	if got == nil {
		t.Fatal("expected a match")
	}
	want := map[string]bool{"ligue 1": true, "psg": true}
	if len(got.MatchedKeywords) != len(want) {
		t.Fatalf("matched keywords = %v, want %v", got.MatchedKeywords, want)
	}
	for _, kw := range got.MatchedKeywords {
		if !want[kw] {
			t.Errorf("unexpected matched keyword %q", kw)
		}
	}
}

func TestMatches(t *testing.T) {
	c := New()
	if !c.Matches("earthquake near Tokyo", nil) {
		t.Error("expected earthquake text to match")
	}
	if c.Matches("Will the S&P close green?", nil) {
		t.Error("expected finance text not to match")
	}
}

func TestDomainDisplay(t *testing.T) {
	if PoliticsFR.Emoji() != "🇫🇷" {
		t.Errorf("unexpected emoji %q", PoliticsFR.Emoji())
	}
	if FootballEuro.Name() != "Football Europe" {
		t.Errorf("unexpected name %q", FootballEuro.Name())
	}
	if Domain("unknown").Emoji() != "📊" {
		t.Error("unknown domain should fall back to the generic emoji")
	}
	if got := Domains(); len(got) != 7 || got[0] != FootballEuro {
		t.Errorf("unexpected domain enumeration %v", got)
	}
}
