// Package edge classifies markets into the operator's interest domains
// using whole-word keyword matching over question text and tags.
package edge

import (
	"regexp"
	"strings"
)

// Domain is a closed set of topic areas where the operator claims an edge.
type Domain string

const (
	FootballEuro Domain = "football_euro"
	FootballIntl Domain = "football_intl"
	LolLEC       Domain = "lol_lec"
	PoliticsFR   Domain = "politics_fr"
	SocietyFR    Domain = "society_fr"
	Weather      Domain = "weather"
	Earthquake   Domain = "earthquake"
)

// domainOrder fixes the enumeration order for tie-breaking: when two
// domains score equally, the first one listed here wins.
var domainOrder = []Domain{
	FootballEuro,
	FootballIntl,
	LolLEC,
	PoliticsFR,
	SocietyFR,
	Weather,
	Earthquake,
}

// Match is the result of a successful classification.
type Match struct {
	Domain          Domain
	MatchedKeywords []string
	Confidence      float64
}

// MinConfidence is the floor below which a classification is discarded.
const MinConfidence = 0.3

var domainKeywords = map[Domain][]string{
	FootballEuro: {
		// Leagues
		"ligue 1", "premier league", "la liga", "serie a", "bundesliga",
		"champions league", "europa league", "conference league",
		"eredivisie", "primeira liga", "super lig",
		// French clubs
		"psg", "paris saint-germain", "marseille", "lyon", "monaco", "lille",
		"lens", "nice", "rennes", "nantes", "strasbourg", "toulouse",
		// English clubs
		"manchester united", "manchester city", "liverpool", "chelsea fc", "arsenal",
		"tottenham", "newcastle", "west ham", "aston villa", "brighton",
		// Spanish clubs
		"real madrid", "barcelona", "atletico madrid", "sevilla", "valencia",
		"villarreal", "real sociedad", "athletic bilbao",
		// Italian clubs
		"juventus", "inter milan", "ac milan", "napoli", "roma", "lazio", "atalanta",
		// German clubs
		"bayern munich", "borussia dortmund", "rb leipzig", "bayer leverkusen",
		// Other top clubs
		"ajax", "psv", "benfica", "porto", "sporting",
		// Generic terms, kept specific enough to avoid false positives
		"ballon d'or", "golden boot", "ucl", "uel",
	},
	FootballIntl: {
		// Competitions
		"world cup", "coupe du monde", "euro 2024", "euro 2028", "euros",
		"nations league", "copa america", "african cup", "afcon",
		"asian cup", "concacaf", "qualifiers",
		// National teams
		"france national", "les bleus", "equipe de france",
		"england national", "germany national", "spain national",
		"italy national", "brazil national", "argentina national",
		// Players
		"mbappe", "griezmann", "dembele", "giroud",
		"kante", "pogba", "benzema", "tchouameni", "camavinga",
		"messi", "ronaldo", "haaland", "bellingham", "vinicius",
	},
	LolLEC: {
		"league of legends", "lol esports",
		"fnatic esports", "g2 esports", "mad lions", "team vitality esports",
		"team heretics", "karmine corp", "kcorp",
		"lec winter", "lec spring", "lec summer", "lol worlds",
	},
	PoliticsFR: {
		// Politicians
		"macron", "le pen", "marine le pen", "melenchon",
		"bardella", "attal", "borne", "darmanin", "le maire",
		"zemmour", "ciotti", "wauquiez", "glucksmann", "roussel",
		"ruffin", "edouard philippe", "sarkozy", "hollande",
		// Parties
		"renaissance", "rassemblement national", "rn", "lfi", "france insoumise",
		"les republicains", "lr", "parti socialiste", "ps", "eelv",
		"reconquete", "nupes", "nfp", "nouveau front populaire",
		// Institutions
		"assemblee nationale", "senat", "elysee", "matignon",
		"conseil constitutionnel",
		// Events
		"french election", "france election", "legislatives",
		"presidentielle", "municipales", "europeennes",
	},
	SocietyFR: {
		// Geographic
		"france", "french", "paris", "francaise", "francais",
		"lyon", "marseille", "bordeaux", "toulouse", "nice", "nantes", "strasbourg",
		// Media
		"tf1", "france 2", "bfm", "cnews", "le monde", "le figaro",
		// Topics
		"gilets jaunes", "yellow vests france", "greve france", "strike france",
		"retraites france", "pension france",
	},
	Weather: {
		"weather", "meteo", "temperature", "temperatures",
		"heat wave", "canicule", "cold wave", "vague de froid",
		"snow", "neige", "rain", "pluie", "storm", "tempete",
		"flooding", "inondation", "drought", "secheresse",
		"france weather", "europe weather", "paris weather",
		"meteo france",
	},
	Earthquake: {
		"earthquake", "tremblement de terre", "seisme",
		"magnitude", "richter", "aftershock", "replique",
		"seismic", "sismique", "epicenter", "epicentre",
		"tsunami", "fault line", "faille",
		"earthquake france", "earthquake europe", "earthquake turkey",
		"earthquake japan", "earthquake california",
	},
}

var domainEmojis = map[Domain]string{
	FootballEuro: "⚽",
	FootballIntl: "🏆",
	LolLEC:       "🎮",
	PoliticsFR:   "🇫🇷",
	SocietyFR:    "🗼",
	Weather:      "🌦️",
	Earthquake:   "🌍",
}

var domainNames = map[Domain]string{
	FootballEuro: "Football Europe",
	FootballIntl: "Football International",
	LolLEC:       "LoL / LEC",
	PoliticsFR:   "French Politics",
	SocietyFR:    "France & Society",
	Weather:      "Weather",
	Earthquake:   "Earthquakes",
}

type domainPatterns struct {
	domain   Domain
	keywords []string
	patterns []*regexp.Regexp
}

// Classifier matches market text against per-domain keyword tables.
// The compiled tables are read-only after New and safe for concurrent use.
type Classifier struct {
	domains []domainPatterns
}

// New compiles all keyword patterns once.
func New() *Classifier {
	c := &Classifier{domains: make([]domainPatterns, 0, len(domainOrder))}
	for _, domain := range domainOrder {
		keywords := domainKeywords[domain]
		dp := domainPatterns{
			domain:   domain,
			keywords: keywords,
			patterns: make([]*regexp.Regexp, len(keywords)),
		}
		for i, kw := range keywords {
			// Whole-word match so e.g. keyword "ps" never fires inside "pls".
			dp.patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		}
		c.domains = append(c.domains, dp)
	}
	return c
}

// Classify returns the best-scoring domain match for the given question
// text and tags, or nil when no domain clears MinConfidence.
//
// Confidence is min(1.0, matches*0.3) with a +0.2 bonus (still capped)
// at three or more matched keywords. Ties keep the first domain in
// enumeration order.
func (c *Classifier) Classify(text string, tags []string) *Match {
	haystack := strings.ToLower(text)
	if len(tags) > 0 {
		haystack += " " + strings.ToLower(strings.Join(tags, " "))
	}

	var best *Match
	for _, dp := range c.domains {
		var matched []string
		for i, pattern := range dp.patterns {
			if pattern.MatchString(haystack) {
				matched = append(matched, dp.keywords[i])
			}
		}
		if len(matched) == 0 {
			continue
		}

		confidence := float64(len(matched)) * 0.3
		if confidence > 1.0 {
			confidence = 1.0
		}
		if len(matched) >= 3 {
			confidence += 0.2
			if confidence > 1.0 {
				confidence = 1.0
			}
		}

		if best == nil || confidence > best.Confidence {
			best = &Match{
				Domain:          dp.domain,
				MatchedKeywords: matched,
				Confidence:      confidence,
			}
		}
	}

	if best == nil || best.Confidence < MinConfidence {
		return nil
	}
	return best
}

// Matches reports whether the text belongs to any edge domain.
func (c *Classifier) Matches(text string, tags []string) bool {
	return c.Classify(text, tags) != nil
}

// Emoji returns the display emoji for a domain.
func (d Domain) Emoji() string {
	if e, ok := domainEmojis[d]; ok {
		return e
	}
	return "📊"
}

// Name returns the human-readable name for a domain.
func (d Domain) Name() string {
	if n, ok := domainNames[d]; ok {
		return n
	}
	return string(d)
}

// Domains returns all configured domains in enumeration order.
func Domains() []Domain {
	out := make([]Domain, len(domainOrder))
	copy(out, domainOrder)
	return out
}
