package sentiment

import (
	"math"
	"strings"
)

// Sentiment labels.
const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

var positiveWords = map[string]struct{}{
	"gain": {}, "gains": {}, "surge": {}, "surges": {}, "rally": {}, "rallies": {},
	"beat": {}, "beats": {}, "strong": {}, "growth": {}, "profit": {}, "profits": {},
	"upgrade": {}, "upgraded": {}, "bullish": {}, "record": {}, "outperform": {},
	"soar": {}, "soars": {}, "soared": {}, "jump": {}, "jumps": {}, "jumped": {},
	"rise": {}, "rises": {}, "rose": {}, "up": {}, "higher": {}, "buy": {},
	"positive": {}, "optimistic": {}, "momentum": {}, "recovery": {}, "boost": {},
	"exceed": {}, "exceeds": {}, "exceeded": {}, "win": {}, "wins": {},
}

var negativeWords = map[string]struct{}{
	"loss": {}, "losses": {}, "drop": {}, "drops": {}, "dropped": {}, "fall": {},
	"falls": {}, "fell": {}, "plunge": {}, "plunges": {}, "plunged": {},
	"miss": {}, "misses": {}, "missed": {}, "weak": {}, "decline": {}, "declines": {},
	"downgrade": {}, "downgraded": {}, "bearish": {}, "underperform": {},
	"sink": {}, "sinks": {}, "sank": {}, "slump": {}, "slumps": {}, "down": {},
	"lower": {}, "sell": {}, "selloff": {}, "negative": {}, "pessimistic": {},
	"lawsuit": {}, "probe": {}, "recall": {}, "bankruptcy": {}, "layoff": {},
	"layoffs": {}, "cut": {}, "cuts": {}, "warning": {}, "risk": {}, "fear": {},
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "without": {}, "hardly": {}, "barely": {},
	"isn't": {}, "wasn't": {}, "don't": {}, "didn't": {}, "won't": {}, "can't": {},
}

// Analyzer scores text with a finance lexicon. A negating word flips the
// polarity of the word that follows it.
type Analyzer struct{}

// NewAnalyzer returns a ready scorer.
func NewAnalyzer() *Analyzer { return &Analyzer{} }

// Score labels the text and returns a confidence in (0.5, 1].
func (a *Analyzer) Score(text string) (label string, score float64) {
	words := tokenize(text)

	total := 0.0
	hits := 0
	negated := false
	for _, w := range words {
		if _, ok := negations[w]; ok {
			negated = true
			continue
		}

		polarity := 0.0
		if _, ok := positiveWords[w]; ok {
			polarity = 1
		} else if _, ok := negativeWords[w]; ok {
			polarity = -1
		}
		if polarity != 0 {
			if negated {
				polarity = -polarity
			}
			total += polarity
			hits++
		}
		negated = false
	}

	if hits == 0 {
		return LabelNeutral, 0.5
	}

	// squash the net polarity into a confidence
	confidence := 0.5 + 0.5*math.Tanh(math.Abs(total)/3)
	switch {
	case total > 0:
		return LabelPositive, confidence
	case total < 0:
		return LabelNegative, confidence
	default:
		return LabelNeutral, 0.5
	}
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
