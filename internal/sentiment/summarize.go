package sentiment

import (
	"sort"
	"strings"
)

const (
	summarySentences = 3
	summaryMaxWords  = 100
)

// Summarize extracts the highest-scoring sentences from an article, keeping
// their original order. Sentences score by the frequency of their words
// across the whole text, so the summary favors what the article keeps
// talking about.
func Summarize(text string) string {
	sentences := splitSentences(text)
	if len(sentences) <= summarySentences {
		return capWords(strings.Join(sentences, " "), summaryMaxWords)
	}

	freq := map[string]float64{}
	for _, w := range tokenize(text) {
		freq[w]++
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		words := tokenize(s)
		if len(words) == 0 {
			ranked[i] = scored{index: i}
			continue
		}
		sum := 0.0
		for _, w := range words {
			sum += freq[w]
		}
		ranked[i] = scored{index: i, score: sum / float64(len(words))}
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	picked := ranked[:summarySentences]
	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })

	parts := make([]string, len(picked))
	for i, p := range picked {
		parts[i] = sentences[p.index]
	}
	return capWords(strings.Join(parts, " "), summaryMaxWords)
}

func splitSentences(text string) []string {
	out := []string{}
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func capWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:limit], " ")
}
