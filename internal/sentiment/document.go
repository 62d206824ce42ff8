package sentiment

import (
	"time"

	"github.com/google/uuid"
)

// NewsDocument is one scored news article stored in the document index.
type NewsDocument struct {
	ID        string  `json:"id"`
	Ticker    string  `json:"ticker"`
	URL       string  `json:"url"`
	Text      string  `json:"text"`
	Summary   string  `json:"summary"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	DateAdded string  `json:"date_added"`
	Timestamp string  `json:"timestamp"`
}

// SocialDocument is one scored social post stored in the document index.
type SocialDocument struct {
	ID        string  `json:"id"`
	Ticker    string  `json:"ticker"`
	Date      string  `json:"date"`
	Post      string  `json:"post"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Timestamp string  `json:"timestamp"`
}

func newNewsDocument(ticker, url, text, summary, label string, score float64, now time.Time) NewsDocument {
	return NewsDocument{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		URL:       url,
		Text:      text,
		Summary:   summary,
		Sentiment: label,
		Score:     score,
		DateAdded: now.Format("2006-01-02"),
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

func newSocialDocument(ticker, date, post, label string, score float64, now time.Time) SocialDocument {
	return SocialDocument{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		Date:      date,
		Post:      post,
		Sentiment: label,
		Score:     score,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}
