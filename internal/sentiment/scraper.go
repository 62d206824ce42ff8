package sentiment

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/yanun0323/errors"
)

const articleWordCap = 350

var urlExpr = regexp.MustCompile(`https?://\S+`)

// excludedURLParts filters service pages out of discovered links.
var excludedURLParts = []string{"maps", "policies", "preferences", "accounts", "support"}

// Scraper discovers and fetches news articles for a ticker.
type Scraper struct {
	searchURL string
	client    *http.Client
}

// NewScraper wires a scraper against a news search endpoint. client defaults
// to a 20s timeout.
func NewScraper(searchURL string, client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scraper{searchURL: searchURL, client: client}
}

// SearchLinks collects every anchor href from the ticker's news search page.
func (s *Scraper) SearchLinks(ctx context.Context, ticker string) ([]string, error) {
	pageURL := fmt.Sprintf("%s?q=yahoo+finance+%s&tbm=nws", strings.TrimSuffix(s.searchURL, "/"), ticker)
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrapf(err, "search news for %s", ticker)
	}

	hrefs := []string{}
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs, nil
}

// ScrapeArticle fetches a page and joins its paragraph text, capped at 350
// words.
func (s *Scraper) ScrapeArticle(ctx context.Context, url string) (string, error) {
	doc, err := s.fetchDocument(ctx, url)
	if err != nil {
		return "", errors.Wrapf(err, "scrape article %s", url)
	}

	parts := []string{}
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return capWords(strings.Join(parts, " "), articleWordCap), nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", "tradetrail/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request document")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse document")
	}
	return doc, nil
}

// StripUnwantedURLs keeps https links that hit none of the excluded parts,
// trims tracking suffixes, dedupes and caps the result.
func StripUnwantedURLs(urls []string, limit int) []string {
	seen := map[string]struct{}{}
	for _, raw := range urls {
		if !strings.Contains(raw, "https://") {
			continue
		}
		excluded := false
		for _, part := range excludedURLParts {
			if strings.Contains(raw, part) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		match := urlExpr.FindString(raw)
		if match == "" {
			continue
		}
		cleaned := strings.SplitN(match, "&", 2)[0]
		seen[cleaned] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
