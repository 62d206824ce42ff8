package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Post is one raw social post before filtering.
type Post struct {
	Date string `json:"date"`
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// PostSource yields recent posts mentioning a ticker.
type PostSource interface {
	Posts(ctx context.Context, ticker string, limit int) ([]Post, error)
}

// HTTPPostSource reads posts as JSON from a search endpoint.
type HTTPPostSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPostSource wires a post source. client defaults to a 20s timeout.
func NewHTTPPostSource(baseURL string, client *http.Client) *HTTPPostSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTTPPostSource{baseURL: baseURL, client: client}
}

// Posts fetches up to limit posts mentioning the ticker.
func (s *HTTPPostSource) Posts(ctx context.Context, ticker string, limit int) ([]Post, error) {
	endpoint := fmt.Sprintf("%s?q=%s&limit=%d", strings.TrimSuffix(s.baseURL, "/"), url.QueryEscape(ticker), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", "tradetrail/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch posts for %s", ticker)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status: %s", resp.Status)
	}

	var posts []Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, errors.Wrap(err, "decode posts")
	}
	return posts, nil
}

// SocialConfig bounds one social pipeline run.
type SocialConfig struct {
	Workers        int
	Sample         int
	PostsPerSymbol int
	Seed           int64
}

// SocialPipeline samples tickers, pulls their recent posts, scores the kept
// ones and indexes them.
type SocialPipeline struct {
	cfg      SocialConfig
	source   PostSource
	analyzer *Analyzer
	sink     DocumentSink
	rng      *rand.Rand
}

// NewSocialPipeline wires the social pipeline.
func NewSocialPipeline(cfg SocialConfig, source PostSource, sink DocumentSink) *SocialPipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Sample <= 0 {
		cfg.Sample = 100
	}
	if cfg.PostsPerSymbol <= 0 {
		cfg.PostsPerSymbol = 20
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SocialPipeline{
		cfg:      cfg,
		source:   source,
		analyzer: NewAnalyzer(),
		sink:     sink,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Run samples Sample tickers with replacement and processes them with a
// bounded worker pool.
func (p *SocialPipeline) Run(ctx context.Context, tickers []string) int {
	if len(tickers) == 0 {
		return 0
	}

	sampled := make([]string, p.cfg.Sample)
	for i := range sampled {
		sampled[i] = tickers[p.rng.Intn(len(tickers))]
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		indexed int
	)
	jobs := make(chan string)
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				n, err := p.processTicker(ctx, ticker)
				if err != nil {
					logs.Warnf("social pipeline for %s, err: %+v", ticker, err)
				}
				mu.Lock()
				indexed += n
				mu.Unlock()
			}
		}()
	}

	for _, ticker := range sampled {
		select {
		case <-ctx.Done():
		case jobs <- ticker:
		}
	}
	close(jobs)
	wg.Wait()

	logs.Infof("social pipeline indexed %d documents across %d sampled tickers", indexed, len(sampled))
	return indexed
}

func (p *SocialPipeline) processTicker(ctx context.Context, ticker string) (int, error) {
	posts, err := p.source.Posts(ctx, ticker, p.cfg.PostsPerSymbol*2)
	if err != nil {
		return 0, err
	}
	kept := FilterPosts(posts, p.cfg.PostsPerSymbol)

	now := time.Now()
	indexed := 0
	for _, post := range kept {
		label, score := p.analyzer.Score(post.Text)
		doc := newSocialDocument(ticker, post.Date, post.Text, label, score, now)
		if err := p.sink.IndexSocial(ctx, doc); err != nil {
			logs.Errorf("index social for %s, err: %+v", ticker, err)
			continue
		}
		indexed++
	}
	return indexed, nil
}

// FilterPosts keeps english posts, drops consecutive duplicates and caps the
// result.
func FilterPosts(posts []Post, limit int) []Post {
	out := make([]Post, 0, limit)
	for _, post := range posts {
		if len(out) == limit {
			break
		}
		if post.Lang != "en" {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Text == post.Text {
			continue
		}
		out = append(out, post)
	}
	return out
}
