package sentiment

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/logs"
)

// DocumentSink receives scored documents.
type DocumentSink interface {
	IndexNews(ctx context.Context, doc NewsDocument) error
	IndexSocial(ctx context.Context, doc SocialDocument) error
}

// NewsConfig bounds one news pipeline run.
type NewsConfig struct {
	Workers        int
	SymbolLimit    int
	ArticlesPerRun int
}

// NewsPipeline discovers recent articles per ticker, summarizes them, scores
// the summaries and indexes the result.
type NewsPipeline struct {
	cfg      NewsConfig
	scraper  *Scraper
	analyzer *Analyzer
	sink     DocumentSink
}

// NewNewsPipeline wires the news pipeline.
func NewNewsPipeline(cfg NewsConfig, scraper *Scraper, sink DocumentSink) *NewsPipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.SymbolLimit <= 0 {
		cfg.SymbolLimit = 8
	}
	if cfg.ArticlesPerRun <= 0 {
		cfg.ArticlesPerRun = 3
	}
	return &NewsPipeline{
		cfg:      cfg,
		scraper:  scraper,
		analyzer: NewAnalyzer(),
		sink:     sink,
	}
}

// Run processes the first SymbolLimit tickers with a bounded worker pool.
// A ticker that fails is logged and skipped; the run itself keeps going.
func (p *NewsPipeline) Run(ctx context.Context, tickers []string) int {
	if len(tickers) > p.cfg.SymbolLimit {
		tickers = tickers[:p.cfg.SymbolLimit]
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
					logs.Warnf("news pipeline for %s, err: %+v", ticker, err)
				}
				mu.Lock()
				indexed += n
				mu.Unlock()
			}
		}()
	}

	for _, ticker := range tickers {
		select {
		case <-ctx.Done():
		case jobs <- ticker:
		}
	}
	close(jobs)
	wg.Wait()

	logs.Infof("news pipeline indexed %d documents across %d tickers", indexed, len(tickers))
	return indexed
}

func (p *NewsPipeline) processTicker(ctx context.Context, ticker string) (int, error) {
	links, err := p.scraper.SearchLinks(ctx, ticker)
	if err != nil {
		return 0, err
	}
	urls := StripUnwantedURLs(links, p.cfg.ArticlesPerRun)

	now := time.Now()
	indexed := 0
	for _, url := range urls {
		article, err := p.scraper.ScrapeArticle(ctx, url)
		if err != nil {
			logs.Warnf("scrape %s, err: %+v", url, err)
			continue
		}
		if article == "" {
			continue
		}

		summary := Summarize(article)
		label, score := p.analyzer.Score(summary)
		doc := newNewsDocument(ticker, url, article, summary, label, score, now)
		if err := p.sink.IndexNews(ctx, doc); err != nil {
			logs.Errorf("index news for %s, err: %+v", ticker, err)
			continue
		}
		indexed++
	}
	return indexed, nil
}
