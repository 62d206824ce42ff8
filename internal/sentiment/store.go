package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/yanun0323/errors"
)

// Store indexes scored documents into Elasticsearch, one index per pipeline.
type Store struct {
	es          *elasticsearch.Client
	newsIndex   string
	socialIndex string
}

// NewStore wraps a client with the two sentiment indices.
func NewStore(es *elasticsearch.Client, newsIndex, socialIndex string) *Store {
	return &Store{es: es, newsIndex: newsIndex, socialIndex: socialIndex}
}

// Ping checks the document store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "ping elasticsearch")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("elasticsearch ping failed, status: %s", res.Status())
	}
	return nil
}

// IndexNews writes one news document.
func (s *Store) IndexNews(ctx context.Context, doc NewsDocument) error {
	return s.index(ctx, s.newsIndex, doc.ID, doc)
}

// IndexSocial writes one social document.
func (s *Store) IndexSocial(ctx context.Context, doc SocialDocument) error {
	return s.index(ctx, s.socialIndex, doc.ID, doc)
}

func (s *Store) index(ctx context.Context, index, id string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, s.es)
	if err != nil {
		return errors.Wrap(err, "index document").With("index", index)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return errors.Errorf("index document failed, err: %s", strings.TrimSpace(string(body)))
	}
	return nil
}
