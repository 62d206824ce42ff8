package conn

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/yanun0323/errors"
)

// NewElasticsearch builds a client for a single-node address.
func NewElasticsearch(addr string) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create elasticsearch client")
	}
	return es, nil
}
