package clustering

import (
	"encoding/json"
	"math/rand"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"github.com/Chinedu-E/tradetrail/pkg/exception"
)

// Assignment is one symbol's cluster membership.
type Assignment struct {
	Symbol   string  `json:"symbol"`
	Cluster  int     `json:"cluster"`
	Returns  float64 `json:"returns"`
	Variance float64 `json:"variance"`
	Sector   string  `json:"sector,omitempty"`
}

// Clusters is a fitted clustering of the symbol universe with the selection
// helpers the trading side uses.
type Clusters struct {
	k           int
	assignments []Assignment
	bySymbol    map[string]int
	rng         *rand.Rand
}

// Build fits k-means over the feature rows and returns the clustering.
// Sectors are optional and only feed the sector fallback.
func Build(rows []FeatureRow, k int, seed int64, sectors map[string]string) (*Clusters, error) {
	if len(rows) == 0 {
		return nil, exception.ErrEmptyUniverse
	}
	labels := kmeans(rows, k, seed)

	assignments := make([]Assignment, len(rows))
	maxLabel := 0
	for i, row := range rows {
		assignments[i] = Assignment{
			Symbol:   row.Symbol,
			Cluster:  labels[i],
			Returns:  row.Returns,
			Variance: row.Variance,
			Sector:   sectors[row.Symbol],
		}
		if labels[i] > maxLabel {
			maxLabel = labels[i]
		}
	}
	return fromAssignments(assignments, maxLabel+1, seed), nil
}

// FromAssignments rebuilds the clustering from persisted assignments.
func FromAssignments(assignments []Assignment) (*Clusters, error) {
	if len(assignments) == 0 {
		return nil, exception.ErrEmptyUniverse
	}
	maxLabel := 0
	for _, a := range assignments {
		if a.Cluster > maxLabel {
			maxLabel = a.Cluster
		}
	}
	return fromAssignments(assignments, maxLabel+1, time.Now().UnixNano()), nil
}

func fromAssignments(assignments []Assignment, k int, seed int64) *Clusters {
	bySymbol := make(map[string]int, len(assignments))
	for _, a := range assignments {
		bySymbol[a.Symbol] = a.Cluster
	}
	return &Clusters{
		k:           k,
		assignments: assignments,
		bySymbol:    bySymbol,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// K returns the number of clusters.
func (c *Clusters) K() int { return c.k }

// Assignments returns a copy of every assignment.
func (c *Clusters) Assignments() []Assignment {
	out := make([]Assignment, len(c.assignments))
	copy(out, c.assignments)
	return out
}

// ClusterOf returns the cluster for a symbol.
func (c *Clusters) ClusterOf(symbol string) (int, bool) {
	cluster, ok := c.bySymbol[symbol]
	return cluster, ok
}

// SymbolsIn returns the symbols of one cluster in random order.
func (c *Clusters) SymbolsIn(cluster int) []string {
	var out []string
	for _, a := range c.assignments {
		if a.Cluster == cluster {
			out = append(out, a.Symbol)
		}
	}
	c.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Sample returns a random cluster index.
func (c *Clusters) Sample() int {
	return c.rng.Intn(c.k)
}

// SectorPeers returns every symbol sharing the sector of the given symbol.
func (c *Clusters) SectorPeers(symbol string) []string {
	var sector string
	for _, a := range c.assignments {
		if a.Symbol == symbol {
			sector = a.Sector
			break
		}
	}
	if sector == "" {
		return nil
	}
	var out []string
	for _, a := range c.assignments {
		if a.Sector == sector {
			out = append(out, a.Symbol)
		}
	}
	return out
}

// Select returns up to n symbols related to the given one: its cluster first,
// padded with sector peers when the cluster is too small.
func (c *Clusters) Select(symbol string, n int) []string {
	cluster, ok := c.ClusterOf(symbol)
	if !ok {
		return nil
	}
	stocks := c.SymbolsIn(cluster)
	if len(stocks) >= n {
		return stocks[:n]
	}
	seen := make(map[string]struct{}, len(stocks))
	for _, s := range stocks {
		seen[s] = struct{}{}
	}
	for _, s := range c.SectorPeers(symbol) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		stocks = append(stocks, s)
		if len(stocks) == n {
			break
		}
	}
	return stocks
}

// DiversePortfolio picks n symbols spread across random clusters.
func (c *Clusters) DiversePortfolio(n int) []string {
	var stocks []string
	seen := make(map[string]struct{})
	for len(stocks) < n {
		grew := false
		for i := 0; i < 4 && len(stocks) < n; i++ {
			candidates := c.SymbolsIn(c.rng.Intn(c.k))
			if len(candidates) == 0 {
				continue
			}
			pick := candidates[0]
			if _, ok := seen[pick]; ok {
				continue
			}
			seen[pick] = struct{}{}
			stocks = append(stocks, pick)
			grew = true
		}
		if !grew && len(seen) >= len(c.assignments) {
			break
		}
	}
	return stocks
}

// SimilarPortfolio picks n symbols out of a single sampled cluster, falling
// back to further clusters when the first is too small.
func (c *Clusters) SimilarPortfolio(n int) []string {
	var stocks []string
	seen := make(map[string]struct{})
	for len(stocks) < n && len(seen) < len(c.assignments) {
		for _, s := range c.SymbolsIn(c.Sample()) {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			stocks = append(stocks, s)
			if len(stocks) == n {
				break
			}
		}
	}
	return stocks
}

// Export writes the assignments as a JSON array, the legacy artifact layout.
func (c *Clusters) Export(path string) error {
	data, err := json.MarshalIndent(c.assignments, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal cluster export")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write cluster export")
}

// LoadExport reads a JSON assignments artifact back.
func LoadExport(path string) (*Clusters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read cluster export")
	}
	var assignments []Assignment
	if err := json.Unmarshal(data, &assignments); err != nil {
		return nil, errors.Wrap(err, "parse cluster export")
	}
	return FromAssignments(assignments)
}
