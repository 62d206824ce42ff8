package marketdata

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/yanun0323/errors"
)

// defaultUniverse is a liquid large-cap subset used when no universe file is configured.
var defaultUniverse = []string{
	"AAPL", "MSFT", "AMZN", "GOOGL", "META", "NVDA", "TSLA", "BRK-B", "UNH", "JNJ",
	"XOM", "JPM", "V", "PG", "MA", "HD", "CVX", "LLY", "ABBV", "MRK",
	"AVGO", "PEP", "KO", "PFE", "COST", "TMO", "WMT", "MCD", "BAC", "CSCO",
	"ACN", "ABT", "CRM", "LIN", "DIS", "ADBE", "TXN", "VZ", "NKE", "NEE",
	"CMCSA", "PM", "RTX", "WFC", "ORCL", "AMD", "INTC", "QCOM", "UPS", "HON",
	"T", "LOW", "CAT", "BA", "GS", "IBM", "SBUX", "DE", "GE", "MMM",
}

// Universe is the deduplicated, upper-cased set of tradable symbols.
type Universe struct {
	symbols []string
	sectors map[string]string
}

// DefaultUniverse returns the bundled symbol set.
func DefaultUniverse() *Universe {
	return newUniverse(defaultUniverse, nil)
}

// LoadUniverse reads a universe file: one symbol per line, optional
// "SYMBOL,Sector" form, '#' starts a comment.
func LoadUniverse(path string) (*Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open universe file")
	}
	defer f.Close()

	var symbols []string
	sectors := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbol, sector, _ := strings.Cut(line, ",")
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		symbols = append(symbols, symbol)
		if sector = strings.TrimSpace(sector); sector != "" {
			sectors[symbol] = sector
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read universe file")
	}
	if len(symbols) == 0 {
		return nil, errors.New("universe file has no symbols")
	}
	return newUniverse(symbols, sectors), nil
}

func newUniverse(symbols []string, sectors map[string]string) *Universe {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	if sectors == nil {
		sectors = make(map[string]string)
	}
	return &Universe{symbols: out, sectors: sectors}
}

// Symbols returns a copy of the symbol list.
func (u *Universe) Symbols() []string {
	out := make([]string, len(u.symbols))
	copy(out, u.symbols)
	return out
}

// Len returns the number of symbols.
func (u *Universe) Len() int {
	return len(u.symbols)
}

// Contains reports whether the symbol is part of the universe.
func (u *Universe) Contains(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	for _, s := range u.symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// Sector returns the sector for a symbol when the universe file provided one.
func (u *Universe) Sector(symbol string) (string, bool) {
	sector, ok := u.sectors[strings.ToUpper(symbol)]
	return sector, ok
}
