package session

import (
	"strconv"
	"strings"

	"github.com/yanun0323/errors"

	"github.com/Chinedu-E/tradetrail/pkg/exception"
)

// TransactionType is the direction of a trade.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// Transaction is one trade instruction sent by a session client.
//
// The wire format is loose key/value text, e.g.
//
//	type: buy, shares: 2, price: 101.5
//
// Unknown keys are ignored; all three keys are required.
type Transaction struct {
	Type   TransactionType `json:"type"`
	Shares float64         `json:"shares"`
	Price  float64         `json:"price"`
}

// ParseTransaction parses the loose text format into a Transaction.
func ParseTransaction(text string) (Transaction, error) {
	rawType, ok := parseField(text, "type")
	if !ok {
		return Transaction{}, errors.Wrap(exception.ErrBadTransaction, "missing field: type")
	}
	rawShares, ok := parseField(text, "shares")
	if !ok {
		return Transaction{}, errors.Wrap(exception.ErrBadTransaction, "missing field: shares")
	}
	rawPrice, ok := parseField(text, "price")
	if !ok {
		return Transaction{}, errors.Wrap(exception.ErrBadTransaction, "missing field: price")
	}

	transactionType := TransactionType(strings.ToLower(rawType))
	if transactionType != TransactionBuy && transactionType != TransactionSell {
		return Transaction{}, errors.Wrapf(exception.ErrBadTransaction, "bad type: %q", rawType)
	}
	shares, err := strconv.ParseFloat(rawShares, 64)
	if err != nil {
		return Transaction{}, errors.Wrapf(exception.ErrBadTransaction, "bad shares: %q", rawShares)
	}
	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil {
		return Transaction{}, errors.Wrapf(exception.ErrBadTransaction, "bad price: %q", rawPrice)
	}
	if shares <= 0 || price < 0 {
		return Transaction{}, errors.Wrapf(exception.ErrBadTransaction, "out of range: shares=%f price=%f", shares, price)
	}

	return Transaction{Type: transactionType, Shares: shares, Price: price}, nil
}

// Validate checks a transaction built outside ParseTransaction, e.g. one
// decoded from JSON.
func (t Transaction) Validate() error {
	if t.Type != TransactionBuy && t.Type != TransactionSell {
		return errors.Wrapf(exception.ErrBadTransaction, "bad type: %q", t.Type)
	}
	if t.Shares <= 0 || t.Price < 0 {
		return errors.Wrapf(exception.ErrBadTransaction, "out of range: shares=%f price=%f", t.Shares, t.Price)
	}
	return nil
}

// String renders the transaction back into the wire text format.
func (t Transaction) String() string {
	var b strings.Builder
	b.WriteString("type: ")
	b.WriteString(string(t.Type))
	b.WriteString(", shares: ")
	b.WriteString(strconv.FormatFloat(t.Shares, 'f', -1, 64))
	b.WriteString(", price: ")
	b.WriteString(strconv.FormatFloat(t.Price, 'f', -1, 64))
	return b.String()
}

// parseField extracts the value following "key:" up to the next comma or the
// end of the string. Keys embedded inside other words do not match.
func parseField(text, key string) (string, bool) {
	search := text
	offset := 0
	for {
		idx := strings.Index(search, key+":")
		if idx < 0 {
			return "", false
		}
		if idx > 0 {
			prev := search[idx-1]
			if prev != ' ' && prev != ',' && prev != '\t' {
				offset += idx + len(key) + 1
				search = search[idx+len(key)+1:]
				continue
			}
		}
		rest := search[idx+len(key)+1:]
		if end := strings.Index(rest, ","); end >= 0 {
			rest = rest[:end]
		}
		value := strings.TrimSpace(rest)
		if value == "" {
			return "", false
		}
		return value, true
	}
}
