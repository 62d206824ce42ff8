package session

// Book tracks one participant's balance and holdings for the length of a
// session. It is not safe for concurrent use; each connection owns its book.
type Book struct {
	StartingBalance float64 `json:"starting_balance"`
	IsAgent         bool    `json:"is_agent"`
	NumTrades       int     `json:"num_trades"`
	AvailableShares float64 `json:"available_shares"`
	Balance         float64 `json:"balance"`
}

// NewBook opens a book funded with the starting balance.
func NewBook(startingBalance float64, agent bool) *Book {
	return &Book{
		StartingBalance: startingBalance,
		IsAgent:         agent,
		Balance:         startingBalance,
	}
}

// Apply books a parsed transaction. A buy spends balance and accrues shares,
// a sell does the reverse.
func (b *Book) Apply(t Transaction) {
	b.NumTrades++
	notional := t.Shares * t.Price
	switch t.Type {
	case TransactionBuy:
		b.Balance -= notional
		b.AvailableShares += t.Shares
	case TransactionSell:
		b.Balance += notional
		b.AvailableShares -= t.Shares
	}
}

// Profit is the realized balance change since the session started, ignoring
// open share positions.
func (b *Book) Profit() float64 {
	return b.Balance - b.StartingBalance
}

// Equity marks open shares at the given price and adds the cash balance.
func (b *Book) Equity(price float64) float64 {
	return b.Balance + b.AvailableShares*price
}
