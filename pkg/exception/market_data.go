package exception

import "errors"

var (
	ErrUnknownSymbol    = errors.New("market data: unknown symbol")
	ErrEmptyUniverse    = errors.New("market data: empty universe")
	ErrMalformedMessage = errors.New("market data: malformed message")
)
