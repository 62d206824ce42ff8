package marketdata

// Tick is a single generated session price point.
type Tick struct {
	Symbol string
	Seq    uint64
	Price  float64
	TsNano int64
}
