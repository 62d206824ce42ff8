package marketdata

import (
	"strconv"

	"github.com/yanun0323/decimal"
)

// Bar is one daily OHLCV bar as carried on the prices topic.
type Bar struct {
	Symbol string          `json:"symbol"`
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Quote is a live quote snapshot as carried on the latest_prices topic.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previousClose"`
	Open          decimal.Decimal `json:"open"`
	DayHigh       decimal.Decimal `json:"dayHigh"`
	DayLow        decimal.Decimal `json:"dayLow"`
	Volume        int64           `json:"volume"`
	TsNano        int64           `json:"ts"`
}

// PriceFloat returns the live price as a float64, zero when unparsable.
func (q Quote) PriceFloat() float64 {
	return decimalFloat(q.Price)
}

// CloseFloat returns the close price as a float64, zero when unparsable.
func (b Bar) CloseFloat() float64 {
	return decimalFloat(b.Close)
}

// Floats returns open/high/low/close as float64 values.
func (b Bar) Floats() (open, high, low, closing float64) {
	return decimalFloat(b.Open), decimalFloat(b.High), decimalFloat(b.Low), decimalFloat(b.Close)
}

func decimalFloat(d decimal.Decimal) float64 {
	f, err := strconv.ParseFloat(d.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

func floatDecimal(f float64) decimal.Decimal {
	return decimal.Decimal(strconv.FormatFloat(f, 'f', -1, 64))
}
