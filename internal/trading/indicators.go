package trading

import "math"

// Predictors is the feature vector layout the direction model is trained on.
var Predictors = []string{"Open", "High", "Low", "Close", "Volume", "SMA", "RSI", "OBV", "KAMA", "ROC"}

const (
	smaPeriod = 30
	rsiPeriod = 14
	rocPeriod = 30

	kamaERPeriod   = 10
	kamaFastPeriod = 2
	kamaSlowPeriod = 30
)

// Candle is one OHLCV input row for the indicator stack.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// SMA is the simple moving average of closes; positions without a full
// window are zero.
func SMA(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RSI is the relative strength index with Wilder smoothing.
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// OBV is the running on-balance volume.
func OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out
	}
	obv := 0.0
	for i := 1; i < len(closes) && i < len(volumes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv += volumes[i]
		case closes[i] < closes[i-1]:
			obv -= volumes[i]
		}
		out[i] = obv
	}
	return out
}

// KAMA is Kaufman's adaptive moving average.
func KAMA(closes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(closes) <= kamaERPeriod {
		return out
	}

	fastSC := 2.0 / float64(kamaFastPeriod+1)
	slowSC := 2.0 / float64(kamaSlowPeriod+1)

	kama := closes[kamaERPeriod-1]
	for i := kamaERPeriod; i < len(closes); i++ {
		change := math.Abs(closes[i] - closes[i-kamaERPeriod])
		volatility := 0.0
		for j := i - kamaERPeriod + 1; j <= i; j++ {
			volatility += math.Abs(closes[j] - closes[j-1])
		}
		er := 0.0
		if volatility != 0 {
			er = change / volatility
		}
		sc := math.Pow(er*(fastSC-slowSC)+slowSC, 2)
		kama += sc * (closes[i] - kama)
		out[i] = kama
	}
	return out
}

// ROC is the rate of change over the period, in percent.
func ROC(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 {
		return out
	}
	for i := period; i < len(closes); i++ {
		base := closes[i-period]
		if base == 0 {
			continue
		}
		out[i] = (closes[i] - base) / base * 100
	}
	return out
}

// FeatureMatrix computes the full predictor matrix for a candle series, one
// row per candle in the Predictors order. Non-finite values collapse to zero.
func FeatureMatrix(candles []Candle) [][]float64 {
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	sma := SMA(closes, smaPeriod)
	rsi := RSI(closes, rsiPeriod)
	obv := OBV(closes, volumes)
	kama := KAMA(closes)
	roc := ROC(closes, rocPeriod)

	rows := make([][]float64, len(candles))
	for i, c := range candles {
		row := []float64{c.Open, c.High, c.Low, c.Close, c.Volume, sma[i], rsi[i], obv[i], kama[i], roc[i]}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[j] = 0
			}
		}
		rows[i] = row
	}
	return rows
}

// Labels builds next-close-up labels: 1 when the following close is higher.
// The last candle has no following close and is dropped.
func Labels(candles []Candle) []int {
	if len(candles) < 2 {
		return nil
	}
	out := make([]int, len(candles)-1)
	for i := 0; i < len(candles)-1; i++ {
		if candles[i+1].Close > candles[i].Close {
			out[i] = 1
		}
	}
	return out
}
