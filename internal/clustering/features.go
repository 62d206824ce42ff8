package clustering

import "math"

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// FeatureRow is the clustering feature vector for one symbol.
type FeatureRow struct {
	Symbol   string  `json:"symbol"`
	Returns  float64 `json:"returns"`  // annualized mean daily return
	Variance float64 `json:"variance"` // annualized daily return variance
}

// FormFeatures computes (annualized return, annualized variance) per symbol
// from close price series. Symbols with fewer than two closes and
// non-finite results collapse to zero features.
func FormFeatures(closes map[string][]float64) []FeatureRow {
	rows := make([]FeatureRow, 0, len(closes))
	for symbol, series := range closes {
		row := FeatureRow{Symbol: symbol}
		if len(series) >= 2 {
			returns := dailyReturns(series)
			mean := meanOf(returns)
			row.Returns = mean * tradingDaysPerYear
			row.Variance = varianceOf(returns, mean) * tradingDaysPerYear
		}
		if math.IsNaN(row.Returns) || math.IsInf(row.Returns, 0) {
			row.Returns = 0
		}
		if math.IsNaN(row.Variance) || math.IsInf(row.Variance, 0) {
			row.Variance = 0
		}
		rows = append(rows, row)
	}
	return rows
}

func dailyReturns(closes []float64) []float64 {
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (closes[i]-prev)/prev)
	}
	return out
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// varianceOf is the sample variance around the given mean.
func varianceOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values)-1)
}
