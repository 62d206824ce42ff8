package trading

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	expected := []float64{0, 0, 2, 3, 4}
	for i := range expected {
		if !almostEqual(got[i], expected[i]) {
			t.Fatalf("sma[%d] mismatch! should be %f but got %f", i, expected[i], got[i])
		}
	}

	short := SMA([]float64{1, 2}, 3)
	for i, v := range short {
		if v != 0 {
			t.Fatalf("short series should be zero at %d, got %f", i, v)
		}
	}
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	got := RSI(rising, 14)
	for i := 0; i < 14; i++ {
		if got[i] != 0 {
			t.Fatalf("warmup positions should be zero, got %f at %d", got[i], i)
		}
	}
	for i := 14; i < len(got); i++ {
		if got[i] != 100 {
			t.Fatalf("all-gain series should read 100, got %f at %d", got[i], i)
		}
	}

	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = float64(100 - i)
	}
	got = RSI(falling, 14)
	for i := 14; i < len(got); i++ {
		if got[i] != 0 {
			t.Fatalf("all-loss series should read 0, got %f at %d", got[i], i)
		}
	}
}

func TestOBV(t *testing.T) {
	closes := []float64{10, 11, 11, 9, 12}
	volumes := []float64{100, 200, 300, 400, 500}
	got := OBV(closes, volumes)
	expected := []float64{0, 200, 200, -200, 300}
	for i := range expected {
		if !almostEqual(got[i], expected[i]) {
			t.Fatalf("obv[%d] mismatch! should be %f but got %f", i, expected[i], got[i])
		}
	}
}

func TestROC(t *testing.T) {
	got := ROC([]float64{100, 0, 110, 121, 90}, 2)
	expected := []float64{0, 0, 10, 0, -18.181818181818183}
	for i := range expected {
		if !almostEqual(got[i], expected[i]) {
			t.Fatalf("roc[%d] mismatch! should be %f but got %f", i, expected[i], got[i])
		}
	}
}

func TestKAMAFollowsTrend(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	got := KAMA(closes)
	for i := 0; i < kamaERPeriod; i++ {
		if got[i] != 0 {
			t.Fatalf("warmup positions should be zero, got %f at %d", got[i], i)
		}
	}
	for i := kamaERPeriod + 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("kama should rise on a steady uptrend: %f then %f at %d", got[i-1], got[i], i)
		}
		if got[i] > closes[i] {
			t.Fatalf("kama should lag the price, got %f above close %f at %d", got[i], closes[i], i)
		}
	}
}

func TestFeatureMatrix(t *testing.T) {
	candles := make([]Candle, 35)
	for i := range candles {
		c := float64(100 + i)
		candles[i] = Candle{Open: c - 1, High: c + 1, Low: c - 2, Close: c, Volume: 1000}
	}

	rows := FeatureMatrix(candles)
	if len(rows) != len(candles) {
		t.Fatalf("row count mismatch! should be %d but got %d", len(candles), len(rows))
	}
	for i, row := range rows {
		if len(row) != len(Predictors) {
			t.Fatalf("row %d width mismatch! should be %d but got %d", i, len(Predictors), len(row))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("row %d col %d is not finite: %f", i, j, v)
			}
		}
	}

	last := rows[len(rows)-1]
	if !almostEqual(last[3], candles[len(candles)-1].Close) {
		t.Fatalf("close column mismatch! should be %f but got %f", candles[len(candles)-1].Close, last[3])
	}
	if last[5] == 0 {
		t.Fatal("sma column should be populated once the window fills")
	}
}

func TestLabels(t *testing.T) {
	candles := []Candle{
		{Close: 100},
		{Close: 101},
		{Close: 101},
		{Close: 99},
		{Close: 105},
	}
	got := Labels(candles)
	expected := []int{1, 0, 0, 1}
	if len(got) != len(expected) {
		t.Fatalf("label count mismatch! should be %d but got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("label[%d] mismatch! should be %d but got %d", i, expected[i], got[i])
		}
	}

	if Labels(candles[:1]) != nil {
		t.Fatal("a single candle should have no labels")
	}
}
