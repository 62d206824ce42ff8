package trading

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/yanun0323/errors"

	"github.com/Chinedu-E/tradetrail/pkg/exception"
)

func TestScaler(t *testing.T) {
	x := [][]float64{
		{0, 10, 5},
		{10, 20, 5},
		{5, 15, 5},
	}
	s := FitScaler(x)

	got := s.Transform([]float64{5, 10, 5})
	expected := []float64{0.5, 0, 0}
	for i := range expected {
		if !almostEqual(got[i], expected[i]) {
			t.Fatalf("col %d mismatch! should be %f but got %f", i, expected[i], got[i])
		}
	}

	all := s.TransformAll(x)
	for _, row := range all {
		for j, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("scaled value out of range at col %d: %f", j, v)
			}
		}
	}

	empty := FitScaler(nil)
	if len(empty.Min) != 0 || len(empty.Max) != 0 {
		t.Fatal("empty fit should produce an empty scaler")
	}
}

func separableData() ([][]float64, []int) {
	var x [][]float64
	var y []int
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			x = append(x, []float64{0.9, 0.8})
			y = append(y, 1)
		} else {
			x = append(x, []float64{0.1, 0.2})
			y = append(y, 0)
		}
	}
	return x, y
}

func TestTrainModel(t *testing.T) {
	x, y := separableData()
	scaler := FitScaler(x)
	model, err := TrainModel(scaler.TransformAll(x), y, TrainOptions{Epochs: 2000, LearningRate: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	model.Scaler = scaler
	if model.Algorithm != "LogisticRegression" {
		t.Fatalf("algorithm mismatch! should be LogisticRegression but got %s", model.Algorithm)
	}
	if len(model.Weights) != 2 {
		t.Fatalf("weight count mismatch! should be 2 but got %d", len(model.Weights))
	}

	for i := range x {
		if got := model.Predict(x[i]); got != y[i] {
			t.Fatalf("separable data should classify perfectly, row %d: should be %d but got %d", i, y[i], got)
		}
	}

	if p := model.Probability([]float64{0.9, 0.8}); p <= 0.5 {
		t.Fatalf("up-row probability should exceed 0.5, got %f", p)
	}
}

func TestTrainModelInvalid(t *testing.T) {
	if _, err := TrainModel(nil, nil, TrainOptions{}); !errors.Is(err, exception.ErrInvalidArgument) {
		t.Fatalf("empty input should fail with ErrInvalidArgument, got %+v", err)
	}
	if _, err := TrainModel([][]float64{{1}}, []int{1, 0}, TrainOptions{}); !errors.Is(err, exception.ErrInvalidArgument) {
		t.Fatalf("length mismatch should fail with ErrInvalidArgument, got %+v", err)
	}
}

func TestEvaluate(t *testing.T) {
	truth := []int{1, 1, 1, 0, 0, 0}
	predicted := []int{1, 1, 0, 0, 0, 1}
	probabilities := []float64{0.9, 0.8, 0.4, 0.3, 0.2, 0.6}

	eval := Evaluate(truth, predicted, probabilities)
	if !almostEqual(eval.Accuracy, 4.0/6.0) {
		t.Fatalf("accuracy mismatch! should be %f but got %f", 4.0/6.0, eval.Accuracy)
	}
	if !almostEqual(eval.Precision, 2.0/3.0) {
		t.Fatalf("precision mismatch! should be %f but got %f", 2.0/3.0, eval.Precision)
	}
	if !almostEqual(eval.Recall, 2.0/3.0) {
		t.Fatalf("recall mismatch! should be %f but got %f", 2.0/3.0, eval.Recall)
	}
	if !almostEqual(eval.F1, 2.0/3.0) {
		t.Fatalf("f1 mismatch! should be %f but got %f", 2.0/3.0, eval.F1)
	}
	// positives rank {0.9, 0.8, 0.4} against negatives {0.3, 0.2, 0.6}
	if !almostEqual(eval.ROCAUC, 8.0/9.0) {
		t.Fatalf("auc mismatch! should be %f but got %f", 8.0/9.0, eval.ROCAUC)
	}
}

func TestROCAUCEdges(t *testing.T) {
	if got := rocAUC([]int{1, 1}, []float64{0.9, 0.1}); got != 0.5 {
		t.Fatalf("single-class truth should score 0.5, got %f", got)
	}
	if got := rocAUC([]int{1, 0}, []float64{0.9, 0.1}); got != 1 {
		t.Fatalf("perfect ranking should score 1, got %f", got)
	}
	if got := rocAUC([]int{1, 0}, []float64{0.5, 0.5}); got != 0.5 {
		t.Fatalf("tied probabilities should score 0.5, got %f", got)
	}
}

func TestSplitOrdered(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {5}}
	y := []int{1, 0, 1, 0, 1}

	xTrain, xTest, yTrain, yTest, err := SplitOrdered(x, y, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if len(xTrain) != 4 || len(xTest) != 1 || len(yTrain) != 4 || len(yTest) != 1 {
		t.Fatalf("split sizes mismatch: %d/%d and %d/%d", len(xTrain), len(xTest), len(yTrain), len(yTest))
	}
	if xTrain[0][0] != 1 || xTest[0][0] != 5 {
		t.Fatal("split should keep the row order")
	}

	for _, ratio := range []float64{0, 1, -0.5, 1.5} {
		if _, _, _, _, err := SplitOrdered(x, y, ratio); !errors.Is(err, exception.ErrInvalidArgument) {
			t.Fatalf("ratio %f should fail with ErrInvalidArgument, got %+v", ratio, err)
		}
	}
	if _, _, _, _, err := SplitOrdered(x, y[:3], 0.8); !errors.Is(err, exception.ErrInvalidArgument) {
		t.Fatalf("length mismatch should fail with ErrInvalidArgument, got %+v", err)
	}
}

func TestModelSaveLoad(t *testing.T) {
	model := &Model{
		Name:       "cluster2_1700000000",
		Symbol:     "AAPL",
		Cluster:    2,
		Algorithm:  "LogisticRegression",
		Predictors: append([]string(nil), Predictors...),
		Weights:    []float64{0.5, -0.25},
		Bias:       0.1,
		Scaler:     Scaler{Min: []float64{0, 0}, Max: []float64{1, 2}},
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if loaded.Name != model.Name || loaded.Symbol != model.Symbol || loaded.Cluster != model.Cluster {
		t.Fatalf("metadata mismatch: %+v", loaded)
	}
	if len(loaded.Weights) != len(model.Weights) || loaded.Weights[0] != model.Weights[0] {
		t.Fatalf("weights mismatch: %v", loaded.Weights)
	}
	if math.Abs(loaded.Bias-model.Bias) > 1e-12 {
		t.Fatalf("bias mismatch! should be %f but got %f", model.Bias, loaded.Bias)
	}

	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing artifact should fail")
	}
}
