package trading

import (
	"encoding/json"
	"math"
	"os"
	"sort"

	"github.com/yanun0323/errors"

	"github.com/Chinedu-E/tradetrail/pkg/exception"
)

// Scaler rescales features into [0, 1] using ranges fitted on training data.
type Scaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitScaler learns per-column min/max from the matrix.
func FitScaler(x [][]float64) Scaler {
	if len(x) == 0 {
		return Scaler{}
	}
	cols := len(x[0])
	s := Scaler{
		Min: make([]float64, cols),
		Max: make([]float64, cols),
	}
	copy(s.Min, x[0])
	copy(s.Max, x[0])
	for _, row := range x[1:] {
		for j, v := range row {
			if v < s.Min[j] {
				s.Min[j] = v
			}
			if v > s.Max[j] {
				s.Max[j] = v
			}
		}
	}
	return s
}

// Transform rescales one row; constant columns map to zero.
func (s Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if j >= len(s.Min) {
			break
		}
		span := s.Max[j] - s.Min[j]
		if span == 0 {
			continue
		}
		out[j] = (v - s.Min[j]) / span
	}
	return out
}

// TransformAll rescales a whole matrix.
func (s Scaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.Transform(row)
	}
	return out
}

// Model is a logistic-regression direction classifier with its fitted scaler.
type Model struct {
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
	Cluster    int       `json:"cluster"`
	Algorithm  string    `json:"algorithm"`
	Predictors []string  `json:"predictors"`
	Weights    []float64 `json:"weights"`
	Bias       float64   `json:"bias"`
	Scaler     Scaler    `json:"scaler"`
}

// TrainOptions bound gradient training.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
}

// TrainModel fits logistic regression with full-batch gradient descent. The
// scaler must already have been applied to x.
func TrainModel(x [][]float64, y []int, opts TrainOptions) (*Model, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, exception.ErrInvalidArgument
	}
	epochs := opts.Epochs
	if epochs <= 0 {
		epochs = 400
	}
	lr := opts.LearningRate
	if lr <= 0 {
		lr = 0.05
	}

	cols := len(x[0])
	weights := make([]float64, cols)
	bias := 0.0
	n := float64(len(x))

	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, cols)
		gradB := 0.0
		for i, row := range x {
			p := sigmoid(dot(weights, row) + bias)
			diff := p - float64(y[i])
			for j, v := range row {
				gradW[j] += diff * v
			}
			gradB += diff
		}
		for j := range weights {
			weights[j] -= lr * gradW[j] / n
		}
		bias -= lr * gradB / n
	}

	return &Model{
		Algorithm:  "LogisticRegression",
		Predictors: append([]string(nil), Predictors...),
		Weights:    weights,
		Bias:       bias,
	}, nil
}

// Probability returns P(next close up) for a raw feature row.
func (m *Model) Probability(row []float64) float64 {
	scaled := m.Scaler.Transform(row)
	return sigmoid(dot(m.Weights, scaled) + m.Bias)
}

// Predict returns 1 for an up call, 0 otherwise.
func (m *Model) Predict(row []float64) int {
	if m.Probability(row) >= 0.5 {
		return 1
	}
	return 0
}

// Save writes the model artifact as JSON.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal model artifact")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write model artifact")
}

// LoadModel reads a model artifact back.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read model artifact")
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parse model artifact")
	}
	if len(m.Weights) == 0 {
		return nil, errors.New("model artifact has no weights")
	}
	return &m, nil
}

// Evaluation holds the held-out metrics of one training run.
type Evaluation struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	ROCAUC    float64 `json:"rocAuc"`
}

// Evaluate scores predictions and probabilities against the truth.
func Evaluate(truth, predicted []int, probabilities []float64) Evaluation {
	var tp, fp, tn, fn float64
	for i := range truth {
		switch {
		case truth[i] == 1 && predicted[i] == 1:
			tp++
		case truth[i] == 0 && predicted[i] == 1:
			fp++
		case truth[i] == 0 && predicted[i] == 0:
			tn++
		default:
			fn++
		}
	}

	eval := Evaluation{}
	total := tp + fp + tn + fn
	if total > 0 {
		eval.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		eval.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		eval.Recall = tp / (tp + fn)
	}
	if eval.Precision+eval.Recall > 0 {
		eval.F1 = 2 * eval.Precision * eval.Recall / (eval.Precision + eval.Recall)
	}
	eval.ROCAUC = rocAUC(truth, probabilities)
	return eval
}

// rocAUC ranks probabilities and computes the area under the ROC curve via
// the Mann-Whitney statistic. Degenerate single-class truth scores 0.5.
func rocAUC(truth []int, probabilities []float64) float64 {
	type sample struct {
		p float64
		y int
	}
	samples := make([]sample, 0, len(truth))
	pos, neg := 0.0, 0.0
	for i := range truth {
		samples = append(samples, sample{p: probabilities[i], y: truth[i]})
		if truth[i] == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].p < samples[j].p })

	// rank sum with tie averaging
	rankSum := 0.0
	i := 0
	for i < len(samples) {
		j := i
		for j < len(samples) && samples[j].p == samples[i].p {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			if samples[k].y == 1 {
				rankSum += avgRank
			}
		}
		i = j
	}
	return (rankSum - pos*(pos+1)/2) / (pos * neg)
}

// SplitOrdered slices the matrix and labels into ordered train/test parts.
// The ratio is the training share in (0, 1).
func SplitOrdered(x [][]float64, y []int, ratio float64) (xTrain, xTest [][]float64, yTrain, yTest []int, err error) {
	if len(x) != len(y) || len(x) == 0 {
		return nil, nil, nil, nil, exception.ErrInvalidArgument
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, nil, nil, exception.ErrInvalidArgument
	}
	cut := int(float64(len(x)) * ratio)
	if cut == 0 || cut == len(x) {
		return nil, nil, nil, nil, exception.ErrInvalidArgument
	}
	return x[:cut], x[cut:], y[:cut], y[cut:], nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		if i >= len(b) {
			break
		}
		sum += a[i] * b[i]
	}
	return sum
}
