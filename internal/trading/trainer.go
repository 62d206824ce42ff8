package trading

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/Chinedu-E/tradetrail/internal/clustering"
	"github.com/Chinedu-E/tradetrail/internal/storage"
)

const trainSplitRatio = 0.8

// BarSource yields stored daily bars for a symbol, oldest first.
type BarSource interface {
	BarsBySymbol(ctx context.Context, symbol string, limit int) ([]storage.DailyBar, error)
}

// MetadataSink records a finished training run.
type MetadataSink interface {
	SaveModelMetadata(ctx context.Context, meta storage.ModelMetadata) error
}

// TrainerConfig fixes one trainer run.
type TrainerConfig struct {
	Epochs       int
	LearningRate float64
	ArtifactDir  string
	BarLimit     int
	Seed         int64
}

// Trainer trains one direction model per run on a symbol sampled from a
// random cluster.
type Trainer struct {
	cfg      TrainerConfig
	bars     BarSource
	metadata MetadataSink
	rng      *rand.Rand
}

// NewTrainer wires a trainer. metadata may be nil when persistence is off.
func NewTrainer(cfg TrainerConfig, bars BarSource, metadata MetadataSink) *Trainer {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BarLimit <= 0 {
		cfg.BarLimit = 500
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = "artifacts"
	}
	return &Trainer{
		cfg:      cfg,
		bars:     bars,
		metadata: metadata,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// TrainCluster picks a symbol from the given cluster, trains a model on its
// stored bars and writes the artifact plus metadata.
func (t *Trainer) TrainCluster(ctx context.Context, clusters *clustering.Clusters, cluster int) (*Model, Evaluation, error) {
	symbols := clusters.SymbolsIn(cluster)
	if len(symbols) == 0 {
		return nil, Evaluation{}, errors.Errorf("cluster %d has no symbols", cluster)
	}
	symbol := symbols[t.rng.Intn(len(symbols))]

	bars, err := t.bars.BarsBySymbol(ctx, symbol, t.cfg.BarLimit)
	if err != nil {
		return nil, Evaluation{}, errors.Wrapf(err, "load bars for %s", symbol)
	}
	if len(bars) < smaPeriod*2 {
		return nil, Evaluation{}, errors.Errorf("not enough bars for %s, have: %d", symbol, len(bars))
	}

	candles := make([]Candle, len(bars))
	for i, b := range bars {
		candles[i] = Candle{
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}

	features := FeatureMatrix(candles)
	labels := Labels(candles)
	features = features[:len(labels)]

	xTrain, xTest, yTrain, yTest, err := SplitOrdered(features, labels, trainSplitRatio)
	if err != nil {
		return nil, Evaluation{}, errors.Wrap(err, "split training set")
	}

	scaler := FitScaler(xTrain)
	model, err := TrainModel(scaler.TransformAll(xTrain), yTrain, TrainOptions{
		Epochs:       t.cfg.Epochs,
		LearningRate: t.cfg.LearningRate,
	})
	if err != nil {
		return nil, Evaluation{}, errors.Wrap(err, "fit model")
	}
	model.Symbol = symbol
	model.Cluster = cluster
	model.Scaler = scaler
	model.Name = fmt.Sprintf("cluster%d_%d", cluster, time.Now().Unix())

	predicted := make([]int, len(xTest))
	probabilities := make([]float64, len(xTest))
	for i, row := range xTest {
		probabilities[i] = model.Probability(row)
		predicted[i] = model.Predict(row)
	}
	eval := Evaluate(yTest, predicted, probabilities)

	artifactPath := filepath.Join(t.cfg.ArtifactDir, model.Name+".json")
	if err := os.MkdirAll(t.cfg.ArtifactDir, 0o755); err != nil {
		return nil, Evaluation{}, errors.Wrap(err, "create artifact dir")
	}
	if err := model.Save(artifactPath); err != nil {
		return nil, Evaluation{}, err
	}

	logs.Infof("trained %s on %s, accuracy: %.3f, roc auc: %.3f", model.Name, symbol, eval.Accuracy, eval.ROCAUC)

	if t.metadata != nil {
		meta := storage.ModelMetadata{
			Name:         model.Name,
			Symbol:       symbol,
			Cluster:      cluster,
			Algorithm:    model.Algorithm,
			Accuracy:     eval.Accuracy,
			Precision:    eval.Precision,
			Recall:       eval.Recall,
			F1:           eval.F1,
			ROCAUC:       eval.ROCAUC,
			ArtifactPath: artifactPath,
			RunDate:      time.Now().UTC(),
		}
		if err := t.metadata.SaveModelMetadata(ctx, meta); err != nil {
			return nil, Evaluation{}, errors.Wrap(err, "save model metadata")
		}
	}
	return model, eval, nil
}

// Train samples a cluster and trains on it.
func (t *Trainer) Train(ctx context.Context, clusters *clustering.Clusters) (*Model, Evaluation, error) {
	return t.TrainCluster(ctx, clusters, clusters.Sample())
}
