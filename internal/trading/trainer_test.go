package trading

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yanun0323/errors"

	"github.com/Chinedu-E/tradetrail/internal/clustering"
	"github.com/Chinedu-E/tradetrail/internal/storage"
)

type fakeBarSource struct {
	bars map[string][]storage.DailyBar
	err  error
}

func (f *fakeBarSource) BarsBySymbol(_ context.Context, symbol string, limit int) ([]storage.DailyBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	bars := f.bars[symbol]
	if len(bars) > limit {
		bars = bars[:limit]
	}
	return bars, nil
}

type fakeMetadataSink struct {
	saved []storage.ModelMetadata
	err   error
}

func (f *fakeMetadataSink) SaveModelMetadata(_ context.Context, meta storage.ModelMetadata) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, meta)
	return nil
}

func syntheticBars(symbol string, n int) []storage.DailyBar {
	bars := make([]storage.DailyBar, n)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/3) + float64(i)*0.1
		bars[i] = storage.DailyBar{
			Symbol: symbol,
			Date:   fmt.Sprintf("2024-%02d-%02d", i/28+1, i%28+1),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: int64(1000 + i),
		}
	}
	return bars
}

func oneClusterOf(t *testing.T, symbols ...string) *clustering.Clusters {
	t.Helper()
	assignments := make([]clustering.Assignment, len(symbols))
	for i, s := range symbols {
		assignments[i] = clustering.Assignment{Symbol: s, Cluster: 0}
	}
	clusters, err := clustering.FromAssignments(assignments)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	return clusters
}

func TestTrainerTrainCluster(t *testing.T) {
	dir := t.TempDir()
	source := &fakeBarSource{bars: map[string][]storage.DailyBar{
		"AAPL": syntheticBars("AAPL", 200),
	}}
	sink := &fakeMetadataSink{}

	trainer := NewTrainer(TrainerConfig{
		Epochs:       50,
		LearningRate: 0.1,
		ArtifactDir:  dir,
		Seed:         1,
	}, source, sink)

	model, eval, err := trainer.TrainCluster(t.Context(), oneClusterOf(t, "AAPL"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if model.Symbol != "AAPL" || model.Cluster != 0 {
		t.Fatalf("model identity mismatch: %+v", model)
	}
	if !strings.HasPrefix(model.Name, "cluster0_") {
		t.Fatalf("name mismatch! got %s", model.Name)
	}
	if len(model.Weights) != len(Predictors) {
		t.Fatalf("weight count mismatch! should be %d but got %d", len(Predictors), len(model.Weights))
	}
	if eval.Accuracy < 0 || eval.Accuracy > 1 {
		t.Fatalf("accuracy out of range: %f", eval.Accuracy)
	}

	artifact := filepath.Join(dir, model.Name+".json")
	if _, err := os.Stat(artifact); err != nil {
		t.Fatalf("artifact should exist, err: %+v", err)
	}
	loaded, err := LoadModel(artifact)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if loaded.Symbol != "AAPL" {
		t.Fatalf("artifact symbol mismatch! got %s", loaded.Symbol)
	}

	if len(sink.saved) != 1 {
		t.Fatalf("metadata count mismatch! should be 1 but got %d", len(sink.saved))
	}
	meta := sink.saved[0]
	if meta.Name != model.Name || meta.Symbol != "AAPL" || meta.ArtifactPath != artifact {
		t.Fatalf("metadata mismatch: %+v", meta)
	}
}

func TestTrainerNotEnoughBars(t *testing.T) {
	source := &fakeBarSource{bars: map[string][]storage.DailyBar{
		"AAPL": syntheticBars("AAPL", smaPeriod),
	}}
	trainer := NewTrainer(TrainerConfig{ArtifactDir: t.TempDir(), Seed: 1}, source, nil)

	if _, _, err := trainer.TrainCluster(t.Context(), oneClusterOf(t, "AAPL"), 0); err == nil {
		t.Fatal("too few bars should fail")
	}
}

func TestTrainerEmptyCluster(t *testing.T) {
	trainer := NewTrainer(TrainerConfig{ArtifactDir: t.TempDir(), Seed: 1}, &fakeBarSource{}, nil)
	if _, _, err := trainer.TrainCluster(t.Context(), oneClusterOf(t, "AAPL"), 3); err == nil {
		t.Fatal("a cluster with no symbols should fail")
	}
}

func TestTrainerBarSourceFailure(t *testing.T) {
	source := &fakeBarSource{err: errors.New("db down")}
	trainer := NewTrainer(TrainerConfig{ArtifactDir: t.TempDir(), Seed: 1}, source, nil)
	if _, _, err := trainer.TrainCluster(t.Context(), oneClusterOf(t, "AAPL"), 0); err == nil {
		t.Fatal("a failing bar source should fail the run")
	}
}

func TestTrainerSampledTrain(t *testing.T) {
	source := &fakeBarSource{bars: map[string][]storage.DailyBar{
		"AAPL": syntheticBars("AAPL", 150),
		"MSFT": syntheticBars("MSFT", 150),
	}}
	trainer := NewTrainer(TrainerConfig{Epochs: 20, ArtifactDir: t.TempDir(), Seed: 1}, source, nil)

	model, _, err := trainer.Train(t.Context(), oneClusterOf(t, "AAPL", "MSFT"))
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if model.Symbol != "AAPL" && model.Symbol != "MSFT" {
		t.Fatalf("sampled symbol mismatch! got %s", model.Symbol)
	}
}
