package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Chinedu-E/tradetrail/internal/clustering"
	"github.com/Chinedu-E/tradetrail/internal/ops"
	"github.com/Chinedu-E/tradetrail/internal/storage"
	"github.com/Chinedu-E/tradetrail/internal/trading"
	"github.com/Chinedu-E/tradetrail/pkg/conn"
)

func main() {
	if err := run(); err != nil {
		log.Printf("train: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	clusterFlag := flag.Int("cluster", -1, "Train on this cluster instead of sampling one")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := conn.NewPostgres(conn.PostgresOption{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}
	defer pg.Close()

	store, err := storage.New(pg.DB())
	if err != nil {
		return err
	}

	clusters, err := loadClusters(ctx, store, cfg.Clustering.ExportPath)
	if err != nil {
		return err
	}

	trainer := trading.NewTrainer(trading.TrainerConfig{
		Epochs:       cfg.Training.Epochs,
		LearningRate: cfg.Training.LearningRate,
		ArtifactDir:  cfg.Training.ArtifactDir,
		BarLimit:     cfg.Training.BarLimit,
		Seed:         cfg.Clustering.Seed,
	}, store, store)

	var (
		model *trading.Model
		eval  trading.Evaluation
	)
	if *clusterFlag >= 0 {
		model, eval, err = trainer.TrainCluster(ctx, clusters, *clusterFlag)
	} else {
		model, eval, err = trainer.Train(ctx, clusters)
	}
	if err != nil {
		return err
	}

	log.Printf("model %s: accuracy=%.3f precision=%.3f recall=%.3f f1=%.3f auc=%.3f",
		model.Name, eval.Accuracy, eval.Precision, eval.Recall, eval.F1, eval.ROCAUC)
	return nil
}

// loadClusters prefers the stored assignments and falls back to the JSON
// export from the clustering job.
func loadClusters(ctx context.Context, store *storage.Store, exportPath string) (*clustering.Clusters, error) {
	records, err := store.Assignments(ctx)
	if err == nil && len(records) > 0 {
		assignments := make([]clustering.Assignment, len(records))
		for i, r := range records {
			assignments[i] = clustering.Assignment{
				Symbol:   r.Symbol,
				Cluster:  r.Cluster,
				Returns:  r.Returns,
				Variance: r.Variance,
				Sector:   r.Sector,
			}
		}
		return clustering.FromAssignments(assignments)
	}
	return clustering.LoadExport(exportPath)
}
