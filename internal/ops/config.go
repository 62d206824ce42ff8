package ops

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yanun0323/errors"
)

const configPathEnv = "TRADETRAIL_CONFIG"

// FileConfig mirrors the JSON config layout. Zero values fall back to
// defaults during resolution.
type FileConfig struct {
	Server     ServerConfig     `json:"server"`
	Broker     BrokerConfig     `json:"broker"`
	Database   DatabaseConfig   `json:"database"`
	Documents  DocumentsConfig  `json:"documents"`
	MarketData MarketDataConfig `json:"marketData"`
	Universe   UniverseConfig   `json:"universe"`
	Sentiment  SentimentConfig  `json:"sentiment"`
	Clustering ClusteringConfig `json:"clustering"`
	Training   TrainingConfig   `json:"training"`
}

// ServerConfig describes the websocket session server.
type ServerConfig struct {
	Port           int    `json:"port"`
	TickIntervalMs int    `json:"tickIntervalMs"`
	ProfileAddr    string `json:"profileAddr"`
}

// BrokerConfig describes the message broker endpoints and topics.
type BrokerConfig struct {
	Brokers       []string `json:"brokers"`
	ConsumerGroup string   `json:"consumerGroup"`
}

// DatabaseConfig describes the Postgres connection.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// DocumentsConfig describes the sentiment document store.
type DocumentsConfig struct {
	Addr        string `json:"addr"`
	NewsIndex   string `json:"newsIndex"`
	SocialIndex string `json:"socialIndex"`
}

// MarketDataConfig describes the quote API and the exchange calendar window.
type MarketDataConfig struct {
	BaseURL   string `json:"baseUrl"`
	Timezone  string `json:"timezone"`
	OpenHour  int    `json:"openHour"`
	CloseHour int    `json:"closeHour"`
}

// UniverseConfig points at the symbol universe file.
type UniverseConfig struct {
	File string `json:"file"`
}

// SentimentConfig bounds the sentiment pipelines.
type SentimentConfig struct {
	SearchURL      string `json:"searchUrl"`
	SocialURL      string `json:"socialUrl"`
	Workers        int    `json:"workers"`
	SymbolLimit    int    `json:"symbolLimit"`
	ArticlesPerRun int    `json:"articlesPerRun"`
	PostsPerSymbol int    `json:"postsPerSymbol"`
	SocialSample   int    `json:"socialSample"`
}

// ClusteringConfig bounds the clustering job.
type ClusteringConfig struct {
	K          int    `json:"k"`
	Seed       int64  `json:"seed"`
	ExportPath string `json:"exportPath"`
	BarWindow  int    `json:"barWindow"`
}

// TrainingConfig bounds the training job.
type TrainingConfig struct {
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learningRate"`
	ArtifactDir  string  `json:"artifactDir"`
	BarLimit     int     `json:"barLimit"`
}

// Config is the resolved configuration ready for use.
type Config struct {
	Server     ServerConfig
	Broker     BrokerConfig
	Database   DatabaseConfig
	Documents  DocumentsConfig
	MarketData MarketDataConfig
	Universe   UniverseConfig
	Sentiment  SentimentConfig
	Clustering ClusteringConfig
	Training   TrainingConfig
}

// TickInterval returns the server tick pacing as a duration.
func (c ServerConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Location resolves the exchange timezone.
func (c MarketDataConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads the JSON config file, fills defaults, and applies env overrides.
// An empty path falls back to the TRADETRAIL_CONFIG env var; a missing file
// yields pure defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(configPathEnv)
	}

	var file FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, errors.Wrap(err, "read config file")
			}
		} else if err := json.Unmarshal(data, &file); err != nil {
			return Config{}, errors.Wrap(err, "parse config file")
		}
	}

	cfg := resolve(file)
	applyEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolve(file FileConfig) Config {
	cfg := Config{
		Server:     file.Server,
		Broker:     file.Broker,
		Database:   file.Database,
		Documents:  file.Documents,
		MarketData: file.MarketData,
		Universe:   file.Universe,
		Sentiment:  file.Sentiment,
		Clustering: file.Clustering,
		Training:   file.Training,
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.TickIntervalMs <= 0 {
		cfg.Server.TickIntervalMs = 500
	}
	if len(cfg.Broker.Brokers) == 0 {
		cfg.Broker.Brokers = []string{"localhost:9092"}
	}
	if cfg.Broker.ConsumerGroup == "" {
		cfg.Broker.ConsumerGroup = "tradetrail-ingest"
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = "tradetrail"
	}
	if cfg.Documents.Addr == "" {
		cfg.Documents.Addr = "http://localhost:9200"
	}
	if cfg.Documents.NewsIndex == "" {
		cfg.Documents.NewsIndex = "sentiment-news"
	}
	if cfg.Documents.SocialIndex == "" {
		cfg.Documents.SocialIndex = "sentiment-social"
	}
	if cfg.MarketData.Timezone == "" {
		cfg.MarketData.Timezone = "America/New_York"
	}
	if cfg.MarketData.OpenHour == 0 {
		cfg.MarketData.OpenHour = 9
	}
	if cfg.MarketData.CloseHour == 0 {
		cfg.MarketData.CloseHour = 16
	}
	if cfg.Sentiment.Workers <= 0 {
		cfg.Sentiment.Workers = 8
	}
	if cfg.Sentiment.SymbolLimit <= 0 {
		cfg.Sentiment.SymbolLimit = 8
	}
	if cfg.Sentiment.ArticlesPerRun <= 0 {
		cfg.Sentiment.ArticlesPerRun = 3
	}
	if cfg.Sentiment.PostsPerSymbol <= 0 {
		cfg.Sentiment.PostsPerSymbol = 20
	}
	if cfg.Sentiment.SocialSample <= 0 {
		cfg.Sentiment.SocialSample = 100
	}
	if cfg.Clustering.K <= 0 {
		cfg.Clustering.K = 8
	}
	if cfg.Clustering.BarWindow <= 0 {
		cfg.Clustering.BarWindow = 252
	}
	if cfg.Clustering.ExportPath == "" {
		cfg.Clustering.ExportPath = "cluster.json"
	}
	if cfg.Training.Epochs <= 0 {
		cfg.Training.Epochs = 400
	}
	if cfg.Training.LearningRate <= 0 {
		cfg.Training.LearningRate = 0.05
	}
	if cfg.Training.ArtifactDir == "" {
		cfg.Training.ArtifactDir = "artifacts"
	}
	if cfg.Training.BarLimit <= 0 {
		cfg.Training.BarLimit = 500
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		parts := strings.Split(v, ",")
		brokers := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				brokers = append(brokers, p)
			}
		}
		if len(brokers) > 0 {
			cfg.Broker.Brokers = brokers
		}
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("ELASTICSEARCH_ADDR"); v != "" {
		cfg.Documents.Addr = v
	}
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.Errorf("server port out of range: %d", cfg.Server.Port)
	}
	if cfg.MarketData.OpenHour < 0 || cfg.MarketData.OpenHour > 23 ||
		cfg.MarketData.CloseHour < 1 || cfg.MarketData.CloseHour > 24 ||
		cfg.MarketData.OpenHour >= cfg.MarketData.CloseHour {
		return errors.Errorf("bad market window: open=%d close=%d",
			cfg.MarketData.OpenHour, cfg.MarketData.CloseHour)
	}
	if cfg.Clustering.K < 1 {
		return errors.Errorf("clustering k must be >= 1, got %d", cfg.Clustering.K)
	}
	return nil
}
