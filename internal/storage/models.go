package storage

import "time"

// DailyBar is one persisted daily OHLCV bar.
type DailyBar struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:16;uniqueIndex:idx_symbol_date;not null"`
	Date      string    `gorm:"size:10;uniqueIndex:idx_symbol_date;not null"`
	Open      float64   `gorm:"not null"`
	High      float64   `gorm:"not null"`
	Low       float64   `gorm:"not null"`
	Close     float64   `gorm:"not null"`
	Volume    int64     `gorm:"not null"`
	CreatedAt time.Time
}

// ClusterAssignment maps one symbol to its cluster with the features used.
type ClusterAssignment struct {
	ID       uint    `gorm:"primaryKey"`
	Symbol   string  `gorm:"size:16;uniqueIndex;not null"`
	Cluster  int     `gorm:"index;not null"`
	Returns  float64 // annualized mean daily return
	Variance float64 // annualized daily return variance
	Sector   string  `gorm:"size:64"`
	RunAt    time.Time
}

// ModelMetadata is the evaluation record of one trained direction classifier.
type ModelMetadata struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:64;uniqueIndex;not null"`
	Symbol       string `gorm:"size:16;not null"`
	Cluster      int    `gorm:"index"`
	Algorithm    string `gorm:"size:64"`
	Accuracy     float64
	Precision    float64
	Recall       float64
	F1           float64
	ROCAUC       float64
	ArtifactPath string `gorm:"size:255"`
	RunDate      time.Time
}

// SessionResult is one participant's terminal record for a finished session.
type SessionResult struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID int64  `gorm:"index;not null"`
	ClientID  int64  `gorm:"not null"`
	Symbol    string `gorm:"size:16"`
	Balance   float64
	Profit    float64
	Shares    float64
	NumTrades int
	IsAgent   bool
	EndedAt   time.Time
}
