package storage

import (
	"context"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store bundles the repositories over one gorm connection.
type Store struct {
	db *gorm.DB
}

// New wraps the connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if err := db.AutoMigrate(&DailyBar{}, &ClusterAssignment{}, &ModelMetadata{}, &SessionResult{}); err != nil {
		return nil, errors.Wrap(err, "migrate schema")
	}
	return &Store{db: db}, nil
}

// UpsertBar inserts a bar, updating prices when the (symbol, date) row exists.
func (s *Store) UpsertBar(ctx context.Context, bar DailyBar) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).Create(&bar).Error
	return errors.Wrap(err, "upsert bar")
}

// BarsBySymbol returns up to limit bars for a symbol, oldest first.
func (s *Store) BarsBySymbol(ctx context.Context, symbol string, limit int) ([]DailyBar, error) {
	if limit <= 0 {
		limit = 500
	}
	var bars []DailyBar
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date DESC").
		Limit(limit).
		Find(&bars).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load bars for %s", symbol)
	}
	// reverse into ascending date order
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// ReplaceAssignments swaps the full cluster assignment table in one transaction.
func (s *Store) ReplaceAssignments(ctx context.Context, assignments []ClusterAssignment) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ClusterAssignment{}).Error; err != nil {
			return err
		}
		if len(assignments) == 0 {
			return nil
		}
		return tx.Create(&assignments).Error
	})
	return errors.Wrap(err, "replace cluster assignments")
}

// Assignments returns every stored cluster assignment.
func (s *Store) Assignments(ctx context.Context) ([]ClusterAssignment, error) {
	var out []ClusterAssignment
	if err := s.db.WithContext(ctx).Order("symbol ASC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "load cluster assignments")
	}
	return out, nil
}

// SaveModelMetadata records one training run.
func (s *Store) SaveModelMetadata(ctx context.Context, meta ModelMetadata) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(&meta).Error, "save model metadata")
}

// LatestModel returns the metadata of the most recent training run.
// gorm.ErrRecordNotFound passes through unwrapped so callers can treat an
// empty table as "no model yet".
func (s *Store) LatestModel(ctx context.Context) (ModelMetadata, error) {
	var meta ModelMetadata
	err := s.db.WithContext(ctx).
		Order("run_date DESC").
		First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ModelMetadata{}, err
		}
		return ModelMetadata{}, errors.Wrap(err, "load latest model")
	}
	return meta, nil
}

// SaveSessionResult records one participant's finished session.
func (s *Store) SaveSessionResult(ctx context.Context, result SessionResult) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(&result).Error, "save session result")
}
