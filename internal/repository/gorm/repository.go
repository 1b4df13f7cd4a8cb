package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tokenagg/internal/models"
	"tokenagg/internal/repository"
)

const snapshotBatchSize = 500

type Store struct {
	db *gorm.DB
}

var _ repository.Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertTokenSnapshots(ctx context.Context, items []models.TokenSnapshot) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chain"}, {Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"ticker",
			"protocol",
			"price_native",
			"volume_native",
			"payload",
			"updated_at",
		}),
	}).CreateInBatches(items, snapshotBatchSize).Error
}

// FindTokenSnapshotsByAddress matches the address on every chain, newest first.
func (s *Store) FindTokenSnapshotsByAddress(ctx context.Context, address string) ([]models.TokenSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.TokenSnapshot
	err := s.db.WithContext(ctx).
		Where("address = ?", strings.ToLower(strings.TrimSpace(address))).
		Order("updated_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SaveSourceState(ctx context.Context, state *models.SourceState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_attempt_at",
			"last_success_at",
			"last_count",
			"last_duration_ms",
			"query",
			"stats_json",
		}),
	}).Create(state).Error
}

func (s *Store) ListSourceStates(ctx context.Context) ([]models.SourceState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var states []models.SourceState
	if err := s.db.WithContext(ctx).Order("source asc").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}
