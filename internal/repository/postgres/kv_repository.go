package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myLearnCore/pkg/kvstore"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is one stored blob. Values are always JSON documents produced by
// kvstore.Save, so the column can be jsonb.
type KVEntry struct {
	Key       string         `gorm:"column:key;primaryKey"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (KVEntry) TableName() string { return "kv_entries" }

type KVRepository struct {
	DB *gorm.DB
}

var _ kvstore.Store = (*KVRepository)(nil)

// NewKVRepository migrates the kv_entries table and returns the repository.
func NewKVRepository(db *gorm.DB) (*KVRepository, error) {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	return &KVRepository{DB: db}, nil
}

func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var row KVEntry
	err := r.DB.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(row.Value), true, nil
}

func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	row := KVEntry{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now(),
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *KVRepository) Remove(ctx context.Context, key string) error {
	return r.DB.WithContext(ctx).Delete(&KVEntry{}, "key = ?", key).Error
}
