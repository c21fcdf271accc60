package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVSlot is one row of the kv_slots table.
type KVSlot struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (KVSlot) TableName() string {
	return "kv_slots"
}

// GormSlot keeps slot values in a SQL table through gorm.
type GormSlot struct {
	db *gorm.DB
}

// NewGormSlot migrates the kv_slots table and returns a slot over it.
func NewGormSlot(db *gorm.DB) (*GormSlot, error) {
	if db == nil {
		return nil, errors.New("gorm slot requires a database")
	}
	if err := db.AutoMigrate(&KVSlot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_slots: %w", err)
	}
	return &GormSlot{db: db}, nil
}

func (g *GormSlot) Get(ctx context.Context, key string) ([]byte, error) {
	var row KVSlot
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to read slot row: %w", err)
	}
	return []byte(row.Value), nil
}

func (g *GormSlot) Set(ctx context.Context, key string, value []byte) error {
	row := KVSlot{Key: key, Value: string(value), UpdatedAt: time.Now()}

	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert slot row: %w", err)
	}
	return nil
}

func (g *GormSlot) Health(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *GormSlot) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
