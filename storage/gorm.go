package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvRow is one slot entry in the kv_slots table
type kvRow struct {
	SlotKey   string `gorm:"column:slot_key;primaryKey"`
	Value     []byte `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

func (kvRow) TableName() string {
	return "kv_slots"
}

// GormSlot stores blobs in a kv_slots table through GORM
type GormSlot struct {
	db *gorm.DB
}

// NewGormSlot migrates the kv_slots table on db
func NewGormSlot(db *gorm.DB) (*GormSlot, error) {
	if err := db.AutoMigrate(&kvRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_slots: %w", err)
	}
	return &GormSlot{db: db}, nil
}

// OpenSQLiteSlot opens (or creates) a SQLite database file. Use ":memory:"
// for a throwaway database.
func OpenSQLiteSlot(path string) (*GormSlot, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	return NewGormSlot(db)
}

func (g *GormSlot) Get(ctx context.Context, key string) ([]byte, error) {
	var row kvRow
	if err := g.db.WithContext(ctx).First(&row, "slot_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}
	return row.Value, nil
}

func (g *GormSlot) Set(ctx context.Context, key string, value []byte) error {
	row := kvRow{SlotKey: key, Value: value, UpdatedAt: time.Now()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}
	return nil
}

func (g *GormSlot) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
