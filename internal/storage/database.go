package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kalakriti/commerce-engine/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is the row shape for the kv_entries table; schema is owned by the
// goose migrations under pkg/migrate/migrations.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// Database persists payloads in a relational kv_entries table through GORM,
// running on SQLite or Postgres depending on the configured driver.
type Database struct {
	client *db.Client
}

func NewDatabase(client *db.Client) (*Database, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Database{client: client}, nil
}

func (d *Database) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry KVEntry
	err := d.client.DB().WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load kv entry %q: %w", key, err)
	}
	return []byte(entry.Value), true, nil
}

func (d *Database) Set(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{Key: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	err := d.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("upsert kv entry %q: %w", key, err)
	}
	return nil
}

func (d *Database) Delete(ctx context.Context, key string) error {
	if err := d.client.DB().WithContext(ctx).Delete(&KVEntry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete kv entry %q: %w", key, err)
	}
	return nil
}
