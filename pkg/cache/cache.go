package cache

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// busyTimeoutMS is the SQLite busy-timeout (§4.1: "a long (≈10 min)
// busy timeout to tolerate concurrent CLI invocations").
const busyTimeoutMS = 10 * 60 * 1000

// Cache is the Catalog Cache (C1): the single embedded store shared
// by every scheduler invocation against one cache file.
type Cache struct {
	db *gorm.DB
}

// Open opens (creating if absent) the SQLite-compatible cache file at
// path in autocommit mode with the long busy timeout, and migrates the
// schema of §3/§4.1. Explicit transactions begin with BEGIN EXCLUSIVE
// (_txlock), which TimedLock relies on.
func Open(path string) (*Cache, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_txlock=exclusive", path, busyTimeoutMS)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Job{}, &InstanceShape{}, &ITFeature{}, &SpotQuote{}, &TimedLock{}); err != nil {
		return nil, fmt.Errorf("migrating cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying SQL connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
