package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/satriahrh/diet-coach/domain"
)

type SQLiteConfig struct {
	BusyTimeoutMs int
	WAL           bool
	ForeignKeys   bool
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Config struct {
	Driver      string
	DSN         string
	Pool        PoolConfig
	SQLite      SQLiteConfig
	AutoMigrate bool
	// EncryptionKey protects member personal fields at rest.
	EncryptionKey string
}

func DefaultConfig() Config {
	return Config{
		Driver: "sqlite",
		DSN:    "diet_coach.sqlite",
		Pool: PoolConfig{
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		SQLite: SQLiteConfig{
			BusyTimeoutMs: 5000,
			WAL:           true,
			ForeignKeys:   true,
		},
		AutoMigrate: true,
	}
}

// Open connects to the configured database, registers the field encryption
// serializer and migrates the schema when AutoMigrate is set.
func Open(cfg Config) (*gorm.DB, error) {
	if strings.TrimSpace(cfg.EncryptionKey) == "" {
		return nil, fmt.Errorf("missing db encryption key")
	}
	RegisterEncryptedSerializer(cfg.EncryptionKey)

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver != "" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", cfg.DSN, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	}
	if cfg.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	}
	if cfg.Pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	}

	if err := applyPragmas(gdb, cfg); err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := AutoMigrate(gdb); err != nil {
			return nil, err
		}
	}
	return gdb, nil
}

func applyPragmas(gdb *gorm.DB, cfg Config) error {
	if cfg.SQLite.BusyTimeoutMs > 0 {
		if err := gdb.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.SQLite.BusyTimeoutMs)).Error; err != nil {
			return fmt.Errorf("set busy_timeout: %w", err)
		}
	}
	if cfg.SQLite.WAL && !isMemoryDSN(cfg.DSN) {
		if err := gdb.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
			return fmt.Errorf("enable wal: %w", err)
		}
	}
	if cfg.SQLite.ForeignKeys {
		if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return fmt.Errorf("enable foreign_keys: %w", err)
		}
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	return gdb.AutoMigrate(
		&domain.Member{},
		&domain.FoodNutrition{},
		&domain.FoodRecord{},
	)
}
