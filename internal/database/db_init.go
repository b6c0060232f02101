package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/go-while/go-pokr/internal/config"
	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/logging"
)

// Database holds the bills database connection
type Database struct {
	mainDB *sql.DB

	// Database configuration
	dbconfig *DBConfig

	closeOnce sync.Once
}

// DBConfig represents database configuration
type DBConfig struct {
	// sqlite file, parent directory is created on open
	Path string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Performance settings
	WALMode   bool   // Write-Ahead Logging
	SyncMode  string // OFF, NORMAL, FULL
	CacheSize int    // KB
	TempStore string // MEMORY, FILE

	// FallbackAssembly is returned by CurrentAssemblyID when no assembly row exists
	FallbackAssembly int64
}

// DefaultDBConfig returns default database configuration
func DefaultDBConfig() (dbconfig *DBConfig) {
	return &DBConfig{
		Path:            "./data/pokr.sq3",
		MaxOpenConns:    16,
		MaxIdleConns:    4,
		ConnMaxLifetime: 0, // sqlite connections don't need to be recycled
		WALMode:         true,
		SyncMode:        "NORMAL",
		CacheSize:       -16384, // -16384 == 1024 KB * 16384 = 16MB cache
		TempStore:       "MEMORY",
	}
}

// NewDBConfig maps the loaded configuration onto DBConfig.
func NewDBConfig(cfg *config.MainConfig) *DBConfig {
	dbconfig := DefaultDBConfig()
	if cfg == nil {
		return dbconfig
	}
	if cfg.Database.Path != "" {
		dbconfig.Path = cfg.Database.Path
	}
	if cfg.Database.MaxOpenConns > 0 {
		dbconfig.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		dbconfig.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	dbconfig.WALMode = cfg.Database.WALMode
	dbconfig.FallbackAssembly = cfg.Web.CurrentAssembly
	return dbconfig
}

// OpenDatabase opens the sqlite file and applies pending migrations
func OpenDatabase(ctx context.Context, dbconfig *DBConfig) (*Database, error) {
	if dbconfig == nil {
		dbconfig = DefaultDBConfig()
	}
	db := &Database{dbconfig: dbconfig}

	if err := db.initMainDB(ctx); err != nil {
		return nil, errs.Wrap(err, "failed to initialize main database")
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.mainDB.Close()
		return nil, errs.Wrap(err, "failed to run database migrations")
	}

	logging.Info(ctx, "database ready",
		slog.String("path", dbconfig.Path),
		slog.Bool("wal", dbconfig.WALMode),
		slog.Int("max_open_conns", dbconfig.MaxOpenConns))
	return db, nil
}

// GetMainDB returns the underlying connection pool.
func (db *Database) GetMainDB() *sql.DB {
	return db.mainDB
}

// Close closes the connection pool. Safe to call more than once.
func (db *Database) Close() error {
	if db == nil || db.mainDB == nil {
		return nil
	}
	var err error
	db.closeOnce.Do(func() {
		err = db.mainDB.Close()
	})
	return err
}

// initMainDB initializes the main database connection
func (db *Database) initMainDB(ctx context.Context) error {
	dbPath := db.dbconfig.Path
	logging.Debug(ctx, "opening database", slog.String("path", dbPath))

	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// per connection settings live in the DSN so every pooled connection gets them
	mainDB, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return fmt.Errorf("failed to open main database: %w", err)
	}

	// Configure connection pool
	mainDB.SetMaxOpenConns(db.dbconfig.MaxOpenConns)
	mainDB.SetMaxIdleConns(db.dbconfig.MaxIdleConns)
	mainDB.SetConnMaxLifetime(db.dbconfig.ConnMaxLifetime)

	if err := mainDB.PingContext(ctx); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to ping main database: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to ping main database: %w", err)
	}

	if err := db.applySQLitePragmas(ctx, mainDB); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to apply SQLite pragmas: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to apply SQLite pragmas: %w", err)
	}

	db.mainDB = mainDB
	return nil
}

// applySQLitePragmas applies performance and configuration pragmas to SQLite connection
func (db *Database) applySQLitePragmas(ctx context.Context, conn *sql.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = %d", db.dbconfig.CacheSize),
		fmt.Sprintf("PRAGMA synchronous = %s", db.dbconfig.SyncMode),
		fmt.Sprintf("PRAGMA temp_store = %s", db.dbconfig.TempStore),
	}

	if db.dbconfig.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
		pragmas = append(pragmas, "PRAGMA wal_autocheckpoint = 1000")
	}

	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute pragma '%s': %w", pragma, err)
		}
	}

	return nil
}
