// Package repo implements the persistence layer: database bootstrapping,
// the pending-exchange stores (SQL, JSON file, redis), the SQL mirror of the
// event log and the processed-update registry used for webhook dedup.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// ErrCorrupt reports a database file that failed its integrity check.
var ErrCorrupt = errors.New("database corrupt")

// gormWriter routes GORM's own logging into zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs and runs
// an integrity check. A file that cannot be read as a database yields an
// error wrapping ErrCorrupt.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)"), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var verdict string
	if err := db.Raw("PRAGMA quick_check;").Row().Scan(&verdict); err != nil || verdict != "ok" {
		closeDB(db)
		if err == nil {
			err = errors.New(verdict)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// OpenOrRecoverSQLite opens path like OpenSQLite. When the file is corrupt it
// is moved aside together with its WAL siblings and a fresh, empty database
// is created in its place. quarantined holds the new name of the bad file.
func OpenOrRecoverSQLite(path string, now time.Time) (db *gorm.DB, quarantined string, err error) {
	db, err = OpenSQLite(path)
	if err == nil || !errors.Is(err, ErrCorrupt) {
		return db, "", err
	}
	quarantined = fmt.Sprintf("%s.corrupt-%d", path, now.Unix())
	if rerr := os.Rename(path, quarantined); rerr != nil && !os.IsNotExist(rerr) {
		return nil, "", fmt.Errorf("quarantine %s: %w", path, rerr)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Rename(path+suffix, quarantined+suffix)
	}
	db, err = OpenSQLite(path)
	return db, quarantined, err
}

// OpenPostgres opens a PostgreSQL database from a DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// EnableTracing registers the OpenTelemetry GORM plugin so each query
// becomes a span under the caller's context.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate creates or updates every table the application owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Exchange{},
		&domain.Event{},
		&domain.ProcessedUpdate{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(db *gorm.DB) {
	if err := Close(db); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
}
