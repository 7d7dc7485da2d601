package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Config holds database configuration
type Config struct {
	Path string
	// Retries is how many times a transaction hitting a locked database is
	// re-run before the error is returned.
	Retries uint64
	// MaxOpenConns bounds the pool. Zero picks a default.
	MaxOpenConns int
	// OnRetry, if set, is called before each transaction re-run.
	OnRetry func(err error, wait time.Duration)
}

// DB wraps the connection pool with transaction and retry helpers.
type DB struct {
	*sql.DB
	retries uint64
	onRetry func(err error, wait time.Duration)
	logger  *slog.Logger
}

// Open opens (creating if needed) the SQLite database at cfg.Path and applies
// all pending migrations.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// 每个连接都开启外键并设置忙等待; 写事务以 IMMEDIATE 开始, 避免读后升级写锁时死锁
	dsn := cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 8
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, retries: cfg.Retries, onRetry: cfg.OnRetry, logger: logger}
	if err := NewMigrationManager(sqlDB, logger).RunMigrations(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info("database initialized", "path", cfg.Path)
	return db, nil
}

// Transaction executes fn within a database transaction. The whole
// transaction is re-run when SQLite reports the database busy or locked.
// Errors returned by fn are passed through unchanged.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(), db.retries),
		ctx,
	)

	return backoff.RetryNotify(func() error {
		err := db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		db.logger.Warn("database busy, retrying transaction", "wait", wait, "error", err)
		if db.onRetry != nil {
			db.onRetry(err, wait)
		}
	})
}

func (db *DB) runTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return b
}

// IsBusy reports whether err is SQLite refusing a lock.
func IsBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}
