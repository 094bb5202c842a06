// Package storage persists the scanner's catalog cache and scan history in
// SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB is an open scan database.
type DB struct {
	conn *sql.DB
}

// Config describes how to open a scan database.
type Config struct {
	// Path is the database file, or MemoryPath.
	Path string

	// Pool settings. An in-memory database lives in a single connection, so
	// it always gets one connection that is never recycled.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// SQLite pragmas. JournalMode is ignored for in-memory databases.
	BusyTimeout time.Duration
	JournalMode string
	Synchronous string

	// AutoMigrate brings the schema to SchemaVersion on Open.
	AutoMigrate bool
}

// DefaultConfig returns the settings used for the scan database at path:
// WAL journaling with NORMAL sync, so the API can read history while a scan
// is being written.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:            path,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
	}
}

func (c *Config) inMemory() bool {
	return c.Path == MemoryPath
}

// dsn passes the pragmas the way modernc expects them.
func (c *Config) dsn() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	if !c.inMemory() {
		q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	q.Add("_pragma", fmt.Sprintf("synchronous(%s)", c.Synchronous))
	q.Add("_pragma", "foreign_keys(1)")
	return c.Path + "?" + q.Encode()
}

// Open opens the database described by config, creating its directory.
func Open(config *Config) (*DB, error) {
	if config == nil {
		return nil, errors.New("storage: nil config")
	}
	if !config.inMemory() {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if config.inMemory() {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetMaxOpenConns(config.MaxOpenConns)
		conn.SetMaxIdleConns(config.MaxIdleConns)
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := conn.Ping(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping database: %w", err), conn.Close())
	}
	if config.AutoMigrate {
		if err := upgrade(conn); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to run migrations: %w", err), conn.Close())
		}
	}
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn exposes the pool for repositories and tests.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Ping() error {
	return db.conn.Ping()
}
