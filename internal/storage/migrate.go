package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// SchemaVersion is the newest migration shipped in migrations/.
const SchemaVersion = 2

//go:embed migrations/*.sql
var schemaFS embed.FS

// Migrator applies the embedded schema to a scan database.
type Migrator struct {
	m *migrate.Migrate
}

func schemaSource() (source.Driver, error) {
	dir, err := fs.Sub(schemaFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schema: %w", err)
	}
	src, err := iofs.New(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded schema: %w", err)
	}
	return src, nil
}

// NewMigrator opens the database file at path for migration. It holds its
// own connection, so call Close when done.
func NewMigrator(path string) (*Migrator, error) {
	src, err := schemaSource()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+migrateURLPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for migration: %w", path, err)
	}
	return &Migrator{m: m}, nil
}

// migrateURLPath turns a file path into the path of a sqlite:// URL.
// Windows drive paths gain a leading slash: C:\x.db becomes /C:/x.db.
func migrateURLPath(path string) string {
	p := filepath.ToSlash(path)
	if filepath.IsAbs(path) && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// upgrade brings an open connection to SchemaVersion. The migrator is left
// open because closing it would close conn.
func upgrade(conn *sql.DB) error {
	src, err := schemaSource()
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to wrap connection for migration: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migration: %w", err)
	}
	return (&Migrator{m: m}).Up()
}

// Up applies pending migrations. An up to date database is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down drops the whole schema, scan history included.
func (mg *Migrator) Down() error {
	if err := mg.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	return nil
}

// Version reports the applied schema version. An empty database is version 0.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, dirty, nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
