package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// CatalogSchemaVersion is the newest migration shipped under migrations/.
const CatalogSchemaVersion uint = 1

// SchemaTable is the bookkeeping table golang-migrate keeps next to the catalog tables.
const SchemaTable = "schema_migrations"

// ErrDirtySchema marks a catalog schema whose last migration failed part way.
var ErrDirtySchema = errors.New("catalog schema is dirty")

// SchemaStatus is the applied state of the catalog schema.
type SchemaStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	Applied bool `json:"applied"`
}

// Current reports whether catalog_genes and catalog_snapshots match this build.
func (s SchemaStatus) Current() bool {
	return s.Applied && !s.Dirty && s.Version >= CatalogSchemaVersion
}

func (s SchemaStatus) String() string {
	if !s.Applied {
		return "not applied"
	}
	if s.Dirty {
		return fmt.Sprintf("version %d (dirty)", s.Version)
	}
	return fmt.Sprintf("version %d", s.Version)
}

// MigrationRunner applies the catalog schema migrations found under a directory.
type MigrationRunner struct {
	m   *migrate.Migrate
	log *logrus.Logger
}

// NewMigrationRunner opens the migration source and the target database.
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	if migrationsPath == "" {
		return nil, errors.New("catalog migrations path is empty")
	}
	dir, err := filepath.Abs(migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("resolving catalog migrations path: %w", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening catalog migrations in %s: %w", dir, err)
	}
	m.Log = migrateLogger{logger}

	return &MigrationRunner{m: m, log: logger}, nil
}

// Status reads the schema version golang-migrate recorded.
func (r *MigrationRunner) Status() (SchemaStatus, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaStatus{}, nil
	}
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("reading catalog schema version: %w", err)
	}
	return SchemaStatus{Version: version, Dirty: dirty, Applied: true}, nil
}

// Up applies every pending catalog migration. A dirty schema is refused
// rather than forced, since the catalog tables may be half built.
func (r *MigrationRunner) Up(ctx context.Context) error {
	return r.apply(ctx, "up", r.m.Up)
}

// Down rolls the catalog schema back by one migration.
func (r *MigrationRunner) Down(ctx context.Context) error {
	return r.apply(ctx, "down", func() error { return r.m.Steps(-1) })
}

func (r *MigrationRunner) apply(ctx context.Context, direction string, step func() error) error {
	before, err := r.Status()
	if err != nil {
		return err
	}
	if before.Dirty {
		return fmt.Errorf("%w at version %d: repair catalog_genes and catalog_snapshots, then clear the dirty flag in %s",
			ErrDirtySchema, before.Version, SchemaTable)
	}

	done := make(chan error, 1)
	go func() { done <- step() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		r.m.GracefulStop <- true
		if err = <-done; err == nil || errors.Is(err, migrate.ErrNoChange) {
			err = ctx.Err()
		}
	}

	if errors.Is(err, migrate.ErrNoChange) {
		r.log.WithField("schema", before.String()).Info("Catalog schema already current")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrating catalog schema %s from %s: %w", direction, before, err)
	}

	after, err := r.Status()
	if err != nil {
		r.log.WithError(err).Warn("Could not read catalog schema version after migrating")
		return nil
	}
	r.log.WithFields(logrus.Fields{
		"direction": direction,
		"from":      before.String(),
		"to":        after.String(),
	}).Info("Catalog schema migrated")
	return nil
}

// Close releases the migration source and database handles.
func (r *MigrationRunner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

// MigrateUp brings the catalog schema up to date and closes the runner.
func MigrateUp(ctx context.Context, databaseURL, migrationsPath string, logger *logrus.Logger) error {
	runner, err := NewMigrationRunner(databaseURL, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := runner.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close migration runner")
		}
	}()
	return runner.Up(ctx)
}

// ReadSchemaStatus reads the catalog schema version over an open connection.
// A database that was never migrated reports Applied false.
func ReadSchemaStatus(ctx context.Context, db *sql.DB) (SchemaStatus, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
		SchemaTable,
	).Scan(&exists)
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("looking up %s: %w", SchemaTable, err)
	}
	if !exists {
		return SchemaStatus{}, nil
	}

	var (
		version int64
		dirty   bool
	)
	err = db.QueryRowContext(ctx, `SELECT version, dirty FROM `+SchemaTable+` LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return SchemaStatus{}, nil
	}
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("reading %s: %w", SchemaTable, err)
	}
	return SchemaStatus{Version: uint(version), Dirty: dirty, Applied: true}, nil
}

type migrateLogger struct {
	log *logrus.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debugf("migrate: "+format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.log.IsLevelEnabled(logrus.DebugLevel)
}
