package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationError reports a failed schema upgrade. It is fatal: the service
// must not serve against a schema in an unknown state.
type MigrationError struct {
	cause error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration failed: %v", e.cause)
}

func (e *MigrationError) Unwrap() error { return e.cause }

// Migrator applies schema revisions in strict linear order. Each revision is
// either fully applied or not applied at all.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator creates a migrator reading revisions from sourceURL (for
// example "file://migrations") against the given database.
func NewMigrator(sourceURL, databaseURL string) (*Migrator, error) {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return nil, &MigrationError{cause: err}
	}
	return &Migrator{m: m}, nil
}

// Up applies all pending revisions. Applying zero pending revisions is not
// an error; the operation is idempotent.
func (mg *Migrator) Up() error {
	return upResult(mg.m.Up())
}

func upResult(err error) error {
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return &MigrationError{cause: err}
	}
	return nil
}

// Version reports the current revision and whether the schema is dirty.
func (mg *Migrator) Version() (uint, bool, error) {
	return versionResult(mg.m.Version())
}

func versionResult(version uint, dirty bool, err error) (uint, bool, error) {
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, &MigrationError{cause: err}
	}
	return version, dirty, nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	return dbErr
}
