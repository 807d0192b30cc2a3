package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/iliyamo/carshare-console/internal/logger"
	"github.com/iliyamo/carshare-console/migrations"
)

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m   *migrate.Migrate
	log logger.ILogger
}

// NewMigrator opens a dedicated migration connection.  It does not use the
// request pool because migrations need multi-statement support.
func NewMigrator(s Settings, log logger.ILogger) (*Migrator, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "mysql://"+s.MigrateDSN())
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Migrator{m: m, log: log}, nil
}

// Up applies every pending migration.  Nothing to do is not an error.
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.log.Info("no migrations to apply")
			return nil
		}
		return err
	}
	g.log.Info("migrations applied")
	return nil
}

// Down reverts n migrations.
func (g *Migrator) Down(n int) error {
	if n <= 0 {
		return fmt.Errorf("down needs a positive step count, got %d", n)
	}
	err := g.m.Steps(-n)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Version reports the applied version and whether it is dirty.
func (g *Migrator) Version() (uint, bool, error) {
	v, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close releases the migration connections.
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}
