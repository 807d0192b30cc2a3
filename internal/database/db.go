package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Settings is the pre-resolved connection configuration.
type Settings struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	PoolSize int
}

// DSN renders the driver connection string.
func (s Settings) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = s.Host + ":" + s.Port
	cfg.DBName = s.Name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// UPDATE reports matched rows, so closing an already closed ticket
	// still counts as one affected row
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// MigrateDSN is DSN with multi-statement support, which the migration
// files need and the request path must never have.
func (s Settings) MigrateDSN() string {
	cfg, err := mysql.ParseDSN(s.DSN())
	if err != nil {
		return s.DSN()
	}
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// Open connects to MySQL and verifies the connection.  The pool is fixed
// at PoolSize connections; callers that find it exhausted wait until one
// is released or their context expires.
func Open(s Settings) (*sql.DB, error) {
	db, err := sql.Open("mysql", s.DSN())
	if err != nil {
		return nil, err
	}

	size := s.PoolSize
	if size <= 0 {
		size = 5
	}
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", s.Host, err)
	}
	return db, nil
}
