package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/carshare-console/internal/database"
	"github.com/iliyamo/carshare-console/internal/logger"
)

// CarSharingRepo is the catalog of named statements the console runs.
// Every method takes its own session from the provider and gives it back
// before returning; no method holds a connection across calls.  Values are
// always bound positionally.
type CarSharingRepo struct {
	db  *database.Provider
	log logger.ILogger
}

// NewCarSharingRepo returns a repository bound to the given provider.
func NewCarSharingRepo(db *database.Provider, log logger.ILogger) *CarSharingRepo {
	if log == nil {
		log = logger.NewNop()
	}
	return &CarSharingRepo{db: db, log: log}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Ping reports whether a trivial query succeeds.  It never returns an error.
func (r *CarSharingRepo) Ping(ctx context.Context) bool {
	err := r.db.Do(ctx, func(s *database.Session) error {
		var one int
		return s.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
	})
	if err != nil {
		r.log.Warning("database ping failed", logger.Error(err))
		return false
	}
	return true
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// isNoRows reports a single-row lookup that matched nothing, which the
// lookups translate into a nil record rather than an error.
func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// nullable converts optional inputs into driver values so NULL is written
// for absent fields.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
