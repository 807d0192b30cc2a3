package database

import (
	"context"
	"database/sql"
	"errors"
)

// ErrCommitted is returned when Commit is called twice on one session.
var ErrCommitted = errors.New("session already committed")

// Provider hands out pooled connections with auto-commit disabled.
type Provider struct {
	db *sql.DB
}

// NewProvider wraps an opened pool.
func NewProvider(db *sql.DB) *Provider { return &Provider{db: db} }

// Session is one pooled connection with an open transaction.  Statements
// run inside the transaction until Commit; afterwards they run on the same
// connection in auto-commit mode, which lets a caller re-read what it just
// wrote without taking a second connection from the pool.
type Session struct {
	conn *sql.Conn
	tx   *sql.Tx
}

// Acquire takes a connection from the pool and begins a transaction on it.
// The caller must Release the session on every path.
func (p *Provider) Acquire(ctx context.Context) (*Session, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Session{conn: conn, tx: tx}, nil
}

// Do acquires a session, runs fn and releases the session however fn
// exits, including a panic.  Work fn did not commit is rolled back.
func (p *Provider) Do(ctx context.Context, fn func(s *Session) error) error {
	s, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release()
	return fn(s)
}

// Commit commits the open transaction.
func (s *Session) Commit() error {
	if s.tx == nil {
		return ErrCommitted
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

// Release rolls back uncommitted work and returns the connection to the pool.
func (s *Session) Release() {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	_ = s.conn.Close()
}

// QueryContext runs a query in the open transaction, or on the connection
// once committed.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.tx != nil {
		return s.tx.QueryContext(ctx, query, args...)
	}
	return s.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext is QueryContext for a single row.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if s.tx != nil {
		return s.tx.QueryRowContext(ctx, query, args...)
	}
	return s.conn.QueryRowContext(ctx, query, args...)
}

// ExecContext runs a statement the same way QueryContext does.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.tx != nil {
		return s.tx.ExecContext(ctx, query, args...)
	}
	return s.conn.ExecContext(ctx, query, args...)
}
