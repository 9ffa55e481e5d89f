// Package testdb sets up and manipulates SQLite test tables.
//
// Every operation borrows the caller's connection for one call, issues its
// statements and returns. Nothing is cached between calls and no
// transaction outlives the call that opened it.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/nsqlite/sqlitetest/errs"
	"github.com/nsqlite/sqlitetest/log"
)

// MemoryPath is the path that opens a private in-memory database.
const MemoryPath = ":memory:"

// Conn is the subset of database/sql shared by *sql.DB, *sql.Conn and
// *sql.Tx that the operations need.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// txBeginner is implemented by *sql.DB and *sql.Conn.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ Conn       = (*sql.DB)(nil)
	_ Conn       = (*sql.Conn)(nil)
	_ Conn       = (*sql.Tx)(nil)
	_ txBeginner = (*sql.DB)(nil)
	_ txBeginner = (*sql.Conn)(nil)
)

type options struct {
	logger      log.Logger
	progress    func(done, total int)
	busyTimeout time.Duration
}

// Option configures an operation of this package.
type Option func(*options)

// WithLogger sets the logger used to report what an operation did.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProgress sets a callback invoked by Initialize after each inserted
// row.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithBusyTimeout sets how long Open's connection waits on a locked
// database before failing. The default of zero fails immediately, which is
// what lock contention tests want to observe.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.busyTimeout = timeout
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// createDSN builds a go-sqlite3 DSN for path.
func createDSN(path string, busyTimeout time.Duration) string {
	qp := url.Values{}
	qp.Add("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))

	if path == MemoryPath {
		return "file::memory:?" + qp.Encode()
	}
	return fmt.Sprintf("file:%s?%s", path, qp.Encode())
}

// Open opens the SQLite database at path with github.com/mattn/go-sqlite3.
//
// The returned handle is pinned to a single connection, so a MemoryPath
// database stays one database for its whole lifetime and every operation
// sees the same locks. The caller owns the handle and must close it.
func Open(path string, opts ...Option) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path is required", errs.ErrInvalidArgument)
	}
	o := buildOptions(opts)

	db, err := sql.Open("sqlite3", createDSN(path, o.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", errs.ErrStorage, path, err)
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	db.SetMaxIdleConns(1)
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to ping %s: %w", errs.ErrStorage, path, err)
	}

	o.logger.DebugNs(log.NsTestDB, "database opened", log.KV{
		"path":           path,
		"sqlite_version": sqliteVersion(),
	})
	return db, nil
}

// OpenMemory opens a private in-memory database.
func OpenMemory(opts ...Option) (*sql.DB, error) {
	return Open(MemoryPath, opts...)
}

func sqliteVersion() string {
	version, _, _ := sqlite3.Version()
	return version
}

// withTx runs fn inside a transaction when conn can begin one, and directly
// on conn otherwise (conn is then already a transaction).
func withTx(ctx context.Context, conn Conn, fn func(Conn) error) error {
	beginner, ok := conn.(txBeginner)
	if !ok {
		return fn(conn)
	}

	tx, err := beginner.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
