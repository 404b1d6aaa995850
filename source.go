package sqlbroker

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
)

// Source provides database handles to the broker, one lease per operation.
//
// A lease is either owned (the broker closes it after the operation) or
// borrowed (the broker must never close it). Implementations decide which.
type Source interface {
	// Acquire returns a handle usable for a single operation.
	Acquire(ctx context.Context) (*Lease, error)

	// Running reports whether the source can still hand out handles.
	Running() bool

	// Close releases everything the source owns. Leases acquired afterwards fail.
	Close() error
}

// Lease is a database handle tagged with its ownership.
type Lease struct {
	db    *sql.DB
	owned bool
}

// NewLease creates a lease over db. Owned leases are closed on Release.
func NewLease(db *sql.DB, owned bool) *Lease {
	return &Lease{db: db, owned: owned}
}

// DB returns the leased handle.
func (l *Lease) DB() *sql.DB {
	return l.db
}

// Owned reports whether Release closes the handle.
func (l *Lease) Owned() bool {
	return l.owned
}

// Release closes owned handles and does nothing for borrowed ones.
func (l *Lease) Release() error {
	if !l.owned || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// WrapDB returns a Source lending db to every operation.
// The caller keeps ownership: neither leases nor Close ever close db.
func WrapDB(db *sql.DB) Source {
	return &sharedSource{db: db}
}

// OpenDB opens a pool for driverName and dsn and returns a Source that owns it.
// Leases borrow the pool; Close closes it.
func OpenDB(driverName, dsn string) (Source, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeConfiguration, fmt.Sprintf("failed to open %s database", driverName), err)
	}
	return &sharedSource{db: db, owns: true}, nil
}

// Dial returns a Source that opens a dedicated handle for every lease and
// closes it once the operation finishes.
func Dial(driverName, dsn string) Source {
	return &dialSource{driverName: driverName, dsn: dsn}
}

// sharedSource lends one *sql.DB to every lease.
type sharedSource struct {
	db     *sql.DB
	owns   bool
	closed atomic.Bool
}

func (s *sharedSource) Acquire(_ context.Context) (*Lease, error) {
	if s.closed.Load() {
		return nil, ErrSourceClosed
	}
	return NewLease(s.db, false), nil
}

func (s *sharedSource) Running() bool {
	return !s.closed.Load()
}

func (s *sharedSource) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.owns {
		return s.db.Close()
	}
	return nil
}

// dialSource opens an owned handle per lease.
type dialSource struct {
	driverName string
	dsn        string
	closed     atomic.Bool
}

func (s *dialSource) Acquire(ctx context.Context) (*Lease, error) {
	if s.closed.Load() {
		return nil, ErrSourceClosed
	}

	db, err := sql.Open(s.driverName, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", s.driverName, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", s.driverName, err)
	}

	return NewLease(db, true), nil
}

func (s *dialSource) Running() bool {
	return !s.closed.Load()
}

func (s *dialSource) Close() error {
	s.closed.Store(true)
	return nil
}
