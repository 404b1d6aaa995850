package sqlbroker

import (
	"context"
	"database/sql"
	"time"

	"github.com/coregx/sqlbroker/model"
)

// MessageRepository defines the persistence interface for the messenger table.
//
// A repository is bound to one leased handle and is used for a single
// broker operation.
type MessageRepository interface {
	// EnsureTable creates the messenger table if it does not exist.
	EnsureTable(ctx context.Context) error

	// LatestID returns the highest id in the table, or NoWatermark when empty.
	LatestID(ctx context.Context) (int64, error)

	// Insert stores a new row. The store assigns m.ID.
	Insert(ctx context.Context, m *model.Message) error

	// FindAfter returns rows with id > afterID created after since,
	// ordered by id ASC, at most limit rows.
	// Returns an empty slice (not ErrNoData) when nothing matches.
	FindAfter(ctx context.Context, afterID int64, since time.Time, limit int) ([]model.Message, error)

	// DeleteOlderThan removes every row created before cutoff in one
	// statement and returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RepositoryFactory binds a MessageRepository for table to a leased handle.
type RepositoryFactory func(db *sql.DB, table string) MessageRepository
