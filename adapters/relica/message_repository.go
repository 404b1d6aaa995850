package relica

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coregx/relica"

	"github.com/coregx/sqlbroker"
	"github.com/coregx/sqlbroker/model"
)

// MessageRepository implements sqlbroker.MessageRepository using Relica.
type MessageRepository struct {
	sqlDB   *sql.DB
	db      *relica.DB
	dialect sqlbroker.Dialect
	table   string
}

// NewMessageRepository creates a MessageRepository for the default "messenger" table.
func NewMessageRepository(sqlDB *sql.DB, dialect sqlbroker.Dialect) *MessageRepository {
	return NewMessageRepositoryWithPrefix(sqlDB, dialect, "")
}

// NewMessageRepositoryWithPrefix creates a MessageRepository for the "<prefix>messenger" table.
func NewMessageRepositoryWithPrefix(sqlDB *sql.DB, dialect sqlbroker.Dialect, prefix string) *MessageRepository {
	return newMessageRepository(sqlDB, dialect, model.TableName(prefix))
}

func newMessageRepository(sqlDB *sql.DB, dialect sqlbroker.Dialect, table string) *MessageRepository {
	return &MessageRepository{
		sqlDB:   sqlDB,
		db:      relica.WrapDB(sqlDB, dialect.DriverName()),
		dialect: dialect,
		table:   table,
	}
}

// TableName returns the messenger table name.
func (r *MessageRepository) TableName() string {
	return r.table
}

// EnsureTable creates the messenger table if it does not exist.
func (r *MessageRepository) EnsureTable(ctx context.Context) error {
	if err := sqlbroker.CreateTable(ctx, r.sqlDB, r.dialect, r.table); err != nil {
		return sqlbroker.NewErrorWithCause(sqlbroker.ErrCodeDatabase, "failed to create messenger table", err)
	}
	return nil
}

// LatestID returns the highest id in the table, or sqlbroker.NoWatermark when empty.
func (r *MessageRepository) LatestID(ctx context.Context) (int64, error) {
	var latest struct {
		ID sql.NullInt64 `db:"latest"`
	}
	err := r.db.WithContext(ctx).Select("MAX(id) AS latest").
		From(r.table).
		WithContext(ctx).
		One(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return sqlbroker.NoWatermark, nil
	}
	if err != nil {
		return sqlbroker.NoWatermark, sqlbroker.NewErrorWithCause(sqlbroker.ErrCodeDatabase, "failed to read latest message id", err)
	}
	if !latest.ID.Valid {
		return sqlbroker.NoWatermark, nil
	}
	return latest.ID.Int64, nil
}

// Insert stores a new message. m.ID is populated by the database.
func (r *MessageRepository) Insert(ctx context.Context, m *model.Message) error {
	// Model().Insert() fills m.ID with the auto-increment value
	if err := r.db.WithContext(ctx).Model(m).Table(r.table).Insert(); err != nil {
		return sqlbroker.NewErrorWithCause(sqlbroker.ErrCodeDatabase, "failed to insert message", err)
	}
	return nil
}

// FindAfter returns messages with id > afterID created after since, ordered by id ASC.
// The time column is filtered on but not read back, so drivers that return
// timestamps as raw bytes (MySQL without parseTime) work too.
func (r *MessageRepository) FindAfter(ctx context.Context, afterID int64, since time.Time, limit int) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	err := r.db.WithContext(ctx).Select("id", "channel", "msg").
		From(r.table).
		Where("id > ? AND "+r.column("time")+" > ?", afterID, since.UTC()).
		OrderBy("id ASC").
		Limit(int64(limit)).
		WithContext(ctx).
		All(&messages)
	if err != nil {
		return nil, sqlbroker.NewErrorWithCause(sqlbroker.ErrCodeDatabase, "failed to find new messages", err)
	}
	return messages, nil
}

// DeleteOlderThan removes every message created before cutoff.
func (r *MessageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.WithContext(ctx).Delete(r.table).
		Where(r.column("time")+" < ?", cutoff.UTC()).
		WithContext(ctx).
		Execute()
	if err != nil {
		return 0, sqlbroker.NewErrorWithCause(sqlbroker.ErrCodeDatabase, "failed to delete outdated messages", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, sqlbroker.NewErrorWithCause(sqlbroker.ErrCodeDatabase, "failed to count deleted messages", err)
	}
	return deleted, nil
}

// column quotes a column name that is also a type keyword.
func (r *MessageRepository) column(name string) string {
	if r.dialect == sqlbroker.DialectMySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}
