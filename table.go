package sqlbroker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Dialect identifies the SQL flavour of the shared database.
// Its value is also the database/sql driver name.
type Dialect string

// Supported dialects.
const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// Character sets for the MySQL messenger table.
const (
	preferredCharset = "utf8mb4"
	fallbackCharset  = "utf8"
)

// mysqlErrUnknownCharset is ER_UNKNOWN_CHARACTER_SET.
const mysqlErrUnknownCharset = 1115

// Execer runs a statement without returning rows.
// It is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ParseDialect returns the dialect for a driver name.
func ParseDialect(driverName string) (Dialect, error) {
	switch strings.ToLower(driverName) {
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	default:
		return "", NewError(ErrCodeConfiguration, fmt.Sprintf("unsupported driver %q", driverName))
	}
}

// DriverName returns the database/sql driver name for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

// CreateTableSQL returns the DDL creating the messenger table.
// charset is only used by MySQL and may be empty elsewhere.
func (d Dialect) CreateTableSQL(table, charset string) string {
	switch d {
	case DialectMySQL:
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
			"`id` BIGINT AUTO_INCREMENT NOT NULL, "+
			"`time` TIMESTAMP NOT NULL, "+
			"`channel` VARCHAR(255) NOT NULL, "+
			"`msg` TEXT NOT NULL, "+
			"PRIMARY KEY (`id`)) DEFAULT CHARSET = %s", table, charset)
	case DialectPostgres:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (`+
			`"id" BIGSERIAL PRIMARY KEY, `+
			`"time" TIMESTAMP NOT NULL, `+
			`"channel" VARCHAR(255) NOT NULL, `+
			`"msg" TEXT NOT NULL)`, table)
	default:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (`+
			`"id" INTEGER PRIMARY KEY AUTOINCREMENT, `+
			`"time" TIMESTAMP NOT NULL, `+
			`"channel" VARCHAR(255) NOT NULL, `+
			`"msg" TEXT NOT NULL)`, table)
	}
}

// CreateTable creates the messenger table if it does not exist.
//
// On MySQL the table is created with utf8mb4 and recreated with utf8 when the
// server does not know utf8mb4. On PostgreSQL a concurrent creation by another
// instance is reported as success. Any other failure is returned.
func CreateTable(ctx context.Context, db Execer, dialect Dialect, table string) error {
	_, err := db.ExecContext(ctx, dialect.CreateTableSQL(table, preferredCharset))
	if err == nil {
		return nil
	}

	switch {
	case dialect == DialectMySQL && isUnknownCharset(err):
		if _, err := db.ExecContext(ctx, dialect.CreateTableSQL(table, fallbackCharset)); err != nil {
			return fmt.Errorf("creating table %s with %s charset: %w", table, fallbackCharset, err)
		}
		return nil
	case dialect == DialectPostgres && isConcurrentCreate(err):
		return nil
	default:
		return fmt.Errorf("creating table %s: %w", table, err)
	}
}

func isUnknownCharset(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrUnknownCharset {
		return true
	}
	return strings.Contains(err.Error(), "Unknown character set")
}

// isConcurrentCreate matches the errors PostgreSQL raises when two sessions run
// CREATE TABLE IF NOT EXISTS for the same table at the same time.
func isConcurrentCreate(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" || pqErr.Code == "42P07"
}
