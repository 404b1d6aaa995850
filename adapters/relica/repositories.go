package relica

import (
	"database/sql"

	"github.com/coregx/sqlbroker"
)

// NewFactory returns a sqlbroker.RepositoryFactory producing Relica repositories.
//
// The dialect should be sqlbroker.DialectMySQL, sqlbroker.DialectPostgres or
// sqlbroker.DialectSQLite ("mysql", "postgres" or "sqlite3").
// The broker passes the table name built from its own prefix.
func NewFactory(dialect sqlbroker.Dialect) sqlbroker.RepositoryFactory {
	return func(db *sql.DB, table string) sqlbroker.MessageRepository {
		return newMessageRepository(db, dialect, table)
	}
}

// NewFactoryForDriver is NewFactory for a database/sql driver name such as
// "mysql", "mariadb", "postgres", "pgx", "sqlite3" or "sqlite".
func NewFactoryForDriver(driverName string) (sqlbroker.RepositoryFactory, error) {
	dialect, err := sqlbroker.ParseDialect(driverName)
	if err != nil {
		return nil, err
	}
	return NewFactory(dialect), nil
}
