// Package relica provides the messenger table repository using Relica query builder.
//
// Relica (github.com/coregx/relica) is a lightweight, type-safe database query builder
// for Go with zero production dependencies.
//
// The repository works with MySQL/MariaDB, PostgreSQL and SQLite. Table creation
// goes through sqlbroker.CreateTable, which handles the MySQL charset fallback.
//
// Example usage:
//
//	import (
//	    "github.com/coregx/sqlbroker"
//	    "github.com/coregx/sqlbroker/adapters/relica"
//	    _ "github.com/go-sql-driver/mysql"
//	)
//
//	source, err := sqlbroker.OpenDB("mysql", "user:pass@tcp(localhost:3306)/app?parseTime=true")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	broker, err := sqlbroker.NewBroker(
//	    sqlbroker.WithSource(source),
//	    sqlbroker.WithRepositories(relica.NewFactory(sqlbroker.DialectMySQL)),
//	    sqlbroker.WithLogger(logger),
//	)
package relica
