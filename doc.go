// Package sqlbroker emulates a publish/subscribe channel on a table shared by
// every instance of an application, for deployments that have a common SQL
// database but no message broker.
//
// It is not a real broker. Delivery, ordering and fan-out are approximated by
// periodic polling: Send inserts a row, every instance polls for rows newer
// than its own watermark, and a retention task deletes old rows.
//
// # Features
//
//   - Broadcast: every instance receives every message on the channels it subscribes to
//   - At-most-once delivery per instance, in insertion (id) order
//   - Maximum delivery delay of one poll interval (default 10s)
//   - Automatic table creation with MySQL utf8mb4 to utf8 fallback
//   - Multi-Database Support: MySQL/MariaDB, PostgreSQL, SQLite via Relica adapters
//   - Pluggable Logger, Codec, Scheduler, Subscriptions and NotificationService
//   - Options Pattern for configuration
//
// # Quick Start
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
//	    sqlbroker.WithLogger(sqlbroker.NewSlogLogger(nil)),
//	    sqlbroker.WithSubscriptions(sqlbroker.NewChannelSet("chat")),
//	    sqlbroker.WithHandler(func(ctx context.Context, channel string, payload []byte) error {
//	        log.Printf("%s: %s", channel, payload)
//	        return nil
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := broker.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer broker.Close()
//
//	err = broker.Send(ctx, "chat", []byte("hello"))
//
// # Connections
//
// A Source hands the broker one Lease per operation. WrapDB lends an existing
// *sql.DB and never closes it. OpenDB owns a pool and closes it on Close.
// Dial opens and closes a dedicated connection for every operation.
//
// # Timing
//
// Rows older than VisibilityWindow (30s) are never delivered, and rows older
// than RetentionThreshold (60s) are deleted every 30 poll intervals. Instances
// sharing a table should use the same poll interval and codec. Timestamps come
// from each instance's clock, so instance clocks should be kept in sync.
//
// # Standalone Server
//
// cmd/sqlbroker-server exposes a broker over HTTP:
//
//	POST   /api/v1/publish
//	POST   /api/v1/subscribe
//	GET    /api/v1/subscriptions
//	DELETE /api/v1/subscriptions/{channel}
//	GET    /api/v1/health
//	GET    /api/v1/status
//
// Configuration is read from the environment (SERVER_*, DB_*, BROKER_*) and an
// optional .env file.
package sqlbroker
