package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"DB_PASSWORD": "secret"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "sqlbroker", cfg.Database.Database)
	assert.Equal(t, "", cfg.Database.Prefix)
	assert.Equal(t, 10*time.Second, cfg.Broker.PollInterval)
	assert.Equal(t, 100, cfg.Broker.BatchSize)
	assert.Equal(t, "base64", cfg.Broker.Codec)
	assert.Equal(t, 5, cfg.Broker.StartAttempts)
	assert.True(t, cfg.Broker.EnableNotifications)
	assert.Empty(t, cfg.Broker.Channels)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"SERVER_PORT":          "9090",
		"DB_DRIVER":            "postgres",
		"DB_PORT":              "5432",
		"DB_PASSWORD":          "secret",
		"DB_PREFIX":            "app_",
		"BROKER_POLL_INTERVAL": "2s",
		"BROKER_CHANNELS":      "chat,news",
		"BROKER_CODEC":         "text",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "app_", cfg.Database.Prefix)
	assert.Equal(t, 2*time.Second, cfg.Broker.PollInterval)
	assert.Equal(t, []string{"chat", "news"}, cfg.Broker.Channels)
	assert.Equal(t, "text", cfg.Broker.Codec)
}

func TestLoadFrom_SQLiteNeedsNoPassword(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DB_DRIVER": "sqlite3",
		"DB_NAME":   "/tmp/broker.db",
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/broker.db", cfg.Database.GetDSN())
	assert.Equal(t, "sqlite3", cfg.Database.DriverName())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{name: "missing password", environ: map[string]string{}},
		{name: "unknown driver", environ: map[string]string{"DB_DRIVER": "oracle", "DB_PASSWORD": "x"}},
		{name: "bad port", environ: map[string]string{"DB_PASSWORD": "x", "SERVER_PORT": "70000"}},
		{name: "bad interval", environ: map[string]string{"DB_PASSWORD": "x", "BROKER_POLL_INTERVAL": "soon"}},
		{name: "zero batch size", environ: map[string]string{"DB_PASSWORD": "x", "BROKER_BATCH_SIZE": "0"}},
		{name: "unknown codec", environ: map[string]string{"DB_PASSWORD": "x", "BROKER_CODEC": "gzip"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	mysql := DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "db", Port: 3306, Database: "app"}
	assert.Equal(t, "u:p@tcp(db:3306)/app?parseTime=true&loc=UTC", mysql.GetDSN())
	assert.Equal(t, "mysql", mysql.DriverName())

	pg := DatabaseConfig{Driver: "postgresql", User: "u", Password: "p", Host: "db", Port: 5432, Database: "app"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=app sslmode=disable", pg.GetDSN())
	assert.Equal(t, "postgres", pg.DriverName())

	assert.Equal(t, "", (&DatabaseConfig{Driver: "oracle"}).GetDSN())
}
