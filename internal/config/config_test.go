package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredPostgresEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.local")
	t.Setenv("POSTGRES_USER", "catalog")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DBNAME", "library")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredPostgresEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HttpServer.Port)
	assert.Equal(t, 15*time.Second, cfg.HttpServer.TimeoutRead)
	assert.Equal(t, "9090", cfg.GrpcServer.Port)
	assert.Equal(t, "5432", cfg.Postgres.Port)
	assert.Equal(t, 30*time.Minute, cfg.Postgres.ConnMaxLifetime)
	assert.True(t, cfg.Postgres.AutoMigrate)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"POSTGRES_HOST", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DBNAME"} {
		t.Setenv(key, "placeholder") // restored after the test
		require.NoError(t, os.Unsetenv(key))
	}

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process configuration")
}

func TestLoad_InvalidAppEnv(t *testing.T) {
	setRequiredPostgresEnv(t)
	t.Setenv("APP_ENV", "qa")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid APP_ENV")
}

func TestLoad_ClampsIdleConns(t *testing.T) {
	setRequiredPostgresEnv(t)
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "4")
	t.Setenv("POSTGRES_MAX_IDLE_CONNS", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Postgres.MaxIdleConns)
}

func TestPostgresConfig_DSN(t *testing.T) {
	pc := PostgresConfig{Host: "h", Port: "5433", User: "u", Password: "p", DBName: "d", SSLMode: "require"}
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=d sslmode=require", pc.DSN())
}
