package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/geocoder89/pethub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunMigrations_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pethub.db")
	cfg := config.Config{DBDriver: config.DriverSQLite, SQLitePath: path}

	require.NoError(t, runMigrations(context.Background(), cfg, discardLogger()))
	// a second run is a no-op
	require.NoError(t, runMigrations(context.Background(), cfg, discardLogger()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var tables int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'pets')`).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 2, tables)
}

func TestRunMigrations_UnknownDriver(t *testing.T) {
	err := runMigrations(context.Background(), config.Config{DBDriver: "mysql"}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestBuildDeps_RejectsDefaultSecretOutsideDev(t *testing.T) {
	cfg := config.Config{
		Env:        "production",
		JWTSecret:  config.DefaultJWTSecret,
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "never-opened.db"),
	}

	_, cleanup, err := buildDeps(context.Background(), cfg, discardLogger())
	defer cleanup()

	require.ErrorIs(t, err, config.ErrDefaultJWTSecret)
	assert.NoFileExists(t, cfg.SQLitePath)
}
