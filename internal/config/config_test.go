package config

import (
	"testing"

	"patientcluster/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_PORT", "GIN_MODE", "SNAPSHOT_PATH", "MAX_UPLOAD_MB", "DATABASE_URL", "LOG_JSON"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "8081", cfg.API.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "clustered_patients.gob", cfg.Export.SnapshotPath)
	assert.Equal(t, int64(50*1024*1024), cfg.Upload.MaxBytes())
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Logging.JSON)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("SNAPSHOT_PATH", "/tmp/out.gob")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("DATABASE_URL", "postgres://localhost/clusters")
	t.Setenv("LOG_JSON", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, "/tmp/out.gob", cfg.Export.SnapshotPath)
	assert.Equal(t, 5, cfg.Upload.MaxMB)
	assert.True(t, cfg.Database.Enabled())
	assert.True(t, cfg.Logging.JSON)
}

func TestLoadRejectsBadGinMode(t *testing.T) {
	t.Setenv("GIN_MODE", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoadIgnoresUnparsableInts(t *testing.T) {
	t.Setenv("GIN_MODE", "")
	t.Setenv("MAX_UPLOAD_MB", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Upload.MaxMB)
}
