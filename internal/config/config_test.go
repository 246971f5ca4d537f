package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "PORT", "JWT_SECRET", "STORE_DRIVER", "BLOB_BACKEND", "S3_BUCKET",
		"DATABASE_URL", "POSTGRES_PASSWORD", "MAX_UPLOAD_BYTES", "ARCHIVE_RETENTION_DAYS",
		"FIREBASE_PROJECT_ID", "FIREBASE_SERVICE_ACCOUNT_PATH",
	} {
		// Setenv registers the restore; an empty-but-set variable would bypass envDefault.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, devAuthSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, BlobBackendLocal, cfg.Blob.Backend)
	assert.Equal(t, int64(50<<20), cfg.Blob.MaxUploadBytes)
	assert.Equal(t, "uploads", cfg.Blob.UploadDir)
	assert.False(t, cfg.S3Enabled())
	assert.False(t, cfg.FirebaseEnabled())
	assert.Zero(t, cfg.RetentionWindow())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "prod-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod-secret", cfg.Auth.JWTSecret)
}

func TestLoad_S3BackendNeedsBucket(t *testing.T) {
	clearEnv(t)
	t.Setenv("BLOB_BACKEND", "s3")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("S3_BUCKET", "journal-media")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.S3Enabled())
}

func TestValidate_RejectsUnknownDrivers(t *testing.T) {
	cfg := &Config{
		Auth:  AuthConfig{JWTSecret: "s"},
		Store: StoreConfig{Driver: "sqlite"},
		Blob:  BlobConfig{Backend: BlobBackendLocal, MaxUploadBytes: 1},
	}
	assert.Error(t, cfg.Validate())

	cfg.Store.Driver = StoreDriverMongo
	cfg.Blob.Backend = "ftp"
	assert.Error(t, cfg.Validate())

	cfg.Blob.Backend = BlobBackendLocal
	assert.NoError(t, cfg.Validate())
}

func TestPostgresURL(t *testing.T) {
	cfg := &Config{Postgres: PostgresConfig{
		Host: "db", Port: "5433", User: "journal", Password: "pw", Name: "trips", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://journal:pw@db:5433/trips?sslmode=disable", cfg.PostgresURL())

	cfg.Postgres.URL = "postgres://override"
	assert.Equal(t, "postgres://override", cfg.PostgresURL())
}

func TestRetentionWindow(t *testing.T) {
	cfg := &Config{Purge: PurgeConfig{RetentionDays: 30}}
	assert.Equal(t, 30*24*time.Hour, cfg.RetentionWindow())
}
