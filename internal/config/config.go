package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"

	BlobBackendLocal = "local"
	BlobBackendS3    = "s3"

	devAuthSecret = "dev-secret-key"
)

type Config struct {
	Env             string        `env:"APP_ENV" envDefault:"development"`
	Port            string        `env:"PORT" envDefault:"5000"`
	FrontendOrigin  string        `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	Auth     AuthConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Blob     BlobConfig
	S3       S3Config
	Firebase FirebaseConfig
	Purge    PurgeConfig
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	CookieSecure bool          `env:"COOKIE_SECURE"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" envDefault:"postgres"`
}

// PostgresConfig mirrors the DATABASE_URL / POSTGRES_* variables; URL wins when set.
type PostgresConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Name     string `env:"POSTGRES_DB" envDefault:"traveljournal"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGO_DB" envDefault:"traveljournal"`
}

type RedisConfig struct {
	Enabled  bool          `env:"CACHE_ENABLED" envDefault:"true"`
	Host     string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string        `env:"REDIS_PORT" envDefault:"6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	EntryTTL time.Duration `env:"CACHE_ENTRY_TTL" envDefault:"24h"`
}

type BlobConfig struct {
	Backend        string `env:"BLOB_BACKEND" envDefault:"local"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
}

type S3Config struct {
	Bucket        string `env:"S3_BUCKET"`
	Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint      string `env:"S3_ENDPOINT"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	UsePathStyle  bool   `env:"S3_USE_PATH_STYLE"`
}

type FirebaseConfig struct {
	ProjectID          string `env:"FIREBASE_PROJECT_ID"`
	ServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
}

type PurgeConfig struct {
	RetentionDays int    `env:"ARCHIVE_RETENTION_DAYS" envDefault:"0"`
	Schedule      string `env:"PURGE_SCHEDULE" envDefault:"@daily"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Auth.JWTSecret == "" && !cfg.IsProduction() {
		cfg.Auth.JWTSecret = devAuthSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}

	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Blob.Backend {
	case BlobBackendLocal:
	case BlobBackendS3:
		if c.S3.Bucket == "" {
			return errors.New("S3_BUCKET is required when BLOB_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.Blob.Backend)
	}

	if c.Blob.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.Purge.RetentionDays < 0 {
		return errors.New("ARCHIVE_RETENTION_DAYS must not be negative")
	}
	return nil
}

// PostgresURL returns DATABASE_URL or a DSN assembled from the POSTGRES_* parts.
func (c *Config) PostgresURL() string {
	if c.Postgres.URL != "" {
		return c.Postgres.URL
	}
	p := c.Postgres
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// S3Enabled reports whether a remote bucket is configured, even when local is the primary backend.
func (c *Config) S3Enabled() bool {
	return c.S3.Bucket != ""
}

func (c *Config) FirebaseEnabled() bool {
	return c.Firebase.ProjectID != "" || c.Firebase.ServiceAccountPath != ""
}

func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.Purge.RetentionDays) * 24 * time.Hour
}
