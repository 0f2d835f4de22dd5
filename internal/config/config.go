package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BlobBackendGCS  = "gcs"
	BlobBackendBolt = "bolt"

	// DefaultJWTSecret is only accepted in dev and test.
	DefaultJWTSecret = "dev-secret"
)

var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set outside dev and test")

type Config struct {
	Env  string
	Port int

	DBDriver      string
	DBURL         string
	SQLitePath    string
	RunMigrations bool

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	BlobBackend        string
	GCSBucket          string
	GCSCredentialsFile string
	BlobPrefix         string
	BoltPath           string
	PublicBaseURL      string
	MaxUploadBytes     int64

	DownstreamTimeout  time.Duration
	BlobTimeout        time.Duration
	CORSAllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	CacheLocal    bool

	OTelEnabled  bool
	OTelEndpoint string
	ServiceName  string
}

// Load reads a .env file when present and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 3010)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = buildDBURL()
	}

	return Config{
		Env:  env,
		Port: port,

		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBURL:         dbURL,
		SQLitePath:    getEnv("SQLITE_PATH", "pethub.db"),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),

		JWTSecret:  getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTTTL:     getEnvDuration("JWT_TTL", time.Hour),
		BcryptCost: getEnvInt("AUTH_BCRYPT_COST", 10),

		BlobBackend:        strings.ToLower(getEnv("BLOB_BACKEND", BlobBackendBolt)),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		BlobPrefix:         getEnv("BLOB_PREFIX", "pets"),
		BoltPath:           getEnv("BOLT_PATH", "pethub-blobs.db"),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		DownstreamTimeout:  getEnvDuration("HTTP_DOWNSTREAM_TIMEOUT", 3*time.Second),
		BlobTimeout:        getEnvDuration("BLOB_TIMEOUT", 15*time.Second),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Second),
		CacheLocal:    getEnvBool("CACHE_LOCAL", IsDevEnv(env)),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "pethub-api"),
	}
}

func IsDevEnv(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

// Validate rejects settings that are only safe on a developer machine.
func (c Config) Validate() error {
	if !IsDevEnv(c.Env) && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return fmt.Errorf("env %q: %w", c.Env, ErrDefaultJWTSecret)
	}
	return nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "pethub")
	pass := getEnv("DB_PASSWORD", "pethub")
	name := getEnv("DB_NAME", "pethub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			return fallback
		}

		return b
	}
	return fallback
}

// accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)

	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err == nil {
		return d
	}

	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return time.Duration(secs) * time.Second
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)

	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}
