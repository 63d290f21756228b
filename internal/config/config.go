package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config aggregates runtime configuration for the file service.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Signing  SigningConfig
	Metrics  MetricsConfig
	Events   EventsConfig
	Janitor  JanitorConfig
}

// AppConfig holds process-level identity.
type AppConfig struct {
	Name     string
	LogLevel string
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig carries the metadata store connection string.
type DatabaseConfig struct {
	URL string
}

// Driver reports which metadata backend the URL selects.
func (d DatabaseConfig) Driver() string {
	switch {
	case strings.HasPrefix(d.URL, "postgres://"), strings.HasPrefix(d.URL, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(d.URL, "sqlite://"):
		return DriverSQLite
	default:
		return ""
	}
}

// SQLitePath converts an SQLAlchemy-style sqlite URL into a filesystem path.
// sqlite:///./data/app.db -> ./data/app.db, sqlite:////var/app.db -> /var/app.db.
func (d DatabaseConfig) SQLitePath() string {
	path := strings.TrimPrefix(d.URL, "sqlite://")
	if strings.HasPrefix(path, "/") {
		path = path[1:]
	}
	return path
}

// Metadata backends.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Content drivers.
const (
	StorageDisk  = "disk"
	StorageMinIO = "minio"
)

// StorageConfig describes where file content lives.
type StorageConfig struct {
	Driver    string
	UploadDir string
	MinIO     MinIOConfig
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// SigningConfig groups download token settings.
type SigningConfig struct {
	Secret        string
	Algorithm     string
	MaxTTLSeconds int64
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// EventsConfig configures the optional AMQP event publisher.
type EventsConfig struct {
	URL      string
	Exchange string
}

// Enabled reports whether events should be published.
func (e EventsConfig) Enabled() bool {
	return e.URL != ""
}

// JanitorConfig controls the partial-upload sweeper.
type JanitorConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

const defaultMaxTTLSeconds = 86400

// MaxTTLSecondsLimit is the largest TTL that still fits a time.Duration.
const MaxTTLSecondsLimit = math.MaxInt64 / int64(time.Second)

// Load reads configuration values from environment variables, applying defaults.
// Invalid signing settings are reported as errors so the process can refuse to start.
func Load() (Config, error) {
	signing, err := loadSigningConfig()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		App: AppConfig{
			Name:     getString("APP_NAME", "Private File Service"),
			LogLevel: getString("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Host:         getString("FILEVAULT_API_HOST", "0.0.0.0"),
			Port:         getInt("FILEVAULT_API_PORT", 8080),
			ReadTimeout:  getDuration("FILEVAULT_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("FILEVAULT_API_WRITE_TIMEOUT", 0),
			IdleTimeout:  getDuration("FILEVAULT_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			URL: getString("DATABASE_URL", "sqlite:///./data/app.db"),
		},
		Storage: StorageConfig{
			Driver:    strings.ToLower(getString("STORAGE_DRIVER", StorageDisk)),
			UploadDir: getString("UPLOAD_DIR", "data/uploads"),
			MinIO: MinIOConfig{
				Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
				AccessKeyID:     getString("MINIO_ROOT_USER", "filevault"),
				SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
				Bucket:          getString("MINIO_BUCKET", "filevault"),
				UseSSL:          getBool("MINIO_USE_SSL", false),
				Region:          getString("MINIO_REGION", ""),
			},
		},
		Signing: signing,
		Metrics: MetricsConfig{
			PrometheusPath: getString("FILEVAULT_METRICS_PATH", "/metrics"),
		},
		Events: EventsConfig{
			URL:      getString("AMQP_URL", ""),
			Exchange: getString("AMQP_EXCHANGE", "filevault.events"),
		},
		Janitor: JanitorConfig{
			Interval:   getDuration("JANITOR_INTERVAL", time.Hour),
			StaleAfter: getDuration("JANITOR_STALE_AFTER", 24*time.Hour),
		},
	}

	if cfg.Database.Driver() == "" {
		return Config{}, fmt.Errorf("DATABASE_URL: unsupported scheme in %q", cfg.Database.URL)
	}
	switch cfg.Storage.Driver {
	case StorageDisk, StorageMinIO:
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDisk, StorageMinIO)
	}

	return cfg, nil
}

func loadSigningConfig() (SigningConfig, error) {
	secret := strings.TrimSpace(getString("SIGNING_SECRET", "change-me-in-production"))
	if secret == "" {
		return SigningConfig{}, errors.New("SIGNING_SECRET cannot be empty")
	}

	algorithm := getString("SIGNING_ALGORITHM", jwt.SigningMethodHS256.Alg())
	if _, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC); !ok {
		return SigningConfig{}, fmt.Errorf("SIGNING_ALGORITHM %q is not a supported HMAC algorithm", algorithm)
	}

	maxTTL, err := getPositiveInt("MAX_TTL_SECONDS", defaultMaxTTLSeconds)
	if err != nil {
		return SigningConfig{}, err
	}
	if maxTTL > MaxTTLSecondsLimit {
		return SigningConfig{}, fmt.Errorf("MAX_TTL_SECONDS must not exceed %d", MaxTTLSecondsLimit)
	}

	return SigningConfig{
		Secret:        secret,
		Algorithm:     algorithm,
		MaxTTLSeconds: maxTTL,
	}, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// getPositiveInt treats a blank value as unset but rejects anything else that
// is not a positive integer.
func getPositiveInt(key string, fallback int64) (int64, error) {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return parsed, nil
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
