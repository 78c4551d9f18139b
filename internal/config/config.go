package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds the application configuration with validation
type Config struct {
	// Application settings
	Port        int
	LogLevel    string
	StoreDriver string
	AutoMigrate bool

	// Database settings
	Database DatabaseConfig

	// Asset presentation settings
	Assets AssetsConfig

	// External services
	NotificationService NotificationConfig
	Events              EventsConfig

	// Security settings
	Security SecurityConfig

	// Performance settings
	Server ServerConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// AssetsConfig holds settings for the QR status page, export and import
type AssetsConfig struct {
	PublicBaseURL  string
	ExportTimezone string
	QRSize         int
	ImportMaxBytes int64
}

// NotificationConfig holds notification service configuration.
// An empty URL disables completion notifications.
type NotificationConfig struct {
	URL            string
	Timeout        time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	MaxPayloadSize int64
}

// EventsConfig holds the Kafka producer configuration.
// No brokers disables event publishing.
type EventsConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	BufferSize   int
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimitRPS    int
	RateLimitBurst  int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	EnableCORS      bool
	AllowedOrigins  []string
	TrustedProxies  []string
}

// ServerConfig holds server performance configuration
type ServerConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// LoadConfig loads and validates the configuration from environment variables.
// A .env file in the working directory is read first; variables already set
// in the environment take precedence.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Port:        getEnvAsInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		AutoMigrate: getEnvAsBool("AUTO_MIGRATE", true),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},

		Assets: AssetsConfig{
			PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			ExportTimezone: getEnv("EXPORT_TIMEZONE", "Local"),
			QRSize:         getEnvAsInt("QR_SIZE", 256),
			ImportMaxBytes: getEnvAsInt64("IMPORT_MAX_BYTES", 10*1024*1024),
		},

		NotificationService: NotificationConfig{
			URL:            getEnv("NOTIFIER_URL", ""),
			Timeout:        getEnvAsDuration("NOTIFIER_TIMEOUT", 10*time.Second),
			RetryAttempts:  getEnvAsInt("NOTIFIER_RETRY_ATTEMPTS", 3),
			RetryDelay:     getEnvAsDuration("NOTIFIER_RETRY_DELAY", time.Second),
			MaxPayloadSize: getEnvAsInt64("NOTIFIER_MAX_PAYLOAD_SIZE", 1024*1024),
		},

		Events: EventsConfig{
			Brokers:      getEnvAsSlice("KAFKA_BROKERS", []string{}),
			Topic:        getEnv("KAFKA_TOPIC", "asset-events"),
			BatchTimeout: getEnvAsDuration("KAFKA_BATCH_TIMEOUT", 50*time.Millisecond),
			BufferSize:   getEnvAsInt("KAFKA_BUFFER_SIZE", 1000),
		},

		Security: SecurityConfig{
			RateLimitRPS:    getEnvAsInt("RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 200),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			EnableCORS:      getEnvAsBool("ENABLE_CORS", true),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies:  getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},

		Server: ServerConfig{
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxHeaderBytes: getEnvAsInt("SERVER_MAX_HEADER_BYTES", 1<<20), // 1MB
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// validateConfig performs basic validation on the configuration
func validateConfig(config *Config) error {
	var errors []string

	switch config.StoreDriver {
	case StoreDriverPostgres:
		// Database credentials are only needed when Postgres backs the store
		if config.Database.User == "" {
			errors = append(errors, "database user is required")
		}
		if config.Database.Password == "" {
			errors = append(errors, "database password is required in production")
		}
		if config.Database.Name == "" {
			errors = append(errors, "database name is required")
		}
		if config.Database.Port < 1 || config.Database.Port > 65535 {
			errors = append(errors, "database port must be between 1 and 65535")
		}
	case StoreDriverMemory:
	default:
		errors = append(errors, fmt.Sprintf("unknown store driver %q (expected postgres or memory)", config.StoreDriver))
	}

	if config.Port < 1 || config.Port > 65535 {
		errors = append(errors, "port must be between 1 and 65535")
	}

	if _, err := config.ExportLocation(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid export timezone %q", config.Assets.ExportTimezone))
	}
	if config.Assets.QRSize < 64 || config.Assets.QRSize > 2048 {
		errors = append(errors, "QR size must be between 64 and 2048 pixels")
	}
	if config.Assets.ImportMaxBytes < 1024 {
		errors = append(errors, "import max bytes must be at least 1024")
	}

	if len(config.Events.Brokers) > 0 && config.Events.Topic == "" {
		errors = append(errors, "kafka topic is required when brokers are configured")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

// ExportLocation resolves the time zone used for exported timestamps.
func (c *Config) ExportLocation() (*time.Location, error) {
	if c.Assets.ExportTimezone == "" || c.Assets.ExportTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Assets.ExportTimezone)
}

// NotificationsEnabled reports whether a webhook URL is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.NotificationService.URL != ""
}

// EventsEnabled reports whether Kafka brokers are configured.
func (c *Config) EventsEnabled() bool {
	return len(c.Events.Brokers) > 0
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
