package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port               string
	CORSAllowedOrigins []string

	// Logging configuration
	LogLevel string

	// AWS configuration
	AWSRegion string

	// DynamoDB configuration
	ServersTableName     string
	ConnectionsTableName string
	CredentialsTableName string

	// Permission store configuration
	PermissionsDBType string
	PermissionsDBPath string
	PermissionsDBDSN  string

	// Secret protection
	SecretEncryptionKey string

	// Principal that never receives automatic grants
	AnonymousUserName string

	// Optional YAML file overriding the supported server/auth catalogs
	CatalogPath string

	// Liveness probing
	ProbeWorkers   int
	ProbeQueueSize int
	ProbeTimeout   time.Duration
	ProbeRetryMax  int

	MetricsEnabled bool

	// Auth0 configuration (optional)
	Auth0Domain   string
	Auth0Audience string
}

// New creates a new Config instance by loading environment variables
// from .env file (if present) and OS environment.
// OS environment variables take precedence over .env file values.
// Panics if required configuration values are missing or invalid.
func New() *Config {
	// Load .env file from the working directory (silently ignore if not found)
	envPath := filepath.Join(".", ".env")
	_ = godotenv.Load(envPath)

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "3001"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),

		AWSRegion: getEnvOrDefault("AWS_REGION", "us-east-1"),

		ServersTableName:     getEnvOrDefault("DYNAMODB_SERVERS_TABLE", "Servers"),
		ConnectionsTableName: getEnvOrDefault("DYNAMODB_CONNECTIONS_TABLE", "Connections"),
		CredentialsTableName: getEnvOrDefault("DYNAMODB_CREDENTIALS_TABLE", "ConnectionCredentials"),

		PermissionsDBType: getEnvOrDefault("PERMISSIONS_DB_TYPE", "sqlite"),
		PermissionsDBPath: getEnvOrDefault("PERMISSIONS_DB_PATH", filepath.Join(".", "data", "permissions.db")),
		PermissionsDBDSN:  os.Getenv("PERMISSIONS_DB_DSN"),

		SecretEncryptionKey: os.Getenv("SECRET_ENCRYPTION_KEY"),

		AnonymousUserName: getEnvOrDefault("ANONYMOUS_USER_NAME", "AnonymousUser"),

		CatalogPath: os.Getenv("CATALOG_PATH"),

		ProbeWorkers:   getEnvInt("PROBE_WORKERS", 5),
		ProbeQueueSize: getEnvInt("PROBE_QUEUE_SIZE", 100),
		ProbeTimeout:   getEnvDuration("PROBE_TIMEOUT", 10*time.Second),
		ProbeRetryMax:  getEnvInt("PROBE_RETRY_MAX", 2),

		MetricsEnabled: getEnvOrDefault("METRICS_ENABLED", "true") == "true",

		Auth0Domain:   os.Getenv("AUTH0_DOMAIN"),
		Auth0Audience: os.Getenv("AUTH0_AUDIENCE"),
	}

	// Validate required configuration
	cfg.validate()

	return cfg
}

// validate checks that all required configuration values are present and valid
func (c *Config) validate() {
	var missing []string

	if c.SecretEncryptionKey == "" {
		missing = append(missing, "SECRET_ENCRYPTION_KEY")
	}
	if c.PermissionsDBType == "postgres" && c.PermissionsDBDSN == "" {
		missing = append(missing, "PERMISSIONS_DB_DSN")
	}

	if len(missing) > 0 {
		panic(fmt.Sprintf("Missing required configuration values: %v", missing))
	}

	// Validate encryption key length (must be 32 characters for AES-256)
	if len(c.SecretEncryptionKey) != 32 {
		panic(fmt.Sprintf("SECRET_ENCRYPTION_KEY must be exactly 32 characters (got %d)", len(c.SecretEncryptionKey)))
	}

	if c.PermissionsDBType != "sqlite" && c.PermissionsDBType != "postgres" {
		panic(fmt.Sprintf("PERMISSIONS_DB_TYPE must be 'sqlite' or 'postgres' (got '%s')", c.PermissionsDBType))
	}

	if c.ProbeWorkers < 1 {
		panic(fmt.Sprintf("PROBE_WORKERS must be at least 1 (got %d)", c.ProbeWorkers))
	}

	if c.AnonymousUserName == "" {
		panic("ANONYMOUS_USER_NAME must not be empty")
	}
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable, falling back to defaultValue
// when unset or malformed
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration parses a Go duration string such as "5s"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// getEnvList splits a comma separated environment variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
