package config // package config loads application configuration from environment variables

import (
	"os"
	"time"

	"github.com/joho/godotenv" // optional .env file for local development
	"github.com/spf13/cast"    // lenient string -> typed conversions

	"github.com/iliyamo/carshare-console/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; defaults mirror a local development setup so the
// server starts against a stock MySQL without extra wiring.
type Config struct {
	ServiceName string // namespace attached to every log line
	Env         string // application environment (e.g. "dev", "prod")
	LogLevel    string // zap level name
	Port        string // HTTP port to listen on

	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	DBPoolSize int    // fixed size of the connection pool

	DefaultZoneType string // zone type shown when the dashboard has none selected

	ProofSecret string        // HMAC secret for proof correlation tokens
	ProofTTL    time.Duration // lifetime of a stored proof

	AMQPURL         string // RabbitMQ URL for audit events; empty disables publishing
	AuditConsumer   bool   // run the audit log consumer inside the server process
	AuditLogDir     string // directory the consumer appends audit.log to
	TemplateGlob    string // html templates for the dashboard
	MigrationsOnRun bool   // apply embedded migrations at startup
}

// Load reads configuration values from the environment (after loading an
// optional .env file) and returns a Config.
func Load() Config {
	_ = godotenv.Load(".env")

	return Config{
		ServiceName: cast.ToString(getOrDefault("SERVICE_NAME", "carshare-console")),
		Env:         cast.ToString(getOrDefault("APP_ENV", "dev")),
		LogLevel:    cast.ToString(getOrDefault("LOG_LEVEL", "debug")),
		Port:        cast.ToString(getOrDefault("APP_PORT", "8080")),

		DBUser:     cast.ToString(getOrDefault("DB_USER", "root")),
		DBPass:     os.Getenv("DB_PASSWORD"), // empty allowed
		DBHost:     cast.ToString(getOrDefault("DB_HOST", "localhost")),
		DBPort:     cast.ToString(getOrDefault("DB_PORT", "3306")),
		DBName:     cast.ToString(getOrDefault("DB_NAME", "carsharing_group6_db")),
		DBPoolSize: cast.ToInt(getOrDefault("DB_POOL_SIZE", 5)),

		DefaultZoneType: cast.ToString(getOrDefault("DEFAULT_ZONE_TYPE", "SERVICE_AREA")),

		ProofSecret: cast.ToString(getOrDefault("PROOF_SECRET", "dev-secret")),
		ProofTTL:    cast.ToDuration(getOrDefault("PROOF_TTL", "5m")),

		AMQPURL:         firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
		AuditConsumer:   cast.ToBool(getOrDefault("AUDIT_CONSUMER", false)),
		AuditLogDir:     cast.ToString(getOrDefault("AUDIT_LOG_DIR", "logs")),
		TemplateGlob:    cast.ToString(getOrDefault("TEMPLATE_GLOB", "web/templates/*.html")),
		MigrationsOnRun: cast.ToBool(getOrDefault("MIGRATE_ON_START", false)),
	}
}

// DatabaseSettings extracts the connection settings for database.Open.
func (c Config) DatabaseSettings() database.Settings {
	return database.Settings{
		User:     c.DBUser,
		Password: c.DBPass,
		Host:     c.DBHost,
		Port:     c.DBPort,
		Name:     c.DBName,
		PoolSize: c.DBPoolSize,
	}
}

func getOrDefault(key string, defaultValue interface{}) interface{} {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
