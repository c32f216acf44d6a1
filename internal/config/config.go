package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	OTLPEndpoint string
	Metrics      MetricsConfig
	Tracing      TracingConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PolicyPath string

	Scheduler SchedulerConfig
	Engine    EngineConfig
}

type MetricsConfig struct {
	Enabled bool
}

type TracingConfig struct {
	Enabled bool
}

type SchedulerConfig struct {
	Enabled      bool
	TickInterval time.Duration
	LockTTL      time.Duration
	// CloseGrace is how long after month end the month is settled.
	CloseGrace time.Duration
	JobTimeout time.Duration
	// Jobs restricts the scheduler to the named jobs. Empty runs all.
	Jobs []string
}

// EngineConfig configures the scheduled settlement run.
type EngineConfig struct {
	// Parties are "type:id" pairs, e.g. "seller:42,platform:main".
	Parties        []string
	Currency       string
	MaxParallelism int
	PerformedBy    string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "settlement"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		Metrics:           MetricsConfig{Enabled: getenvBool("METRICS_ENABLED", false)},
		Tracing:           TracingConfig{Enabled: getenvBool("TRACING_ENABLED", false)},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "settlement"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBAutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", true),
		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getenvInt("REDIS_DB", 0),
		PolicyPath:        strings.TrimSpace(getenv("POLICY_PATH", "")),
		Scheduler: SchedulerConfig{
			Enabled:      getenvBool("SCHEDULER_ENABLED", true),
			TickInterval: getenvDuration("SCHEDULER_TICK_INTERVAL", time.Hour),
			LockTTL:      getenvDuration("SCHEDULER_LOCK_TTL", 30*time.Minute),
			CloseGrace:   getenvDuration("SCHEDULER_CLOSE_GRACE", 2*time.Hour),
			JobTimeout:   getenvDuration("SCHEDULER_JOB_TIMEOUT", 10*time.Minute),
			Jobs:         parseList(getenv("SCHEDULER_JOBS", "")),
		},
		Engine: EngineConfig{
			Parties:        parseList(getenv("SETTLEMENT_PARTIES", "")),
			Currency:       strings.ToUpper(getenv("SETTLEMENT_CURRENCY", "IDR")),
			MaxParallelism: getenvInt("SETTLEMENT_MAX_PARALLELISM", 4),
			PerformedBy:    getenv("SETTLEMENT_PERFORMED_BY", "system"),
		},
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
