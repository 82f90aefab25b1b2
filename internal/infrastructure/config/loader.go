package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// Driver selections
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	NotifyLog   = "log"
	NotifyEmail = "email"

	LockNone     = "none"
	LockPostgres = "postgres"
	LockRedis    = "redis"
)

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
	"../../configs/.env",
}

// LoadConfig loads configs/<BP_ENV>.yaml, layers BP_* environment variables on
// top and converts raw duration units. A missing file leaves the defaults in place.
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")

	if dir := os.Getenv("BP_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}
	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env
	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile loads the first .env file found on DotEnvPaths
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			lastError = err
			continue
		}
		return nil
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}
	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.database", "investment_ledger")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.queryTimeout", 5)     // seconds
	v.SetDefault("database.slowThreshold", 200)  // milliseconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 1) // seconds
	v.SetDefault("database.seedCatalog", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.callerInfo", true)

	v.SetDefault("ledger.store", "postgres")
	v.SetDefault("ledger.minDeposit", "100")
	v.SetDefault("ledger.maxDeposit", "50000")
	v.SetDefault("ledger.minWithdrawal", "500")
	v.SetDefault("ledger.maxWithdrawal", "50000")
	v.SetDefault("ledger.dailyWithdrawalCap", "100000")
	v.SetDefault("ledger.withdrawalChargePercent", "2")
	v.SetDefault("ledger.timezone", "UTC")
	v.SetDefault("ledger.serializerQueueSize", 64)
	v.SetDefault("ledger.serializerIdleTimeout", 60) // seconds

	v.SetDefault("accrual.interval", 60) // minutes
	v.SetDefault("accrual.concurrency", 8)
	v.SetDefault("accrual.scanLimit", 0)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 20)

	v.SetDefault("notification.driver", "log")
	v.SetDefault("notification.queueSize", 256)
	v.SetDefault("notification.ratePerSec", 10)
	v.SetDefault("notification.burst", 20)
	v.SetDefault("notification.smtp.port", 587)

	v.SetDefault("lock.driver", "none")
	v.SetDefault("lock.ttl", 30)           // seconds
	v.SetDefault("lock.wait", 5000)        // milliseconds
	v.SetDefault("lock.retryInterval", 25) // milliseconds
}

// getEnvironment determines the environment to use based on BP_ENV environment variable
func getEnvironment() string {
	env := os.Getenv("BP_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides maps the short BP_* names onto config keys.
// AutomaticEnv covers the long form (BP_DATABASE_HOST and so on).
func processEnvOverrides(v *viper.Viper) {
	overrides := map[string]string{
		"BP_DB_HOST":             "database.host",
		"BP_DB_PORT":             "database.port",
		"BP_DB_USERNAME":         "database.username",
		"BP_DB_PASSWORD":         "database.password",
		"BP_DB_NAME":             "database.database",
		"BP_DB_SSL_MODE":         "database.sslMode",
		"BP_SERVER_HOST":         "server.host",
		"BP_SERVER_PORT":         "server.port",
		"BP_LOGGER_LEVEL":        "logger.level",
		"BP_LEDGER_STORE":        "ledger.store",
		"BP_LEDGER_TIMEZONE":     "ledger.timezone",
		"BP_REDIS_ADDR":          "redis.addr",
		"BP_REDIS_PASSWORD":      "redis.password",
		"BP_NOTIFICATION_DRIVER": "notification.driver",
		"BP_SMTP_HOST":           "notification.smtp.host",
		"BP_SMTP_USERNAME":       "notification.smtp.username",
		"BP_SMTP_PASSWORD":       "notification.smtp.password",
		"BP_SMTP_FROM":           "notification.smtp.from",
		"BP_LOCK_DRIVER":         "lock.driver",
	}
	for env, key := range overrides {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}

	intOverrides := map[string]string{
		"BP_DB_MAX_OPEN_CONNS":             "database.maxOpenConns",
		"BP_DB_MAX_IDLE_CONNS":             "database.maxIdleConns",
		"BP_DB_CONN_MAX_LIFETIME_MINUTES":  "database.connMaxLifetime",
		"BP_DB_CONN_MAX_IDLE_TIME_MINUTES": "database.connMaxIdleTime",
		"BP_DB_QUERY_TIMEOUT_SECONDS":      "database.queryTimeout",
		"BP_DB_RETRY_ATTEMPTS":             "database.retryAttempts",
		"BP_DB_RETRY_DELAY_SECONDS":        "database.retryDelay",
		"BP_ACCRUAL_INTERVAL_MINUTES":      "accrual.interval",
		"BP_ACCRUAL_CONCURRENCY":           "accrual.concurrency",
		"BP_LOCK_TTL_SECONDS":              "lock.ttl",
	}
	for env, key := range intOverrides {
		if value, ok := getEnvInt(env); ok {
			v.Set(key, value)
		}
	}
}

// getEnvInt reads an integer variable; ok is false when unset or malformed
func getEnvInt(name string) (int, bool) {
	valStr := os.Getenv(name)
	if valStr == "" {
		return 0, false
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, false
	}
	return val, true
}

// processDurations converts time.Duration fields from their raw values to actual durations
func processDurations(config *Config) {
	config.Server.ReadTimeout *= time.Second
	config.Server.WriteTimeout *= time.Second
	config.Server.IdleTimeout *= time.Second
	config.Server.ReadHeaderTimeout *= time.Second
	config.Server.ShutdownTimeout *= time.Second

	config.Database.ConnMaxLifetime *= time.Minute
	config.Database.ConnMaxIdleTime *= time.Minute
	config.Database.QueryTimeout *= time.Second
	config.Database.SlowThreshold *= time.Millisecond
	config.Database.RetryDelay *= time.Second

	config.Ledger.SerializerIdleTimeout *= time.Second
	config.Accrual.Interval *= time.Minute

	config.Lock.TTL *= time.Second
	config.Lock.Wait *= time.Millisecond
	config.Lock.RetryInterval *= time.Millisecond
}
