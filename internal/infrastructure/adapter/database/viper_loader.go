package database

import (
	"fmt"

	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/config"
)

// CreateConfigFromViperConfig adapts the application configuration to database configuration.
// Environment variables win over the file for credentials.
func CreateConfigFromViperConfig(conf *config.Config) *Config {
	dbConf := DefaultConfig()

	if dbConf.Host == "" {
		dbConf.Host = conf.Database.Host
	}
	if port := ParsePort(conf.Database.Port); port > 0 && configEnv("BP_DB_PORT") == "" {
		dbConf.Port = port
	}
	if dbConf.Username == "" {
		dbConf.Username = conf.Database.Username
	}
	if dbConf.Password == "" {
		dbConf.Password = conf.Database.Password
	}
	if dbConf.Database == "" {
		dbConf.Database = conf.Database.Database
	}

	if conf.Database.Driver != "" {
		dbConf.Driver = conf.Database.Driver
	}
	if conf.Database.SSLMode != "" {
		dbConf.SSLMode = conf.Database.SSLMode
	}
	if conf.Database.MaxOpenConns > 0 {
		dbConf.MaxOpenConns = conf.Database.MaxOpenConns
	}
	if conf.Database.MaxIdleConns > 0 {
		dbConf.MaxIdleConns = conf.Database.MaxIdleConns
	}
	if conf.Database.ConnMaxLifetime > 0 {
		dbConf.ConnMaxLifetime = conf.Database.ConnMaxLifetime
	}
	if conf.Database.ConnMaxIdleTime > 0 {
		dbConf.ConnMaxIdleTime = conf.Database.ConnMaxIdleTime
	}
	if conf.Database.QueryTimeout > 0 {
		dbConf.QueryTimeout = conf.Database.QueryTimeout
	}
	if conf.Database.SlowThreshold > 0 {
		dbConf.SlowThreshold = conf.Database.SlowThreshold
	}
	if conf.Database.RetryAttempts > 0 {
		dbConf.RetryAttempts = conf.Database.RetryAttempts
	}
	if conf.Database.RetryDelay > 0 {
		dbConf.RetryDelay = conf.Database.RetryDelay
	}
	dbConf.SeedCatalog = conf.Database.SeedCatalog
	if conf.Logger.Level != "" {
		dbConf.LogLevel = conf.Logger.Level
	}

	return dbConf
}

// ParsePort converts a port string to an int, returning 0 when it is not a valid port
func ParsePort(port string) int {
	var p int
	_, err := fmt.Sscanf(port, "%d", &p)
	if err != nil || p <= 0 || p > 65535 {
		return 0
	}
	return p
}
