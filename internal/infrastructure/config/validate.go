package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"
)

// Validate ensures the required configuration values are present and the
// driver selections are known
func (c *Config) Validate() error {
	var missingConfigs []string

	if c.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if c.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}
	if c.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	if c.Ledger.Store == StorePostgres {
		if c.Database.Host == "" {
			missingConfigs = append(missingConfigs, "database.host (or BP_DB_HOST environment variable)")
		}
		if c.Database.Database == "" {
			missingConfigs = append(missingConfigs, "database.database (or BP_DB_NAME environment variable)")
		}
		if c.Database.QueryTimeout == 0 {
			missingConfigs = append(missingConfigs, "database.queryTimeout")
		}
	}

	if c.Notification.Driver == NotifyEmail && c.Notification.SMTP.Host == "" {
		missingConfigs = append(missingConfigs, "notification.smtp.host (or BP_SMTP_HOST environment variable)")
	}
	if c.Lock.Driver == LockRedis && c.Redis.Addr == "" {
		missingConfigs = append(missingConfigs, "redis.addr (or BP_REDIS_ADDR environment variable)")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	if !slices.Contains([]string{Development, Production, Test}, c.Environment) {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			c.Environment, Development, Production, Test)
	}
	if !slices.Contains([]string{StorePostgres, StoreMemory}, c.Ledger.Store) {
		return fmt.Errorf("invalid ledger.store %q, must be postgres or memory", c.Ledger.Store)
	}
	if !slices.Contains([]string{NotifyLog, NotifyEmail}, c.Notification.Driver) {
		return fmt.Errorf("invalid notification.driver %q, must be log or email", c.Notification.Driver)
	}
	if !slices.Contains([]string{LockNone, LockPostgres, LockRedis}, c.Lock.Driver) {
		return fmt.Errorf("invalid lock.driver %q, must be none, postgres or redis", c.Lock.Driver)
	}
	if c.Lock.Driver == LockPostgres && c.Ledger.Store != StorePostgres {
		return fmt.Errorf("lock.driver postgres requires ledger.store postgres")
	}

	if _, err := c.Ledger.PaymentLimits(); err != nil {
		return err
	}

	if c.Environment == Production {
		var warnings []string

		sslMode := strings.ToLower(c.Database.SSLMode)
		if c.Ledger.Store == StorePostgres && sslMode != "require" && sslMode != "verify-ca" && sslMode != "verify-full" {
			warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
		}
		if c.Server.ReadTimeout < 5*time.Second {
			warnings = append(warnings, "server.readTimeout is too low for production")
		}
		if c.Ledger.Store == StoreMemory {
			warnings = append(warnings, "ledger.store memory loses all data on restart")
		}

		if len(warnings) > 0 {
			log.Printf("Warning: potential issues in production configuration: %v", warnings)
		}
	}

	return nil
}
