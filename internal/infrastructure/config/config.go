package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment  string             `mapstructure:"environment"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Accrual      AccrualConfig      `mapstructure:"accrual"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Notification NotificationConfig `mapstructure:"notification"`
	Lock         LockConfig         `mapstructure:"lock"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	SlowThreshold   time.Duration `mapstructure:"slowThreshold"`   // milliseconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
	SeedCatalog     bool          `mapstructure:"seedCatalog"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"timeFormat"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// LedgerConfig contains money limits and per-user serialization settings.
// Amounts are decimal strings.
type LedgerConfig struct {
	// Store selects the persistence adapter: postgres or memory
	Store                   string        `mapstructure:"store"`
	MinDeposit              string        `mapstructure:"minDeposit"`
	MaxDeposit              string        `mapstructure:"maxDeposit"`
	MinWithdrawal           string        `mapstructure:"minWithdrawal"`
	MaxWithdrawal           string        `mapstructure:"maxWithdrawal"`
	DailyWithdrawalCap      string        `mapstructure:"dailyWithdrawalCap"`
	WithdrawalChargePercent string        `mapstructure:"withdrawalChargePercent"`
	Timezone                string        `mapstructure:"timezone"`
	SerializerQueueSize     int           `mapstructure:"serializerQueueSize"`
	SerializerIdleTimeout   time.Duration `mapstructure:"serializerIdleTimeout"` // seconds
}

// AccrualConfig contains the daily profit scheduler settings
type AccrualConfig struct {
	Interval    time.Duration `mapstructure:"interval"` // minutes
	Concurrency int           `mapstructure:"concurrency"`
	ScanLimit   int           `mapstructure:"scanLimit"`
}

// RedisConfig contains the connection used by the redis lock driver
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"poolSize"`
}

// SMTPConfig contains mail server settings
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// NotificationConfig selects and tunes notification delivery
type NotificationConfig struct {
	// Driver is log or email
	Driver     string     `mapstructure:"driver"`
	QueueSize  int        `mapstructure:"queueSize"`
	RatePerSec float64    `mapstructure:"ratePerSec"`
	Burst      int        `mapstructure:"burst"`
	SMTP       SMTPConfig `mapstructure:"smtp"`
}

// LockConfig selects the cross-process user lock
type LockConfig struct {
	// Driver is none, postgres or redis
	Driver        string        `mapstructure:"driver"`
	TTL           time.Duration `mapstructure:"ttl"`           // seconds
	Wait          time.Duration `mapstructure:"wait"`          // milliseconds
	RetryInterval time.Duration `mapstructure:"retryInterval"` // milliseconds
}
