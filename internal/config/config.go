package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Calendar sync modes
const (
	CalendarModeDisabled = "disabled"
	CalendarModeInline   = "inline"
	CalendarModeQueue    = "queue"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
	Worker   WorkerConfig   `yaml:"worker"`
	Calendar CalendarConfig `yaml:"calendar"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds Entity Store connection configuration
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // postgres, sqlite
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	Path            string        `yaml:"path"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	// Timezone decides which calendar date counts as "today"
	Timezone string `yaml:"timezone"`
}

// WorkerConfig holds calendar sync worker configuration
type WorkerConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	PrefetchCount   int           `yaml:"prefetch_count"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CalendarConfig holds the calendar sync adapter configuration
type CalendarConfig struct {
	Mode             string        `yaml:"mode"` // disabled, inline, queue
	ClientSecretFile string        `yaml:"client_secret_file"`
	TokenFile        string        `yaml:"token_file"`
	CalendarID       string        `yaml:"calendar_id"`
	EventIDPrefix    string        `yaml:"event_id_prefix"`
	Location         string        `yaml:"location"`
	TimeZone         string        `yaml:"time_zone"`
	ReminderMinutes  int64         `yaml:"reminder_minutes"`
	MaxAttempts      int           `yaml:"max_attempts"`
	InitialBackoff   time.Duration `yaml:"initial_backoff"`
	MaxBackoff       time.Duration `yaml:"max_backoff"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	// DispatchTimeout bounds the hand-off of a new job to the syncer inside the request
	DispatchTimeout  time.Duration `yaml:"dispatch_timeout"`
}

// NeedsCredentials reports whether this process talks to the calendar provider itself
func (c CalendarConfig) NeedsCredentials() bool {
	return c.Mode == CalendarModeInline
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvOverrides()
	config.applyDefaults()

	return &config, nil
}

// applyEnvOverrides lets secrets stay out of the YAML file
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("RABBITMQ_PASSWORD"); v != "" {
		c.RabbitMQ.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "Local"
	}
	if c.Calendar.Mode == "" {
		c.Calendar.Mode = CalendarModeDisabled
	}
	if c.Calendar.CalendarID == "" {
		c.Calendar.CalendarID = "primary"
	}
	if c.Calendar.EventIDPrefix == "" {
		c.Calendar.EventIDPrefix = "fsjob"
	}
	if c.Calendar.Location == "" {
		c.Calendar.Location = "Windhoek, Namibia"
	}
	if c.Calendar.TimeZone == "" {
		c.Calendar.TimeZone = "Africa/Windhoek"
	}
	if c.Calendar.ReminderMinutes == 0 {
		c.Calendar.ReminderMinutes = 10
	}
	if c.Calendar.MaxAttempts == 0 {
		c.Calendar.MaxAttempts = 3
	}
	if c.Calendar.InitialBackoff == 0 {
		c.Calendar.InitialBackoff = 500 * time.Millisecond
	}
	if c.Calendar.MaxBackoff == 0 {
		c.Calendar.MaxBackoff = 10 * time.Second
	}
	if c.Calendar.RequestTimeout == 0 {
		c.Calendar.RequestTimeout = 30 * time.Second
	}
	if c.Calendar.DispatchTimeout == 0 {
		c.Calendar.DispatchTimeout = 3 * time.Second
	}
}

// Validate checks the settings both services share
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid app timezone %q: %w", c.App.Timezone, err)
	}

	switch c.Calendar.Mode {
	case CalendarModeDisabled:
	case CalendarModeInline:
		if err := c.validateCalendarCredentials(); err != nil {
			return err
		}
	case CalendarModeQueue:
		if err := c.validateRabbitMQ(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid calendar mode: %q", c.Calendar.Mode)
	}

	return nil
}

// ValidateAPIConfig checks the API service configuration
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	return c.Validate()
}

// ValidateWorkerConfig checks the calendar sync worker configuration
func (c *Config) ValidateWorkerConfig() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Calendar.Mode != CalendarModeQueue {
		return fmt.Errorf("worker requires calendar mode %q, got %q", CalendarModeQueue, c.Calendar.Mode)
	}

	if err := c.validateCalendarCredentials(); err != nil {
		return err
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.JobTimeout <= 0 {
		return fmt.Errorf("worker job_timeout must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}

func (c *Config) validateCalendarCredentials() error {
	if c.Calendar.ClientSecretFile == "" {
		return fmt.Errorf("calendar client_secret_file is required")
	}

	if c.Calendar.TokenFile == "" {
		return fmt.Errorf("calendar token_file is required")
	}

	if c.Calendar.MaxAttempts < 1 {
		return fmt.Errorf("calendar max_attempts must be at least 1")
	}

	if !validEventIDPrefix(c.Calendar.EventIDPrefix) {
		return fmt.Errorf("invalid calendar event_id_prefix %q: use 1-32 characters from 0-9 and a-v", c.Calendar.EventIDPrefix)
	}

	return nil
}

// validEventIDPrefix accepts lowercase base32hex, the alphabet the calendar
// provider allows in event ids
func validEventIDPrefix(p string) bool {
	if len(p) == 0 || len(p) > 32 {
		return false
	}
	for _, r := range p {
		if (r < '0' || r > '9') && (r < 'a' || r > 'v') {
			return false
		}
	}
	return true
}
