// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // per inbound request, propagated to provider calls
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	Migrate  bool   `yaml:"migrate"` // apply schema on startup
}

type RedisConfig struct {
	URL      string `yaml:"url"` // host:port; empty disables redis-backed features
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PhonePeConfig struct {
	HostURL      string        `yaml:"host_url"`
	MerchantID   string        `yaml:"merchant_id"`
	SaltKey      string        `yaml:"salt_key"`
	SaltIndex    int           `yaml:"salt_index"`
	AppBaseURL   string        `yaml:"app_base_url"` // where the provider redirects the user back to
	MobileNumber string        `yaml:"mobile_number"`
	MaxRetries   *int          `yaml:"max_retries"` // nil means default; 0 disables retries
	InitialDelay time.Duration `yaml:"initial_delay"`
	Timeout      time.Duration `yaml:"timeout"`
}

const defaultMaxRetries = 3

// Retries returns the 429 retry budget; an unset value yields the default.
func (c PhonePeConfig) Retries() int {
	if c.MaxRetries == nil {
		return defaultMaxRetries
	}
	if *c.MaxRetries < 0 {
		return 0
	}
	return *c.MaxRetries
}

type PaymentConfig struct {
	PhonePe PhonePeConfig `yaml:"phonepe"`
}

type AuditConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type ReconcilerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
	BatchSize  int           `yaml:"batch_size"`
	LockTTL    time.Duration `yaml:"lock_ttl"`
}

// DefaultLockTTL leaves a pass several ticks to finish before another
// replica may take the reconciler lock.
func DefaultLockTTL(interval time.Duration) time.Duration {
	return 5 * interval
}

type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Config struct {
	HTTP          HTTPConfig       `yaml:"http"`
	Log           LogConfig        `yaml:"log"`
	Database      DatabaseConfig   `yaml:"database"`
	AuditDatabase DatabaseConfig   `yaml:"audit_database"`
	Redis         RedisConfig      `yaml:"redis"`
	Payment       PaymentConfig    `yaml:"payment"`
	Audit         AuditConfig      `yaml:"audit"`
	Reconciler    ReconcilerConfig `yaml:"reconciler"`
	RateLimit     RateLimitConfig  `yaml:"rate_limit"`
	Events        EventsConfig     `yaml:"events"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path. A .env file in the working
// directory is loaded first (if present) and ${VAR} references in the YAML
// are expanded from the environment.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse expands environment references in b, decodes it and applies defaults.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.AuditDatabase.URL == "" {
		return nil, errors.New("audit_database.url is required")
	}
	if cfg.Payment.PhonePe.SaltKey == "" {
		return nil, errors.New("payment.phonepe.salt_key is required")
	}
	if cfg.Events.Enabled && len(cfg.Events.Brokers) == 0 {
		return nil, errors.New("events.brokers is required when events are enabled")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3002
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 45 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.AuditDatabase.MaxConns <= 0 {
		cfg.AuditDatabase.MaxConns = 4
	}

	pp := &cfg.Payment.PhonePe
	if pp.HostURL == "" {
		pp.HostURL = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	}
	if pp.MerchantID == "" {
		pp.MerchantID = "PGTESTPAYUAT86"
	}
	if pp.SaltIndex <= 0 {
		pp.SaltIndex = 1
	}
	if pp.AppBaseURL == "" {
		pp.AppBaseURL = "http://localhost:3000"
	}
	if pp.MobileNumber == "" {
		pp.MobileNumber = "9999999999"
	}
	retries := pp.Retries()
	pp.MaxRetries = &retries
	if pp.InitialDelay <= 0 {
		pp.InitialDelay = time.Second
	}
	if pp.Timeout <= 0 {
		pp.Timeout = 15 * time.Second
	}

	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = 2
	}
	if cfg.Audit.QueueSize <= 0 {
		cfg.Audit.QueueSize = 256
	}

	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}
	if cfg.Reconciler.BatchSize <= 0 {
		cfg.Reconciler.BatchSize = 200
	}
	if cfg.Reconciler.LockTTL <= 0 {
		cfg.Reconciler.LockTTL = DefaultLockTTL(cfg.Reconciler.Interval)
	}

	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 100
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = 15 * time.Minute
	}

	if cfg.Events.Topic == "" {
		cfg.Events.Topic = "payment-events"
	}
}
