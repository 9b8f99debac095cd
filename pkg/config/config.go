package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Env var names referenced outside the struct tags (tests, error messages).
const (
	EnvAppEnv = "KALAKRITI_APP_ENV"
	EnvDBDSN  = "KALAKRITI_DB_DSN"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	Pricing PricingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KALAKRITI_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"KALAKRITI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KALAKRITI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Storage backend drivers.
const (
	StorageDriverMemory   = "memory"
	StorageDriverDatabase = "database"
	StorageDriverRedis    = "redis"
)

// StorageConfig selects the durable medium behind the persistent stores and
// the key namespace all of them share.
type StorageConfig struct {
	Driver    string `envconfig:"KALAKRITI_STORAGE_DRIVER" default:"memory"`
	Namespace string `envconfig:"KALAKRITI_STORAGE_NAMESPACE" default:"kalakriti"`

	// DebounceWindow collapses rapid successive writes (quantity steppers)
	// into one durable write, keeping the most recent value.
	DebounceWindow time.Duration `envconfig:"KALAKRITI_STORAGE_DEBOUNCE_WINDOW" default:"0"`

	AutoMigrate bool `envconfig:"KALAKRITI_STORAGE_AUTO_MIGRATE" default:"false"`
}

func (s *StorageConfig) validate() error {
	switch s.Driver {
	case StorageDriverMemory, StorageDriverDatabase, StorageDriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", s.Driver)
	}
	if strings.TrimSpace(s.Namespace) == "" {
		return fmt.Errorf("storage namespace is required")
	}
	return nil
}

type DBConfig struct {
	DSN    string `envconfig:"KALAKRITI_DB_DSN"`
	Driver string `envconfig:"KALAKRITI_DB_DRIVER" default:"sqlite"`

	MaxOpenConns    int           `envconfig:"KALAKRITI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KALAKRITI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KALAKRITI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KALAKRITI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KALAKRITI_REDIS_URL"`
	Address      string        `envconfig:"KALAKRITI_REDIS_ADDR"`
	Password     string        `envconfig:"KALAKRITI_REDIS_PASSWORD"`
	DB           int           `envconfig:"KALAKRITI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KALAKRITI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KALAKRITI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KALAKRITI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KALAKRITI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KALAKRITI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig carries the checkout constants. Amounts are whole rupees.
type PricingConfig struct {
	FreeShippingThreshold int    `envconfig:"KALAKRITI_FREE_SHIPPING_THRESHOLD" default:"1000"`
	FlatShippingFee       int    `envconfig:"KALAKRITI_FLAT_SHIPPING_FEE" default:"99"`
	TaxRate               string `envconfig:"KALAKRITI_TAX_RATE" default:"0.05"`
}

func (p *PricingConfig) validate() error {
	if p.FreeShippingThreshold < 0 {
		return fmt.Errorf("free shipping threshold must be non-negative")
	}
	if p.FlatShippingFee < 0 {
		return fmt.Errorf("flat shipping fee must be non-negative")
	}
	return nil
}
