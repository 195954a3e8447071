package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Env      string `yaml:"env" env:"APP_ENV" env-default:"production"`
	HTTPAddr string `yaml:"http_addr" env:"HTTP_ADDR"`
	Port     string `yaml:"port" env:"PORT" env-default:"3000"`

	Storage Storage `yaml:"storage"`
	Webhook Webhook `yaml:"webhook"`
	Bank    Bank    `yaml:"bank"`
	Order   Order   `yaml:"order"`
	Log     Log     `yaml:"log"`
	Redis   Redis   `yaml:"redis"`
	Kafka   Kafka   `yaml:"kafka"`
	CORS    CORS    `yaml:"cors"`
}

type Storage struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	DatabaseURI string `yaml:"database_uri" env:"DATABASE_URI"`
}

type Webhook struct {
	Secret    string        `yaml:"secret" env:"CASSO_SECRET"`
	Tolerance time.Duration `yaml:"tolerance" env:"WEBHOOK_TOLERANCE" env-default:"0s"`
}

type Bank struct {
	Bin         string `yaml:"bin" env:"BANK_BIN" env-default:"970448"`
	AccountNo   string `yaml:"account_no" env:"BANK_ACCOUNT_NO"`
	AccountName string `yaml:"account_name" env:"BANK_ACCOUNT_NAME"`
	QRBaseURL   string `yaml:"qr_base_url" env:"QR_BASE_URL" env-default:"https://img.vietqr.io/image"`
	QRTemplate  string `yaml:"qr_template" env:"QR_TEMPLATE" env-default:"compact2"`
}

type Order struct {
	CreateMaxAttempts int `yaml:"create_max_attempts" env:"ORDER_CREATE_MAX_ATTEMPTS" env-default:"5"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	Channel  string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"meostore:payment-events"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"order-events"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Load reads CONFIG_PATH when set, otherwise the environment only.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("find config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env))
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Storage.DatabaseURI == "" {
			errs = append(errs, errors.New("DATABASE_URI is required for postgres storage"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	if c.Webhook.Secret == "" && !c.SignatureBypass() {
		errs = append(errs, errors.New("CASSO_SECRET is required outside development"))
	}
	if c.Webhook.Tolerance < 0 {
		errs = append(errs, errors.New("WEBHOOK_TOLERANCE must not be negative"))
	}
	if c.Order.CreateMaxAttempts < 1 {
		errs = append(errs, errors.New("ORDER_CREATE_MAX_ATTEMPTS must be at least 1"))
	}

	return errors.Join(errs...)
}

// SignatureBypass reports whether webhook signatures are skipped.
func (c *Config) SignatureBypass() bool {
	return c.Env == EnvDevelopment
}

func (c *Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return ":" + strings.TrimPrefix(c.Port, ":")
}
