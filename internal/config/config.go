package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Secrets    SecretsConfig    `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
	Payment    PaymentConfig    `validate:"required"`
	Email      EmailConfig
	Cache      CacheConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required,oneof=local api"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string `validate:"required"`
	Port                   int    `validate:"required"`
	User                   string `validate:"required"`
	Password               string
	DBName                 string `mapstructure:"dbname" validate:"required"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	Secret     string `validate:"required"`
	CronSecret string `mapstructure:"cron_secret" validate:"required"`
}

type SecretsConfig struct {
	EncryptionKey string `mapstructure:"encryption_key" validate:"required"`
}

// BillingConfig holds the platform-wide subscription billing constants
type BillingConfig struct {
	// UnitPricePerLocation is a decimal string, e.g. "50.00"
	UnitPricePerLocation string `mapstructure:"unit_price_per_location" validate:"required,numeric"`
	Currency             string `validate:"required,len=3"`
	// BillingDay gates the monthly run and anchors new subscriptions
	BillingDay       int    `mapstructure:"billing_day" validate:"required,min=1,max=31"`
	PlanID           string `mapstructure:"plan_id"`
	Schedule         string `validate:"required"`
	SchedulerEnabled bool   `mapstructure:"scheduler_enabled"`
}

type PaymentConfig struct {
	SquareBaseURL        string        `mapstructure:"square_base_url" validate:"required,url"`
	SquareSandboxBaseURL string        `mapstructure:"square_sandbox_base_url" validate:"required,url"`
	SquareVersion        string        `mapstructure:"square_version" validate:"required"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	MaxRetries           int           `mapstructure:"max_retries" validate:"min=0,max=5"`
	TerminalPollTimeout  time.Duration `mapstructure:"terminal_poll_timeout"`
}

type EmailConfig struct {
	Enabled     bool
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	ReplyTo     string `mapstructure:"reply_to"`
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

func NewConfig() (*Configuration, error) {
	// .env is optional, real environment variables win
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shopbench")

	v.SetEnvPrefix("SHOPBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("billing.unit_price_per_location", "50")
	v.SetDefault("billing.currency", "USD")
	v.SetDefault("billing.billing_day", 1)
	v.SetDefault("billing.schedule", "0 6 * * *")
	v.SetDefault("billing.scheduler_enabled", true)
	v.SetDefault("payment.square_base_url", "https://connect.squareup.com")
	v.SetDefault("payment.square_sandbox_base_url", "https://connect.squareupsandbox.com")
	v.SetDefault("payment.square_version", "2024-10-17")
	v.SetDefault("payment.request_timeout", 30*time.Second)
	v.SetDefault("payment.max_retries", 0)
	v.SetDefault("payment.terminal_poll_timeout", 5*time.Minute)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 10*time.Minute)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "shopbench",
			DBName:  "shopbench",
			SSLMode: "disable",
		},
		Auth: AuthConfig{
			Secret:     "local-auth-secret",
			CronSecret: "local-cron-secret",
		},
		Secrets: SecretsConfig{EncryptionKey: "local-encryption-key-0123456789ab"},
		Billing: BillingConfig{
			UnitPricePerLocation: "50",
			Currency:             "USD",
			BillingDay:           1,
			Schedule:             "0 6 * * *",
			SchedulerEnabled:     true,
		},
		Payment: PaymentConfig{
			SquareBaseURL:        "https://connect.squareup.com",
			SquareSandboxBaseURL: "https://connect.squareupsandbox.com",
			SquareVersion:        "2024-10-17",
			RequestTimeout:       30 * time.Second,
			TerminalPollTimeout:  5 * time.Minute,
		},
		Cache: CacheConfig{Enabled: true, TTL: 10 * time.Minute},
	}
}

// GetUnitPrice returns the per-location monthly price. The string is
// validated as numeric on load, so a parse failure falls back to zero.
func (c BillingConfig) GetUnitPrice() decimal.Decimal {
	price, err := decimal.NewFromString(c.UnitPricePerLocation)
	if err != nil {
		return decimal.Zero
	}
	return price
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
