package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application configuration parameters
type Config struct {
	// Server configuration
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	BaseURL      string        `json:"base_url"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`

	// Stripe configuration
	StripeSecretKey      string `json:"-"`
	StripePublishableKey string `json:"stripe_publishable_key"`
	StripeWebhookSecret  string `json:"-"`
	Currency             string `json:"currency"`

	// Database configuration
	DBName          string        `json:"db_name"`
	DBPath          string        `json:"db_path"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`

	// Session configuration
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"-"`
	SessionTTL    time.Duration `json:"session_ttl"`

	// App configuration
	Environment string `json:"environment"` // development, production
	LogLevel    string `json:"log_level"`   // debug, info, warn, error

	// Demo mode: run against in-memory stores and an offline payment
	// client when the real backends are not configured.
	DemoMode bool `json:"demo_mode"`
}

// NewConfig creates and returns a new configuration instance
func NewConfig() (*Config, error) {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		// Server defaults
		Port:         ":8082",
		Host:         "0.0.0.0",
		BaseURL:      "http://localhost:8082",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,

		// Payment defaults
		Currency: "usd",

		// Database defaults
		DBName:          "cardlink.db",
		DBPath:          "./data/",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,

		// Session defaults
		SessionTTL: 24 * time.Hour,

		// App defaults
		Environment: "development",
		LogLevel:    "info",
	}

	// Override with environment variables if set
	if port := os.Getenv("PORT"); port != "" {
		if port[0] != ':' {
			cfg.Port = ":" + port
		} else {
			cfg.Port = port
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}

	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		cfg.StripeSecretKey = key
	}

	if key := os.Getenv("STRIPE_PUBLISHABLE_KEY"); key != "" {
		cfg.StripePublishableKey = key
	}

	if secret := os.Getenv("STRIPE_WEBHOOK_SECRET"); secret != "" {
		cfg.StripeWebhookSecret = secret
	}

	if currency := os.Getenv("CURRENCY"); currency != "" {
		cfg.Currency = currency
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.DBName = dbName
	}

	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}

	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.RedisPassword = password
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Environment = env
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Parse numeric environment variables
	if maxOpenConns := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpenConns != "" {
		if conns, err := strconv.Atoi(maxOpenConns); err == nil {
			cfg.MaxOpenConns = conns
		}
	}

	if maxIdleConns := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdleConns != "" {
		if conns, err := strconv.Atoi(maxIdleConns); err == nil {
			cfg.MaxIdleConns = conns
		}
	}

	// Parse duration environment variables
	if readTimeout := os.Getenv("READ_TIMEOUT"); readTimeout != "" {
		if timeout, err := time.ParseDuration(readTimeout); err == nil {
			cfg.ReadTimeout = timeout
		}
	}

	if writeTimeout := os.Getenv("WRITE_TIMEOUT"); writeTimeout != "" {
		if timeout, err := time.ParseDuration(writeTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}

	if idleTimeout := os.Getenv("IDLE_TIMEOUT"); idleTimeout != "" {
		if timeout, err := time.ParseDuration(idleTimeout); err == nil {
			cfg.IdleTimeout = timeout
		}
	}

	if connMaxLifetime := os.Getenv("DB_CONN_MAX_LIFETIME"); connMaxLifetime != "" {
		if lifetime, err := time.ParseDuration(connMaxLifetime); err == nil {
			cfg.ConnMaxLifetime = lifetime
		}
	}

	if sessionTTL := os.Getenv("SESSION_TTL"); sessionTTL != "" {
		if ttl, err := time.ParseDuration(sessionTTL); err == nil {
			cfg.SessionTTL = ttl
		}
	}

	// Missing payment credentials degrade to demo mode instead of refusing
	// to start.
	if demo := os.Getenv("DEMO_MODE"); demo != "" {
		cfg.DemoMode = demo == "true" || demo == "1"
	} else {
		cfg.DemoMode = cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == ""
	}

	return cfg, nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetDatabasePath returns the full path to the database file
func (c *Config) GetDatabasePath() string {
	return c.DBPath + c.DBName
}

// GetServerAddress returns the server address
func (c *Config) GetServerAddress() string {
	return c.Host + c.Port
}

// SuccessURL is where the customer lands after a completed payment
func (c *Config) SuccessURL() string {
	return c.BaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is where the customer lands after abandoning checkout
func (c *Config) CancelURL() string {
	return c.BaseURL + "/checkout/cancel"
}

// ValidateConfig validates the configuration
func (c *Config) ValidateConfig() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	if c.DBName == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Currency == "" {
		return fmt.Errorf("currency is required")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.IsProduction() && c.DemoMode {
		return fmt.Errorf("demo mode is not allowed in production")
	}

	return nil
}
