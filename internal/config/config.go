package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL   string
	RunMigrations bool

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Routing
	SignInPath    string
	DashboardPath string

	// Mutations per user per minute
	RateLimitPerMinute int

	OverviewCacheTTL time.Duration

	// AMQP fan-out of invalidation events (optional)
	AMQP AMQPConfig
}

// AMQPConfig holds RabbitMQ configuration
type AMQPConfig struct {
	URL          string // Empty = disabled
	ExchangeName string
}

// Enabled reports whether an AMQP broker is configured
func (c AMQPConfig) Enabled() bool {
	return c.URL != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:        v.GetString("DATABASE_URL"),
		RunMigrations:      v.GetBool("RUN_MIGRATIONS"),
		Auth0Domain:        v.GetString("AUTH0_DOMAIN"),
		Auth0Audience:      v.GetString("AUTH0_AUDIENCE"),
		Port:               v.GetString("PORT"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		Env:                v.GetString("ENV"),
		SignInPath:         v.GetString("SIGN_IN_PATH"),
		DashboardPath:      v.GetString("DASHBOARD_PATH"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		OverviewCacheTTL:   v.GetDuration("OVERVIEW_CACHE_TTL"),
		AMQP: AMQPConfig{
			URL:          v.GetString("AMQP_URL"),
			ExchangeName: v.GetString("AMQP_EXCHANGE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("AUTH0_DOMAIN", "")
	v.SetDefault("AUTH0_AUDIENCE", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("SIGN_IN_PATH", "/sign-in")
	v.SetDefault("DASHBOARD_PATH", "/dashboard")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("OVERVIEW_CACHE_TTL", "5m")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "budget.invalidation")
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if !strings.HasPrefix(c.SignInPath, "/") || !strings.HasPrefix(c.DashboardPath, "/") {
		return fmt.Errorf("SIGN_IN_PATH and DASHBOARD_PATH must be absolute paths")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DatabaseConfig is the subset of Config needed by offline tools
type DatabaseConfig struct {
	DatabaseURL   string
	RunMigrations bool
}

// LoadDatabase reads only the database settings, so tools without Auth0 credentials can start
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &DatabaseConfig{
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RunMigrations: v.GetBool("RUN_MIGRATIONS"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}
