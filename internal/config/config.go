package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// DefaultDevUserID is the fixed account used when no token issuer exists.
// Single-user local mode binds every request to it.
const DefaultDevUserID = "00000000-0000-0000-0000-000000000001"

type Config struct {
	Port                string   `mapstructure:"PORT"`
	Env                 string   `mapstructure:"ENV"`
	DatabaseURL         string   `mapstructure:"DATABASE_URL"`
	SQLitePath          string   `mapstructure:"SQLITE_PATH"`
	DBMaxConns          int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins         []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS        float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int      `mapstructure:"RATE_LIMIT_BURST"`
	AuthSecret          string   `mapstructure:"AUTH_SECRET"`
	AuthIssuer          string   `mapstructure:"AUTH_ISSUER"`
	AuthAudience        string   `mapstructure:"AUTH_AUDIENCE"`
	DevUserID           string   `mapstructure:"DEV_USER_ID"`
	TrendWindow         int      `mapstructure:"TREND_WINDOW"`
	TrendMinReadings    int      `mapstructure:"TREND_MIN_READINGS"`
	AlertTimeoutSeconds int      `mapstructure:"ALERT_TIMEOUT_SECONDS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8420")
	v.SetDefault("ENV", "development")
	v.SetDefault("SQLITE_PATH", "cardio.db")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("DEV_USER_ID", DefaultDevUserID)
	v.SetDefault("TREND_WINDOW", 14)
	v.SetDefault("TREND_MIN_READINGS", 4)
	v.SetDefault("ALERT_TIMEOUT_SECONDS", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("SQLITE_PATH")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("DEV_USER_ID")
	v.BindEnv("TREND_WINDOW")
	v.BindEnv("TREND_MIN_READINGS")
	v.BindEnv("ALERT_TIMEOUT_SECONDS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsePostgres reports whether a Postgres connection string was supplied.
// Without one the server runs on the embedded SQLite store.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// DevUser returns the account every request is bound to in development mode.
func (c *Config) DevUser() (uuid.UUID, error) {
	id, err := uuid.Parse(c.DevUserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("DEV_USER_ID is not a valid UUID: %w", err)
	}
	return id, nil
}

// Validate checks that the configuration is safe to run. Outside development
// AUTH_SECRET must be set so that real JWT authentication is enforced, and
// the trend knobs must be usable by the analysis window.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSecret == "" {
		return fmt.Errorf(
			"AUTH_SECRET must be set when ENV is %q. "+
				"Refusing to start without authentication configuration. "+
				"Use ENV=development for the single-user local mode", c.Env)
	}
	if c.IsDev() {
		if _, err := c.DevUser(); err != nil {
			return err
		}
	}

	if c.TrendWindow < 1 {
		return fmt.Errorf("TREND_WINDOW must be at least 1, got %d", c.TrendWindow)
	}
	// Two readings is the floor for a half-window split.
	if c.TrendMinReadings < 2 {
		return fmt.Errorf("TREND_MIN_READINGS must be at least 2, got %d", c.TrendMinReadings)
	}

	if c.AlertTimeoutSeconds < 1 {
		return fmt.Errorf("ALERT_TIMEOUT_SECONDS must be positive, got %d", c.AlertTimeoutSeconds)
	}

	return nil
}
