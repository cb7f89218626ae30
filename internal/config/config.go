package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the planscan server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	APS      APSConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// APSConfig configures the remote conversion service client. ClientID and
// ClientSecret are deliberately not validated at load time: the credential
// cache reports a configuration error on first use, so classification-only
// deployments can run without remote credentials.
type APSConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Nickname     string
	Bucket       string
	Engine       string
	BundleName   string
	ActivityName string
	JobTimeout   time.Duration
	PollInterval time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PLANSCAN_PORT", 8080),
			Env:  envString("PLANSCAN_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		APS: APSConfig{
			BaseURL:      envString("APS_BASE_URL", "https://developer.api.autodesk.com"),
			ClientID:     os.Getenv("APS_CLIENT_ID"),
			ClientSecret: os.Getenv("APS_CLIENT_SECRET"),
			Nickname:     envString("APS_NICKNAME", "planscan"),
			Bucket:       os.Getenv("APS_BUCKET"),
			Engine:       envString("APS_ENGINE", "Autodesk.AutoCAD+24_2"),
			BundleName:   envString("APS_BUNDLE_NAME", "PlanScanExtractor"),
			ActivityName: envString("APS_ACTIVITY_NAME", "ExtractReferences"),
			JobTimeout:   envDuration("APS_JOB_TIMEOUT", 120*time.Second),
			PollInterval: envDuration("APS_POLL_INTERVAL", 3*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !strings.HasPrefix(c.APS.BaseURL, "http://") && !strings.HasPrefix(c.APS.BaseURL, "https://") {
		return fmt.Errorf("APS_BASE_URL must start with http:// or https://, got %q", c.APS.BaseURL)
	}

	if c.APS.PollInterval <= 0 {
		return fmt.Errorf("APS_POLL_INTERVAL must be positive, got %s", c.APS.PollInterval)
	}
	if c.APS.JobTimeout <= 0 {
		return fmt.Errorf("APS_JOB_TIMEOUT must be positive, got %s", c.APS.JobTimeout)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
