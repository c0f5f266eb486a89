package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all tunables for the server and the detection engine.
// Detection thresholds are defaults inherited from the shipped tuning, not
// fixed law; override them per deployment via config.yaml or NETSENTRY_ env.
type Config struct {
	Port         int    `mapstructure:"port"`
	DatabasePath string `mapstructure:"database_path"`

	// Redis summary cache; empty addr disables caching entirely
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	CacheTTLSec   int    `mapstructure:"cache_ttl_sec"`

	// Detection engine
	LookbackHours      int     `mapstructure:"lookback_hours"`
	ZScoreThreshold    float64 `mapstructure:"zscore_threshold"`
	ZScoreHigh         float64 `mapstructure:"zscore_high"`
	MovingWindow       int     `mapstructure:"moving_window"`
	MovingThreshold    float64 `mapstructure:"moving_threshold"`
	MovingHigh         float64 `mapstructure:"moving_high"`
	Contamination      float64 `mapstructure:"contamination"`
	ModelScoreHigh     float64 `mapstructure:"model_score_high"`
	MinZScoreSamples   int     `mapstructure:"min_zscore_samples"`
	MinModelSamples    int     `mapstructure:"min_model_samples"`
	DedupWindowMinutes int     `mapstructure:"dedup_window_minutes"`

	// Scan scheduler
	ScanIntervalSec      int `mapstructure:"scan_interval_sec"`
	MaxConsecutiveErrors int `mapstructure:"max_consecutive_errors"`

	// Reachability probing
	PingIntervalSec   int `mapstructure:"ping_interval_sec"`
	PingTimeoutMillis int `mapstructure:"ping_timeout_millis"`

	// Auth
	JWTSecret      string `mapstructure:"jwt_secret"`
	TokenExpiryHrs int    `mapstructure:"token_expiry_hrs"`
}

// Load reads config.yaml (working dir or /etc/netsentry) and NETSENTRY_
// environment variables over the built-in defaults
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/netsentry/")
	viper.AddConfigPath(".")

	viper.SetDefault("port", 5000)
	viper.SetDefault("database_path", "./monitor.db")
	viper.SetDefault("redis_addr", "")
	viper.SetDefault("redis_password", "")
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("cache_ttl_sec", 30)

	viper.SetDefault("lookback_hours", 24)
	viper.SetDefault("zscore_threshold", 3.0)
	viper.SetDefault("zscore_high", 4.0)
	viper.SetDefault("moving_window", 10)
	viper.SetDefault("moving_threshold", 2.0)
	viper.SetDefault("moving_high", 3.0)
	viper.SetDefault("contamination", 0.1)
	viper.SetDefault("model_score_high", -0.5)
	viper.SetDefault("min_zscore_samples", 10)
	viper.SetDefault("min_model_samples", 50)
	viper.SetDefault("dedup_window_minutes", 5)

	viper.SetDefault("scan_interval_sec", 60)
	viper.SetDefault("max_consecutive_errors", 5)

	viper.SetDefault("ping_interval_sec", 5)
	viper.SetDefault("ping_timeout_millis", 1000)

	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("token_expiry_hrs", 24*90)

	viper.SetEnvPrefix("NETSENTRY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file; defaults plus env vars apply
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Lookback returns the detection lookback window as a duration
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// DedupWindow returns the alert suppression window as a duration
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowMinutes) * time.Minute
}

// ScanInterval returns the scheduler period as a duration
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSec) * time.Second
}
