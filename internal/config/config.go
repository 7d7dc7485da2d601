package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config 应用配置
// 来源: 环境变量, 或 CONFIG_FILE 指定的 YAML 文件 (环境变量优先)
type Config struct {
	// Server
	Port            string        `yaml:"port" env:"PORT" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat       string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`

	// Storage
	DBPath         string `yaml:"db_path" env:"DB_PATH" env-default:"./data/safewalk.db"`
	StorageRetries int    `yaml:"storage_retries" env:"STORAGE_RETRIES" env-default:"3"`

	// Auth. The secret is only read from the environment.
	AuthEnabled bool          `yaml:"auth_enabled" env:"AUTH_ENABLED" env-default:"false"`
	JWTSecret   string        `yaml:"-" env:"JWT_SECRET"`
	JWTTTL      time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" env-default:"168h"`

	// Domain
	MaxPointsPerUser int     `yaml:"max_points_per_user" env:"MAX_POINTS_PER_USER" env-default:"10"`
	GridSizeDeg      float64 `yaml:"grid_size_deg" env:"GRID_SIZE_DEG" env-default:"0.01"`

	// Rate limiting per client IP
	RateLimitMaxRequests int           `yaml:"rate_limit_max_requests" env:"RATE_LIMIT_MAX_REQUESTS" env-default:"100"`
	RateLimitWindow      time.Duration `yaml:"rate_limit_window" env:"RATE_LIMIT_WINDOW" env-default:"15m"`
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	if c.MaxPointsPerUser < 1 {
		errs = append(errs, errors.New("MAX_POINTS_PER_USER must be at least 1"))
	}
	if c.GridSizeDeg <= 0 {
		errs = append(errs, errors.New("GRID_SIZE_DEG must be positive"))
	}
	if c.RateLimitMaxRequests < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_REQUESTS must be at least 1"))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.StorageRetries < 0 {
		errs = append(errs, errors.New("STORAGE_RETRIES must not be negative"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.AuthEnabled {
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_ENABLED is true"))
		}
		if c.JWTTTL <= 0 {
			errs = append(errs, errors.New("JWT_TTL must be positive"))
		}
	}

	return errors.Join(errs...)
}
