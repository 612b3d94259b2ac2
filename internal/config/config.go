package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Admin      AdminConfig      `yaml:"admin"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
	Sentry     SentryConfig     `yaml:"sentry"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Moderation ModerationConfig `yaml:"moderation"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite, mysql, postgres
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"` // silent, error, warn, info
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// AdminConfig is the moderator account created when none exists
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RedisConfig for the optional retrain task queue and result pub/sub
type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ResultChannel string `yaml:"result_channel"`
}

type LogConfig struct {
	Level         string `yaml:"level"`
	RetentionDays int    `yaml:"retention_days"` // audit log retention, 0 keeps everything
}

// SentryConfig enables error reporting from the worker loops when DSN is set
type SentryConfig struct {
	DSN         string  `yaml:"dsn"`
	Environment string  `yaml:"environment"`
	SampleRate  float64 `yaml:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RateLimitConfig limits content submissions per client IP
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type ModerationConfig struct {
	PollInterval       time.Duration       `yaml:"poll_interval"`
	IdleBackoffMax     time.Duration       `yaml:"idle_backoff_max"`
	ErrorBackoff       time.Duration       `yaml:"error_backoff"`
	StuckTimeout       time.Duration       `yaml:"stuck_timeout"`
	ThresholdSchedule  string              `yaml:"threshold_schedule"`
	RetrainSchedule    string              `yaml:"retrain_schedule"`
	ImmediateRetrain   bool                `yaml:"immediate_retrain"`
	ClampThresholds    bool                `yaml:"clamp_thresholds"`
	ModelDir           string              `yaml:"model_dir"`
	ImageClassifierURL string              `yaml:"image_classifier_url"`
	ImageBoostRules    []scoring.BoostRule `yaml:"image_boost_rules"`
}

var GlobalConfig *Config

// Load reads .env (if present), then the YAML file over the defaults, then env overrides
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			DSN:      "modsentry.db",
			LogLevel: "warn",
		},
		JWT: JWTConfig{
			Secret:     "modsentry-secret-key-change-in-production",
			ExpireHour: 24,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin123",
		},
		Redis: RedisConfig{
			Enabled:       false,
			Addr:          "localhost:6379",
			DB:            0,
			ResultChannel: "moderation_results",
		},
		Log: LogConfig{
			Level:         "info",
			RetentionDays: 30,
		},
		Sentry: SentryConfig{
			Environment: "development",
			SampleRate:  1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Moderation: ModerationConfig{
			PollInterval:      500 * time.Millisecond,
			IdleBackoffMax:    5 * time.Second,
			ErrorBackoff:      5 * time.Second,
			StuckTimeout:      5 * time.Minute,
			ThresholdSchedule: "@hourly",
			RetrainSchedule:   "@every 5m",
			ImmediateRetrain:  true,
			ClampThresholds:   true,
			ModelDir:          "models",
			ImageBoostRules:   scoring.DefaultBoostRules(),
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
		c.Admin.Password = pw
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		c.Sentry.DSN = dsn
	}
	if dir := os.Getenv("MODEL_DIR"); dir != "" {
		c.Moderation.ModelDir = dir
	}
	if url := os.Getenv("IMAGE_CLASSIFIER_URL"); url != "" {
		c.Moderation.ImageClassifierURL = url
	}
	if v := os.Getenv("IMMEDIATE_RETRAIN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Moderation.ImmediateRetrain = b
		}
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	rest := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.LastIndex(rest, "@"); atIdx != -1 {
		authPart := rest[:atIdx]
		rest = rest[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(rest, "/"); slashIdx != -1 {
		if db, err := strconv.Atoi(rest[slashIdx+1:]); err == nil {
			c.Redis.DB = db
		}
		rest = rest[:slashIdx]
	}

	c.Redis.Addr = rest
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
