package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port" toml:"port"`
	Environment string `yaml:"environment" toml:"environment"`
	DatabaseURL string `yaml:"database_url" toml:"database_url"`
	CORSOrigins string `yaml:"cors_origins" toml:"cors_origins"`

	// Uploads
	UploadDir   string `yaml:"upload_dir" toml:"upload_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb" toml:"max_upload_mb"`

	// Sessions
	JWTSecret  string        `yaml:"jwt_secret" toml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl" toml:"session_ttl"`
	JWKSURL    string        `yaml:"jwks_url" toml:"jwks_url"` // Optional external identity provider

	// Optional infrastructure; empty means in-process fallback
	RedisAddr     string `yaml:"redis_addr" toml:"redis_addr"`
	RedisPassword string `yaml:"redis_password" toml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" toml:"redis_db"`
	RabbitMQURL   string `yaml:"rabbitmq_url" toml:"rabbitmq_url"`
	RabbitMQQueue string `yaml:"rabbitmq_queue" toml:"rabbitmq_queue"`

	LogDir      string `yaml:"log_dir" toml:"log_dir"`
	LogMaxFiles int    `yaml:"log_max_files" toml:"log_max_files"`
}

// Load builds the configuration from defaults, an optional config file
// (CONFIG_FILE, default config.yaml; YAML, or TOML for a .toml name) and
// finally environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	path := getEnv("CONFIG_FILE", "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeFile(path, data, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	overrideByEnv(cfg)
	return cfg, nil
}

func decodeFile(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func defaults() *Config {
	return &Config{
		Port:          "5000",
		Environment:   "dev",
		CORSOrigins:   "http://localhost:3000,http://localhost:5173",
		UploadDir:     "uploads",
		MaxUploadMB:   DefaultMaxUploadMB,
		SessionTTL:    24 * time.Hour,
		RabbitMQQueue: "pdf.uploaded",
		LogMaxFiles:   10,
	}
}

func overrideByEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.MaxUploadMB = getEnvAsInt("MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.SessionTTL = getEnvAsDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.JWKSURL = getEnv("JWKS_URL", cfg.JWKSURL)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvAsInt("REDIS_DB", cfg.RedisDB)
	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQQueue = getEnv("RABBITMQ_QUEUE", cfg.RabbitMQQueue)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.LogMaxFiles = getEnvAsInt("LOG_MAX_FILES", cfg.LogMaxFiles)
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}
	if c.JWTSecret == "" {
		if c.Environment == "prod" {
			return errors.New("JWT_SECRET must be set in prod")
		}
		c.JWTSecret = "dev-only-secret"
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// AllowedOrigins splits CORSOrigins into a trimmed list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}
