package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	SES           SESConfig           `yaml:"ses"`
	Storage       StorageConfig       `yaml:"storage"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Notifications NotificationConfig  `yaml:"notifications"`
	Redis         RedisConfig         `yaml:"redis"`
	Worker        WorkerConfig        `yaml:"worker"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// SESConfig holds AWS SES credentials and sender identity
type SESConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// StorageConfig holds S3 settings for certificate documents
type StorageConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// ExtractionConfig holds AWS Bedrock extraction settings
type ExtractionConfig struct {
	Region         string `yaml:"region"`
	ModelID        string `yaml:"model_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// NotificationConfig tunes the escalation engine
type NotificationConfig struct {
	FollowUpIntervalDays int `yaml:"follow_up_interval_days"`
	MaxFollowUps         int `yaml:"max_follow_ups"`
}

// RedisConfig holds Redis settings for the worker's distributed lock
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// WorkerConfig holds the daily sweep scheduling settings
type WorkerConfig struct {
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
	LockTTLSeconds       int `yaml:"lock_ttl_seconds"`
}

// FollowUpInterval returns the configured minimum spacing between
// follow-up emails.
func (n NotificationConfig) FollowUpInterval() time.Duration {
	return time.Duration(n.FollowUpIntervalDays) * 24 * time.Hour
}

// ExtractionTimeout returns the per-document extraction bound.
func (e ExtractionConfig) ExtractionTimeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// SweepInterval returns how often the worker wakes up.
func (w WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(w.SweepIntervalMinutes) * time.Minute
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.SES.FromName == "" {
		cfg.SES.FromName = "Compliance Team"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "coi"
	}
	if cfg.Extraction.Region == "" {
		cfg.Extraction.Region = "us-east-1"
	}
	if cfg.Extraction.ModelID == "" {
		cfg.Extraction.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Extraction.TimeoutSeconds == 0 {
		cfg.Extraction.TimeoutSeconds = 120
	}
	if cfg.Notifications.FollowUpIntervalDays == 0 {
		cfg.Notifications.FollowUpIntervalDays = 7
	}
	if cfg.Notifications.MaxFollowUps == 0 {
		cfg.Notifications.MaxFollowUps = 4
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Worker.SweepIntervalMinutes == 0 {
		cfg.Worker.SweepIntervalMinutes = 24 * 60
	}
	if cfg.Worker.LockTTLSeconds == 0 {
		cfg.Worker.LockTTLSeconds = 15 * 60
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if accessKey := os.Getenv("AWS_SES_ACCESS_KEY"); accessKey != "" {
		cfg.SES.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SES_SECRET_KEY"); secretKey != "" {
		cfg.SES.SecretKey = secretKey
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.SES.Region = region
	}
	if from := os.Getenv("SES_FROM_EMAIL"); from != "" {
		cfg.SES.FromEmail = from
	}
	if bucket := os.Getenv("STORAGE_S3_BUCKET"); bucket != "" {
		cfg.Storage.Bucket = bucket
	}
	if region := os.Getenv("STORAGE_S3_REGION"); region != "" {
		cfg.Storage.Region = region
	}
	if region := os.Getenv("BEDROCK_REGION"); region != "" {
		cfg.Extraction.Region = region
	}
	if model := os.Getenv("BEDROCK_MODEL_ID"); model != "" {
		cfg.Extraction.ModelID = model
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}

	return cfg, nil
}
