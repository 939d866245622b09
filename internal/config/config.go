package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ClassifierType    string        `env:"CLASSIFIER_TYPE" envDefault:"none"`
	ClassifierURL     string        `env:"CLASSIFIER_URL"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"10s"`
	OnnxModelDir      string        `env:"ONNX_MODEL_DIR"`
	OnnxRuntimeDylib  string        `env:"ONNX_RUNTIME_DYLIB"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	Workers       int    `env:"WORKERS" envDefault:"4"`
	MaxFileSizeMB int    `env:"MAX_FILE_SIZE_MB" envDefault:"50"`
	Port          int    `env:"PORT" envDefault:"8001"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads the process environment, after loading envFile into it if
// one is given.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		slog.Info("loading env from file", "path", envFile)
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("error loading env file '%s': %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.S3EndpointURL != "" && (cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "") {
		slog.Warn("S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing")
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.ClassifierType {
	case "none":
	case "remote":
		if cfg.ClassifierURL == "" {
			return fmt.Errorf("CLASSIFIER_URL must be set when CLASSIFIER_TYPE=remote")
		}
	case "onnx":
		if cfg.OnnxModelDir == "" {
			return fmt.Errorf("ONNX_MODEL_DIR must be set when CLASSIFIER_TYPE=onnx")
		}
	default:
		return fmt.Errorf("invalid CLASSIFIER_TYPE '%s', must be one of none, remote, onnx", cfg.ClassifierType)
	}

	if cfg.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", cfg.Workers)
	}
	if cfg.MaxFileSizeMB < 1 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be at least 1, got %d", cfg.MaxFileSizeMB)
	}
	return nil
}

func (cfg *Config) SlogLevel() slog.Level {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
