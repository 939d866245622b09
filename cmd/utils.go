package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"pii-redactor/internal/config"
	"pii-redactor/internal/core"
	"pii-redactor/internal/extract"
	"pii-redactor/internal/storage"
)

// LoadConfig loads the config, optionally from an env file, and installs the
// default slog handler at the configured level. verbose forces debug logging.
func LoadConfig(envFile string, verbose bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, err
	}

	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return cfg, nil
}

type Engine struct {
	Redactor *core.Redactor
	Storage  *storage.Router

	classifier core.EntityClassifier
	onnx       bool
}

func (e *Engine) Close() {
	e.classifier.Release()
	if e.onnx {
		if err := core.DestroyOnnxRuntime(); err != nil {
			slog.Error("error destroying onnx env", "error", err)
		}
	}
}

func newRemoteStorage(ctx context.Context, cfg *config.Config) storage.Provider {
	s3p, err := storage.NewS3Provider(ctx, storage.S3ProviderConfig{
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		slog.Warn("s3 storage unavailable, s3:// paths will be rejected", "error", err)
		return nil
	}
	return s3p
}

// NewEngine wires the classifier, storage and extractor named by cfg into a
// Redactor.
func NewEngine(ctx context.Context, cfg *config.Config) (*Engine, error) {
	onnx := core.ClassifierType(cfg.ClassifierType) == core.OnnxClassifier
	if onnx {
		if err := core.InitOnnxRuntime(cfg.OnnxRuntimeDylib); err != nil {
			return nil, fmt.Errorf("could not init ONNX Runtime: %w", err)
		}
	}

	classifier, err := core.LoadClassifier(cfg.ClassifierType, core.ClassifierOptions{
		URL:      cfg.ClassifierURL,
		Timeout:  cfg.ClassifierTimeout,
		ModelDir: cfg.OnnxModelDir,
	})
	if err != nil {
		return nil, err
	}

	router := storage.NewRouter(newRemoteStorage(ctx, cfg))

	redactor, err := core.NewRedactor(classifier, extract.NewExtractor(router, cfg.MaxFileSizeMB), router)
	if err != nil {
		classifier.Release()
		return nil, err
	}

	slog.Info("redaction engine ready", "classifier", cfg.ClassifierType)

	return &Engine{Redactor: redactor, Storage: router, classifier: classifier, onnx: onnx}, nil
}
