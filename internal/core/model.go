package core

import (
	"context"
	"fmt"
	"pii-redactor/internal/core/types"
	"time"
)

// ClassifierType represents the kind of entity classifier backing a Redactor
type ClassifierType string

// Available classifier types
const (
	NoneClassifier   ClassifierType = "none"
	RemoteClassifier ClassifierType = "remote"
	OnnxClassifier   ClassifierType = "onnx"
)

// EntityClassifier labels every token of a sentence with an entity category,
// or types.NoCategory. The returned slice has one label per input token.
type EntityClassifier interface {
	Classify(ctx context.Context, sentence []Token) ([]types.Category, error)

	Release()
}

type ClassifierOptions struct {
	URL      string
	Timeout  time.Duration
	ModelDir string
}

type ClassifierLoader func(ClassifierOptions) (EntityClassifier, error)

func NewClassifierLoaders() map[ClassifierType]ClassifierLoader {
	return map[ClassifierType]ClassifierLoader{
		NoneClassifier: func(_ ClassifierOptions) (EntityClassifier, error) {
			return NoopClassifier{}, nil
		},
		RemoteClassifier: func(opts ClassifierOptions) (EntityClassifier, error) {
			classifier, err := NewRemoteEntityClassifier(opts.URL, opts.Timeout)
			if err != nil {
				return nil, err
			}
			return classifier, nil
		},
		OnnxClassifier: func(opts ClassifierOptions) (EntityClassifier, error) {
			classifier, err := LoadOnnxClassifier(opts.ModelDir)
			if err != nil {
				return nil, err
			}
			return classifier, nil
		},
	}
}

func LoadClassifier(classifierType string, opts ClassifierOptions) (EntityClassifier, error) {
	loader, ok := NewClassifierLoaders()[ClassifierType(classifierType)]
	if !ok {
		return nil, fmt.Errorf("unknown classifier type '%s'", classifierType)
	}
	classifier, err := loader(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s classifier: %w", classifierType, err)
	}
	return classifier, nil
}

// NoopClassifier never labels anything, which reduces redaction to the
// pattern matchers.
type NoopClassifier struct{}

func (NoopClassifier) Classify(_ context.Context, sentence []Token) ([]types.Category, error) {
	return make([]types.Category, len(sentence)), nil
}

func (NoopClassifier) Release() {}
