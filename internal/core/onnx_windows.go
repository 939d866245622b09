//go:build windows

package core

import (
	"context"
	"errors"
	"pii-redactor/internal/core/types"
)

var ErrOnnxNotSupportedOnWindows = errors.New("ONNX classifiers are not supported on Windows")

type OnnxEntityClassifier struct{}

func InitOnnxRuntime(dylib string) error {
	return ErrOnnxNotSupportedOnWindows
}

func DestroyOnnxRuntime() error {
	return nil
}

func LoadOnnxClassifier(modelDir string) (*OnnxEntityClassifier, error) {
	return nil, ErrOnnxNotSupportedOnWindows
}

func (m *OnnxEntityClassifier) Classify(ctx context.Context, sentence []Token) ([]types.Category, error) {
	return nil, ErrOnnxNotSupportedOnWindows
}

func (m *OnnxEntityClassifier) Release() {
	// no-op
}
