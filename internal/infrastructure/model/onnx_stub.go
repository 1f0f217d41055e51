//go:build !onnx

package model

import (
	"context"
	"errors"

	"farm-assistant/internal/infrastructure/vision"
)

// ONNXAvailable сообщает, собран ли бинарник с onnxruntime.
const ONNXAvailable = false

// ONNXProvider без тега onnx всегда возвращает ошибку.
type ONNXProvider struct {
	ModelPath    string
	MetadataPath string
	Registry     vision.Registry
}

func (p *ONNXProvider) Name() string { return "onnx" }

func (p *ONNXProvider) Provide(context.Context) (*Model, error) {
	return nil, errors.New("onnx build tag is not enabled")
}

func (p *ONNXProvider) Close() error { return nil }
