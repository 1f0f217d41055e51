//go:build onnx

package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"farm-assistant/internal/infrastructure/vision"
)

// ONNXAvailable сообщает, собран ли бинарник с onnxruntime.
const ONNXAvailable = true

// ONNXProvider загружает классификатор из ONNX-модели и JSON-метаданных.
type ONNXProvider struct {
	ModelPath    string
	MetadataPath string
	Registry     vision.Registry

	clf *onnxClassifier
}

func (p *ONNXProvider) Name() string { return "onnx" }

func (p *ONNXProvider) Provide(ctx context.Context) (*Model, error) {
	if p.ModelPath == "" || p.MetadataPath == "" {
		return nil, errors.New("onnx model is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta, err := LoadONNXMetadata(p.MetadataPath)
	if err != nil {
		return nil, err
	}
	extractor, err := p.Registry.Resolve(meta.Extractor)
	if err != nil {
		return nil, err
	}
	if n := shapeSize(meta.InputShape); n != int64(extractor.Len()) {
		return nil, fmt.Errorf("onnx input expects %d features, extractor %q produces %d", n, meta.Extractor, extractor.Len())
	}
	clf, err := newONNXClassifier(p.ModelPath, meta)
	if err != nil {
		return nil, err
	}
	p.clf = clf

	return &Model{
		Labels:     meta.Classes,
		Extractor:  extractor,
		Classifier: clf,
		Source:     p.Name(),
	}, nil
}

// Close освобождает тензоры, сессию и окружение onnxruntime.
func (p *ONNXProvider) Close() error {
	if p.clf == nil {
		return nil
	}
	p.clf.close()
	p.clf = nil
	return nil
}

// onnxClassifier переиспользует одни тензоры, поэтому вызовы сериализуются.
type onnxClassifier struct {
	mu      sync.Mutex
	meta    *ONNXMetadata
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func newONNXClassifier(modelPath string, meta *ONNXMetadata) (*onnxClassifier, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		input.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxClassifier{meta: meta, session: session, input: input, output: output}, nil
}

func (c *onnxClassifier) PredictProba(sample []float64) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	in := c.input.GetData()
	if len(sample) != len(in) {
		return nil, fmt.Errorf("expected %d features, got %d", len(in), len(sample))
	}
	for i, v := range sample {
		in[i] = float32(v)
	}
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := c.output.GetData()
	proba := make([]float64, len(out))
	for i, v := range out {
		proba[i] = float64(v)
	}
	if c.meta.Softmax {
		proba = softmax(proba)
	}
	return proba, nil
}

func (c *onnxClassifier) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input.Destroy()
	c.output.Destroy()
	c.session.Destroy()
	ort.DestroyEnvironment()
}
