package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"farm-assistant/internal/infrastructure/vision"
)

// ONNXMetadata описывает экспортированную модель: формы тензоров и классы.
type ONNXMetadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	Extractor   string   `json:"extractor"` // имя экстрактора признаков, color-stats-v1 по умолчанию
	Softmax     bool     `json:"softmax"`   // выход: логиты
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
}

// LoadONNXMetadata читает и проверяет метаданные модели.
func LoadONNXMetadata(path string) (*ONNXMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta ONNXMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(meta.Classes) == 0 {
		return nil, errors.New("metadata has no classes")
	}
	if len(meta.InputShape) == 0 || len(meta.OutputShape) == 0 {
		return nil, errors.New("metadata has no tensor shapes")
	}
	if n := shapeSize(meta.OutputShape); n != int64(len(meta.Classes)) {
		return nil, fmt.Errorf("output shape holds %d values for %d classes", n, len(meta.Classes))
	}
	if meta.Extractor == "" {
		meta.Extractor = vision.ColorStatsName
	}
	if meta.InputName == "" {
		meta.InputName = "input"
	}
	if meta.OutputName == "" {
		meta.OutputName = "output"
	}
	return &meta, nil
}

func shapeSize(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	hi := logits[0]
	for _, v := range logits[1:] {
		hi = max(hi, v)
	}
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
