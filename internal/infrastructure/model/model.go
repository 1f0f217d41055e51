// Package model хранит и загружает классификатор болезней растений.
package model

import (
	"context"
	"errors"
	"fmt"
	"image"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/infrastructure/ml"
)

// maxTopK: сколько лучших меток возвращается вместе с предсказанием.
const maxTopK = 3

// Classifier возвращает распределение вероятностей по классам.
type Classifier interface {
	PredictProba(sample []float64) ([]float64, error)
}

// Model: загруженная модель: классификатор, метки и экстрактор признаков.
type Model struct {
	Labels     []string
	Extractor  port.FeatureExtractor
	Classifier Classifier
	Source     string // провайдер, который её создал
}

// Predict классифицирует готовый вектор признаков.
func (m *Model) Predict(vec entity.FeatureVector) (*entity.Prediction, error) {
	proba, err := m.Classifier.PredictProba(vec)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(proba) != len(m.Labels) {
		return nil, fmt.Errorf("classifier returned %d probabilities for %d labels", len(proba), len(m.Labels))
	}

	top := ml.TopK(proba, min(maxTopK, len(m.Labels)))
	topK := make([]entity.LabelScore, len(top))
	for i, idx := range top {
		topK[i] = entity.LabelScore{Label: m.Labels[idx], Confidence: percent(proba[idx])}
	}

	return &entity.Prediction{
		Label:      topK[0].Label,
		Confidence: topK[0].Confidence,
		TopK:       topK,
	}, nil
}

// Classify реализует port.DiseaseClassifier для одной модели.
func (m *Model) Classify(ctx context.Context, img image.Image) (*entity.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Extractor == nil {
		return nil, errors.New("model has no feature extractor")
	}
	return m.Predict(m.Extractor.Extract(img))
}

func percent(p float64) float64 {
	return min(max(p*100, 0), 100)
}

var _ port.DiseaseClassifier = (*Model)(nil)
