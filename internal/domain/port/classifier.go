package port

import (
	"context"
	"image"

	"farm-assistant/internal/domain/entity"
)

// FeatureExtractor превращает изображение в вектор признаков фиксированной длины
type FeatureExtractor interface {
	// Name: имя, под которым экстрактор сохраняется в бандле модели
	Name() string

	// Len: длина вектора, который возвращает Extract
	Len() int

	// Extract чистая функция, одно изображение даёт один и тот же вектор
	Extract(img image.Image) entity.FeatureVector
}

// DiseaseClassifier классифицирует изображение листа
type DiseaseClassifier interface {
	// Classify извлекает признаки и возвращает предсказание
	Classify(ctx context.Context, img image.Image) (*entity.Prediction, error)
}

// ImageDecoder превращает загруженные байты в изображение
type ImageDecoder interface {
	// Decode возвращает ошибку, обёрнутую entity.ErrImageDecode, для не-изображений
	Decode(data []byte) (image.Image, error)
}

// DetectionObserver получает итог каждой диагностики, например для метрик
type DetectionObserver interface {
	ObserveDetection(label string, confidence float64, err error)
}
