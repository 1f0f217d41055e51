package port

import (
	"context"

	"farm-assistant/internal/domain/entity"
)

// CropCatalog справочник культур
type CropCatalog interface {
	Crops() []entity.Crop
}

// CropRecommender ML-модель рекомендаций культур
type CropRecommender interface {
	// Recommend возвращает до limit культур по убыванию оценки
	Recommend(ctx context.Context, w entity.Weather, season entity.Season, region entity.Region, limit int) ([]entity.CropRecommendation, error)
}
