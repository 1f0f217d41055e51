package port

import (
	"context"

	"farm-assistant/internal/domain/entity"
)

// DiseaseLookup справочник болезней
type DiseaseLookup interface {
	// Lookup ищет сведения по метке, entity.ErrMetadataNotFound если ничего не подошло
	Lookup(ctx context.Context, label string) (*entity.DiseaseInfo, error)

	// All возвращает весь справочник в порядке загрузки
	All(ctx context.Context) []entity.DiseaseEntry
}
