package port

import (
	"context"

	"farm-assistant/internal/domain/entity"
)

// HistoryRepository журнал диагностик, только добавление
type HistoryRepository interface {
	// Append добавляет запись в конец журнала
	Append(ctx context.Context, record *entity.DetectionRecord) error

	// List возвращает все записи, старые первыми
	List(ctx context.Context) ([]entity.DetectionRecord, error)
}

// ImageStore хранилище загруженных изображений
type ImageStore interface {
	// Save сохраняет байты под id и возвращает публичный URL
	Save(ctx context.Context, id string, data []byte) (string, error)
}
