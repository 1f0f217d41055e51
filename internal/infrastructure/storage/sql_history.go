package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
)

const (
	schemaDetectionHistory = `
		CREATE TABLE IF NOT EXISTS detection_history (
			seq      BIGSERIAL PRIMARY KEY,
			id       TEXT,
			payload  TEXT
		);`
	queryInsertDetection = `
		INSERT INTO detection_history (id, payload)
		VALUES ($1, $2)`
	queryAllDetections = `
		SELECT payload FROM detection_history
		ORDER BY seq ASC`
)

// SQLHistory хранит журнал в таблице detection_history.
// В работе используется lib/pq, в тестах: ramsql.
type SQLHistory struct {
	db *sql.DB
}

// NewSQLHistory создаёт таблицу при необходимости
func NewSQLHistory(ctx context.Context, db *sql.DB) (*SQLHistory, error) {
	if _, err := db.ExecContext(ctx, schemaDetectionHistory); err != nil {
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &SQLHistory{db: db}, nil
}

// Append добавляет запись в конец журнала
func (h *SQLHistory) Append(ctx context.Context, record *entity.DetectionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrHistoryPersist, err)
	}
	if _, err := h.db.ExecContext(ctx, queryInsertDetection, record.ID, string(payload)); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrHistoryPersist, err)
	}
	return nil
}

// List возвращает записи в порядке вставки
func (h *SQLHistory) List(ctx context.Context) ([]entity.DetectionRecord, error) {
	rows, err := h.db.QueryContext(ctx, queryAllDetections)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []entity.DetectionRecord{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		var r entity.DetectionRecord
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("failed to decode history row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close закрывает соединение с базой
func (h *SQLHistory) Close() error {
	return h.db.Close()
}

var _ port.HistoryRepository = (*SQLHistory)(nil)
