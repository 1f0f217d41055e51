package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/logger"
)

// FileHistory хранит журнал одним JSON-массивом в файле.
// Отсутствующий или повреждённый файл читается как пустой журнал. Перед
// записью повреждённый файл переносится в <path>.corrupt-<время>, а при
// ошибке чтения запись не выполняется.
type FileHistory struct {
	lggr logger.Logger
	path string
	mu   sync.Mutex
}

// NewFileHistory создаёт журнал в файле path
func NewFileHistory(lggr logger.Logger, path string) *FileHistory {
	return &FileHistory{lggr: lggr.Named("history"), path: path}
}

// Append дописывает запись: чтение, добавление и атомарная замена файла.
func (h *FileHistory) Append(ctx context.Context, record *entity.DetectionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	records, err := h.load()
	switch {
	case errors.Is(err, errCorruptHistory):
		if err := h.quarantine(); err != nil {
			return fmt.Errorf("%w: %w", entity.ErrHistoryPersist, err)
		}
		records = nil
	case err != nil:
		return fmt.Errorf("%w: %w", entity.ErrHistoryPersist, err)
	}
	records = append(records, *record)

	if err := h.write(records); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrHistoryPersist, err)
	}
	return nil
}

// List возвращает записи, старые первыми
func (h *FileHistory) List(ctx context.Context) ([]entity.DetectionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	records, err := h.load()
	if err != nil {
		h.lggr.Warnw("Failed to read history, returning empty", "path", h.path, "err", err)
		return []entity.DetectionRecord{}, nil
	}
	return records, nil
}

var errCorruptHistory = errors.New("history file is corrupt")

// load читает журнал; отсутствующий файл означает пустой журнал.
func (h *FileHistory) load() ([]entity.DetectionRecord, error) {
	raw, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []entity.DetectionRecord{}, nil
		}
		return nil, err
	}

	var records []entity.DetectionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptHistory, err)
	}
	if records == nil {
		records = []entity.DetectionRecord{}
	}
	return records, nil
}

// quarantine откладывает повреждённый файл, чтобы новая запись его не затёрла.
func (h *FileHistory) quarantine() error {
	backup := fmt.Sprintf("%s.corrupt-%s", h.path, time.Now().UTC().Format("20060102T150405.000000000"))
	if err := os.Rename(h.path, backup); err != nil {
		return err
	}
	h.lggr.Warnw("History file is corrupt, moved aside", "path", h.path, "backup", backup)
	return nil
}

func (h *FileHistory) write(records []entity.DetectionRecord) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(h.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), h.path)
}

var _ port.HistoryRepository = (*FileHistory)(nil)
