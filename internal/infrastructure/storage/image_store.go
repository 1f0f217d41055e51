package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"farm-assistant/internal/domain/port"
)

// DetectionsURLPrefix: публичный путь, по которому раздаются изображения.
const DetectionsURLPrefix = "/detections/"

// FSImageStore сохраняет загруженные изображения в каталог как <id>.jpg.
type FSImageStore struct {
	dir string
}

// NewFSImageStore создаёт хранилище в каталоге dir
func NewFSImageStore(dir string) *FSImageStore {
	return &FSImageStore{dir: dir}
}

// Dir: каталог с изображениями
func (s *FSImageStore) Dir() string { return s.dir }

// Save записывает байты как есть и возвращает URL вида /detections/<id>.jpg
func (s *FSImageStore) Save(ctx context.Context, id string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" || filepath.Base(id) != id {
		return "", fmt.Errorf("invalid image id %q", id)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create detections dir: %w", err)
	}

	name := id + ".jpg"
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return DetectionsURLPrefix + name, nil
}

var _ port.ImageStore = (*FSImageStore)(nil)
