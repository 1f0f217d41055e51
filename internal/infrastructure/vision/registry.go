package vision

import (
	"fmt"

	"farm-assistant/internal/domain/port"
)

// Registry сопоставляет имя экстрактора из бандла модели с реализацией.
type Registry map[string]port.FeatureExtractor

// NewRegistry возвращает реестр со всеми встроенными экстракторами.
func NewRegistry() Registry {
	r := Registry{}
	r.Register(ColorStatsExtractor{})
	r.Register(GrayGridExtractor{})
	return r
}

// Register добавляет экстрактор под его именем.
func (r Registry) Register(e port.FeatureExtractor) {
	r[e.Name()] = e
}

// Resolve возвращает экстрактор по имени.
func (r Registry) Resolve(name string) (port.FeatureExtractor, error) {
	e, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("unknown feature extractor %q", name)
	}
	return e, nil
}
