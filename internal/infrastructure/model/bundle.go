package model

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"farm-assistant/internal/infrastructure/ml"
	"farm-assistant/internal/infrastructure/vision"
)

// bundleVersion увеличивается при несовместимом изменении формата.
const bundleVersion = 1

// Bundle: сохраняемая единица: обученный конвейер, метки и имя экстрактора.
type Bundle struct {
	Version   int
	CreatedAt time.Time
	Extractor string
	Labels    []string
	Pipeline  *ml.Pipeline
}

// NewBundle собирает бандл текущей версии.
func NewBundle(extractor string, labels []string, p *ml.Pipeline) *Bundle {
	return &Bundle{
		Version:   bundleVersion,
		CreatedAt: time.Now().UTC(),
		Extractor: extractor,
		Labels:    append([]string(nil), labels...),
		Pipeline:  p,
	}
}

// Validate проверяет согласованность бандла.
func (b *Bundle) Validate() error {
	if b.Version != bundleVersion {
		return fmt.Errorf("unsupported bundle version %d", b.Version)
	}
	if len(b.Labels) == 0 {
		return errors.New("bundle has no labels")
	}
	if b.Pipeline == nil || b.Pipeline.Forest == nil || b.Pipeline.Scaler == nil {
		return errors.New("bundle has no classifier")
	}
	if n := b.Pipeline.Forest.NumClasses(); n != len(b.Labels) {
		return fmt.Errorf("classifier has %d classes, bundle has %d labels", n, len(b.Labels))
	}
	return nil
}

// Model превращает бандл в модель, находя экстрактор в реестре.
func (b *Bundle) Model(registry vision.Registry, source string) (*Model, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	extractor, err := registry.Resolve(b.Extractor)
	if err != nil {
		return nil, err
	}
	if n := b.Pipeline.Forest.NumFeatures(); n != extractor.Len() {
		return nil, fmt.Errorf("classifier expects %d features, extractor %q produces %d", n, b.Extractor, extractor.Len())
	}
	return &Model{
		Labels:     b.Labels,
		Extractor:  extractor,
		Classifier: b.Pipeline,
		Source:     source,
	}, nil
}

// SaveBundle атомарно записывает бандл: во временный файл и затем rename.
func SaveBundle(path string, b *Bundle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(b); err != nil {
		tmp.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename bundle: %w", err)
	}
	return nil
}

// LoadBundle читает и проверяет бандл.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bundle %s: %w", path, err)
	}
	return &b, nil
}
