package model

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/logger"
)

// Store держит активную модель. Open перебирает провайдеров по порядку,
// первый успешный побеждает. После Open модель только читается.
type Store struct {
	lggr      logger.Logger
	providers []Provider

	mu     sync.RWMutex
	active *Model
}

// NewStore создаёт хранилище с упорядоченным списком провайдеров.
func NewStore(lggr logger.Logger, providers ...Provider) *Store {
	return &Store{
		lggr:      lggr.Named("model"),
		providers: providers,
	}
}

// Open загружает модель. Если не отработал ни один провайдер,
// возвращается entity.ErrModelUnavailable вместе со всеми ошибками.
func (s *Store) Open(ctx context.Context) error {
	var errs []error
	for _, p := range s.providers {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := p.Provide(ctx)
		if err != nil {
			s.lggr.Warnw("Model provider failed", "provider", p.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		s.mu.Lock()
		s.active = m
		s.mu.Unlock()
		s.lggr.Infow("Model loaded", "provider", p.Name(), "classes", len(m.Labels), "extractor", m.Extractor.Name())
		return nil
	}
	return fmt.Errorf("%w: %w", entity.ErrModelUnavailable, errors.Join(errs...))
}

// Model возвращает активную модель или nil до Open.
func (s *Store) Model() *Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Classify реализует port.DiseaseClassifier.
func (s *Store) Classify(ctx context.Context, img image.Image) (*entity.Prediction, error) {
	m := s.Model()
	if m == nil {
		return nil, fmt.Errorf("%w: store is not open", entity.ErrModelUnavailable)
	}
	return m.Classify(ctx, img)
}

// Close освобождает ресурсы провайдеров (например, сессию ONNX).
func (s *Store) Close() error {
	var errs []error
	for _, p := range s.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", p.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

var _ port.DiseaseClassifier = (*Store)(nil)
