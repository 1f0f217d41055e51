package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/logger"
)

// DetectionService диагностирует болезни по фото листа и ведёт журнал.
type DetectionService struct {
	lggr       logger.Logger
	decoder    port.ImageDecoder
	classifier port.DiseaseClassifier
	lookup     port.DiseaseLookup
	images     port.ImageStore
	history    port.HistoryRepository
	observer   port.DetectionObserver

	now   func() time.Time
	newID func() string
}

// DetectionDeps: зависимости сервиса диагностики.
type DetectionDeps struct {
	Decoder    port.ImageDecoder
	Classifier port.DiseaseClassifier
	Lookup     port.DiseaseLookup
	Images     port.ImageStore
	History    port.HistoryRepository
	Observer   port.DetectionObserver // необязателен
}

// NewDetectionService создаёт сервис диагностики.
func NewDetectionService(lggr logger.Logger, deps DetectionDeps) *DetectionService {
	return &DetectionService{
		lggr:       lggr.Named("detection"),
		decoder:    deps.Decoder,
		classifier: deps.Classifier,
		lookup:     deps.Lookup,
		images:     deps.Images,
		history:    deps.History,
		observer:   deps.Observer,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Classify декодирует изображение, классифицирует его и добавляет запись в журнал.
// Наружу выходят только ошибки декодирования и недоступности модели:
// сохранение картинки и журнала выполняется по возможности.
func (s *DetectionService) Classify(ctx context.Context, data []byte) (rec *entity.DetectionRecord, err error) {
	defer func() {
		if s.observer == nil {
			return
		}
		if err != nil {
			s.observer.ObserveDetection("", 0, err)
			return
		}
		s.observer.ObserveDetection(rec.Disease, rec.Confidence, nil)
	}()

	img, err := s.decoder.Decode(data)
	if err != nil {
		if !errors.Is(err, entity.ErrImageDecode) {
			err = fmt.Errorf("%w: %w", entity.ErrImageDecode, err)
		}
		return nil, err
	}

	id := s.newID()
	imageURL, err := s.images.Save(ctx, id, data)
	if err != nil {
		s.lggr.Warnw("Failed to save uploaded image", "id", id, "err", err)
		imageURL = ""
	}

	pred, err := s.classifier.Classify(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	info, err := s.lookup.Lookup(ctx, pred.Label)
	if err != nil {
		if !errors.Is(err, entity.ErrMetadataNotFound) {
			s.lggr.Errorw("Disease lookup failed", "label", pred.Label, "err", err)
		}
		placeholder := entity.PlaceholderDiseaseInfo()
		info = &placeholder
	}

	rec = &entity.DetectionRecord{
		ID:           id,
		Timestamp:    s.now().UTC(),
		ImageURL:     imageURL,
		Disease:      pred.Label,
		Confidence:   pred.Confidence,
		DiseaseInfo:  *info,
		Alternatives: pred.Alternatives(),
	}

	if err := s.history.Append(ctx, rec); err != nil {
		s.lggr.Errorw("Failed to save detection history", "id", id, "err", err)
	}

	s.lggr.Infow("Disease detected", "id", id, "disease", rec.Disease, "confidence", rec.Confidence)
	return rec, nil
}

// History возвращает все диагностики, старые первыми.
func (s *DetectionService) History(ctx context.Context) ([]entity.DetectionRecord, error) {
	records, err := s.history.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detection history: %w", err)
	}
	return records, nil
}

// Diseases возвращает справочник болезней.
func (s *DetectionService) Diseases(ctx context.Context) []entity.DiseaseEntry {
	return s.lookup.All(ctx)
}
