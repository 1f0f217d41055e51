package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/infrastructure/ml"
	"farm-assistant/internal/logger"
)

// CropFeatures: имя схемы признаков [температура, влажность, сезон, регион].
const CropFeatures = "crop-weather-v1"

// CropRecommender рекомендует культуры лесом, обученным на диапазонах справочника.
// Модель загружается из Path или обучается при первом обращении.
type CropRecommender struct {
	lggr    logger.Logger
	catalog port.CropCatalog
	path    string

	Samples int   // образцов на культуру, 20 по умолчанию
	Seed    int64 // 42 по умолчанию

	mu     sync.Mutex
	bundle *Bundle
	crops  map[string]entity.Crop
}

// NewCropRecommender создаёт рекомендатель. Пустой path: модель только в памяти.
func NewCropRecommender(lggr logger.Logger, catalog port.CropCatalog, path string) *CropRecommender {
	return &CropRecommender{
		lggr:    lggr.Named("crop-model"),
		catalog: catalog,
		path:    path,
		Samples: 20,
		Seed:    42,
	}
}

// Open загружает сохранённую модель либо обучает и сохраняет новую.
func (r *CropRecommender) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open(ctx)
}

func (r *CropRecommender) open(ctx context.Context) error {
	if r.bundle != nil {
		return nil
	}

	crops := make(map[string]entity.Crop)
	for _, c := range r.catalog.Crops() {
		if _, ok := crops[c.Name]; !ok {
			crops[c.Name] = c
		}
	}
	if len(crops) == 0 {
		return errors.New("crop catalog is empty")
	}

	if r.path != "" {
		b, err := LoadBundle(r.path)
		switch {
		case err == nil && b.Extractor == CropFeatures && knowsAll(crops, b.Labels):
			r.lggr.Infow("Crop recommendation model loaded", "path", r.path)
			r.bundle, r.crops = b, crops
			return nil
		case err == nil:
			r.lggr.Warnw("Stored crop model does not match the catalog, retraining", "path", r.path)
		case !errors.Is(err, os.ErrNotExist):
			r.lggr.Warnw("Failed to load crop model, retraining", "path", r.path, "err", err)
		}
	}

	b, err := r.train(ctx)
	if err != nil {
		return err
	}
	if r.path != "" {
		if err := SaveBundle(r.path, b); err != nil {
			r.lggr.Warnw("Failed to save crop model", "path", r.path, "err", err)
		}
	}
	r.bundle, r.crops = b, crops
	return nil
}

func (r *CropRecommender) train(ctx context.Context) (*Bundle, error) {
	rng := newRand(r.Seed)
	var (
		labels []string
		data   [][]float64
		target []int
		seen   = make(map[string]bool)
	)
	for _, c := range r.catalog.Crops() {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		class := len(labels)
		labels = append(labels, c.Name)
		for s, ns := 0, orDefault(r.Samples, 20); s < ns; s++ {
			data = append(data, []float64{
				uniform(rng.Float64(), c.TemperatureMin, c.TemperatureMax),
				uniform(rng.Float64(), c.HumidityMin, c.HumidityMax),
				c.GrowingSeason.Code(),
				c.Region.Code(),
			})
			target = append(target, class)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trainX, trainY, testX, testY := ml.TrainTestSplit(data, target, 0.2, r.Seed)
	pipeline := ml.NewPipeline(ml.WithTrees(100), ml.WithMaxDepth(10), ml.WithSeed(r.Seed))
	if err := pipeline.Fit(trainX, trainY, len(labels)); err != nil {
		return nil, fmt.Errorf("fit crop model: %w", err)
	}
	if acc, err := pipeline.Score(testX, testY); err == nil {
		r.lggr.Infow("Crop recommendation model trained", "crops", len(labels), "accuracy", acc)
	}
	return NewBundle(CropFeatures, labels, pipeline), nil
}

// Recommend возвращает до limit культур по убыванию вероятности.
func (r *CropRecommender) Recommend(ctx context.Context, w entity.Weather, season entity.Season, region entity.Region, limit int) ([]entity.CropRecommendation, error) {
	r.mu.Lock()
	if err := r.open(ctx); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("crop model unavailable: %w", err)
	}
	b, crops := r.bundle, r.crops
	r.mu.Unlock()

	proba, err := b.Pipeline.PredictProba([]float64{w.Temperature, w.Humidity, season.Code(), region.Code()})
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 5
	}
	top := ml.TopK(proba, limit)
	recs := make([]entity.CropRecommendation, 0, len(top))
	for _, idx := range top {
		crop, ok := crops[b.Labels[idx]]
		if !ok {
			continue
		}
		recs = append(recs, entity.NewCropRecommendation(crop, Round2(proba[idx]*100)))
	}
	return recs, nil
}

// Round2 округляет до двух знаков после запятой.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func uniform(u, lo, hi float64) float64 {
	return lo + u*(hi-lo)
}

func knowsAll(crops map[string]entity.Crop, labels []string) bool {
	for _, l := range labels {
		if _, ok := crops[l]; !ok {
			return false
		}
	}
	return true
}

var _ port.CropRecommender = (*CropRecommender)(nil)
