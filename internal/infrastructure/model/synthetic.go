package model

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/infrastructure/ml"
	"farm-assistant/internal/infrastructure/vision"
	"farm-assistant/internal/logger"
)

// SyntheticProvider обучает лес на синтетических признаках и сохраняет бандл.
type SyntheticProvider struct {
	Labels   func() []string // названия болезней из каталога
	Path     string          // куда сохранить бандл, пусто: не сохранять
	Samples  int             // образцов на класс, 50 по умолчанию
	Trees    int             // 50 по умолчанию
	MaxDepth int             // 8 по умолчанию
	Seed     int64           // 42 по умолчанию
	Registry vision.Registry
	Logger   logger.Logger
}

func (p *SyntheticProvider) Name() string { return "synthetic" }

func (p *SyntheticProvider) Provide(ctx context.Context) (*Model, error) {
	b, err := p.Train(ctx)
	if err != nil {
		return nil, err
	}
	if p.Path != "" {
		if err := SaveBundle(p.Path, b); err != nil {
			p.Logger.Warnw("Failed to persist synthetic model, using it in memory", "path", p.Path, "err", err)
		} else {
			p.Logger.Infow("Synthetic model saved", "path", p.Path, "classes", len(b.Labels))
		}
	}
	return b.Model(p.Registry, p.Name())
}

// Train генерирует выборку и обучает конвейер, ничего не сохраняя.
func (p *SyntheticProvider) Train(ctx context.Context) (*Bundle, error) {
	var names []string
	if p.Labels != nil {
		names = p.Labels()
	}
	labels := DiseaseLabels(names)

	samples := orDefault(p.Samples, 50)
	seed := p.Seed
	if seed == 0 {
		seed = 42
	}

	data, target := SyntheticSamples(labels, samples, seed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pipeline := ml.NewPipeline(
		ml.WithTrees(orDefault(p.Trees, 50)),
		ml.WithMaxDepth(orDefault(p.MaxDepth, 8)),
		ml.WithSeed(seed),
	)
	if err := pipeline.Fit(data, target, len(labels)); err != nil {
		return nil, fmt.Errorf("fit synthetic model: %w", err)
	}
	p.Logger.Infow("Synthetic model trained", "classes", len(labels), "samples", len(data))
	return NewBundle(vision.ColorStatsName, labels, pipeline), nil
}

// SyntheticSamples строит n образцов на класс. Первые три признака задаются
// хешем метки, признаки 3–14: сигнатурой по ключевому слову метки
// (healthy, blight, rot), остальное: шум. Значения обрезаны до [0,1].
func SyntheticSamples(labels []string, n int, seed int64) ([][]float64, []int) {
	rng := newRand(seed)
	data := make([][]float64, 0, len(labels)*n)
	target := make([]int, 0, len(labels)*n)

	for class, label := range labels {
		h := labelSeed(label)
		sig, hasSig := signatureFor(label)
		for s := 0; s < n; s++ {
			row := make(entity.FeatureVector, entity.FeatureLength)
			row[0] = float64(h*13%100) / 100
			row[1] = float64(h*17%100) / 100
			row[2] = float64(h*19%100) / 100
			if hasSig {
				for i := 3; i < 10; i++ {
					row[i] = sig.high + rng.NormFloat64()*0.1
				}
				for i := 10; i < 15; i++ {
					row[i] = sig.low + rng.NormFloat64()*0.1
				}
			}
			for i := 15; i < len(row); i++ {
				row[i] = 0.5 + rng.NormFloat64()*0.3
			}
			for i := range row {
				row[i] = min(max(row[i]+rng.NormFloat64()*0.05, 0), 1)
			}
			data = append(data, row)
			target = append(target, class)
		}
	}
	return data, target
}

type signature struct{ high, low float64 }

func signatureFor(label string) (signature, bool) {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "healthy"):
		return signature{high: 0.8, low: 0.2}, true
	case strings.Contains(l, "blight"):
		return signature{high: 0.3, low: 0.7}, true
	case strings.Contains(l, "rot"):
		return signature{high: 0.1, low: 0.9}, true
	}
	return signature{}, false
}

// labelSeed: стабильное между запусками число 0..254 для метки.
func labelSeed(label string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(label))
	return h.Sum32() % 255
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
