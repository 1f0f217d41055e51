package model

import (
	"context"
	"errors"
	"fmt"
	"os"

	"farm-assistant/internal/infrastructure/ml"
	"farm-assistant/internal/infrastructure/vision"
)

// Provider: один из способов получить модель при старте.
type Provider interface {
	Name() string
	Provide(ctx context.Context) (*Model, error)
}

// DefaultLabels: фиксированный набор меток резервной случайной модели и пустого каталога.
var DefaultLabels = []string{
	"Tomato_Healthy",
	"Tomato_Early_blight",
	"Tomato_Late_blight",
	"Apple_Healthy",
	"Apple_Black_rot",
	"Apple_Scab",
}

var healthyPlants = []string{"Tomato", "Apple", "Potato", "Pepper", "Corn"}

// DiseaseLabels строит список меток из названий болезней каталога:
// уникальные названия в порядке появления и <Plant>_Healthy для основных культур.
// Пустой список даёт DefaultLabels.
func DiseaseLabels(names []string) []string {
	if len(names) == 0 {
		return append([]string(nil), DefaultLabels...)
	}

	seen := make(map[string]bool, len(names)+len(healthyPlants))
	labels := make([]string, 0, len(names)+len(healthyPlants))
	add := func(label string) {
		if label == "" || seen[label] {
			return
		}
		seen[label] = true
		labels = append(labels, label)
	}
	for _, name := range names {
		add(name)
	}
	for _, plant := range healthyPlants {
		add(plant + "_Healthy")
	}
	return labels
}

// FileProvider загружает сохранённый бандл.
type FileProvider struct {
	Path     string
	Registry vision.Registry
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Provide(ctx context.Context) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := LoadBundle(p.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no model bundle at %s", p.Path)
		}
		return nil, err
	}
	return b.Model(p.Registry, p.Name())
}

// RandomProvider: последний резерв: лес на случайных данных.
// Предсказания не несут смысла, но сервис остаётся рабочим.
type RandomProvider struct {
	Labels   []string // DefaultLabels, если пусто
	Samples  int      // образцов на класс, 10 по умолчанию
	Trees    int      // 10 по умолчанию
	Seed     int64
	Registry vision.Registry
}

func (p *RandomProvider) Name() string { return "random" }

func (p *RandomProvider) Provide(ctx context.Context) (*Model, error) {
	labels := p.Labels
	if len(labels) == 0 {
		labels = DefaultLabels
	}
	samples := p.Samples
	if samples <= 0 {
		samples = 10
	}
	trees := p.Trees
	if trees <= 0 {
		trees = 10
	}

	rng := newRand(p.Seed)
	data := make([][]float64, 0, len(labels)*samples)
	target := make([]int, 0, len(labels)*samples)
	for class := range labels {
		for s := 0; s < samples; s++ {
			row := make([]float64, vision.GrayGridLength)
			for i := range row {
				row[i] = rng.Float64()
			}
			data = append(data, row)
			target = append(target, class)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pipeline := ml.NewPipeline(ml.WithTrees(trees), ml.WithSeed(p.Seed))
	if err := pipeline.Fit(data, target, len(labels)); err != nil {
		return nil, fmt.Errorf("fit random model: %w", err)
	}
	return NewBundle(vision.GrayGridName, labels, pipeline).Model(p.Registry, p.Name())
}
