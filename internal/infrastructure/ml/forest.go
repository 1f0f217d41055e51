// Package ml реализует случайный лес и масштабирование признаков.
package ml

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// RandomForest: ансамбль деревьев CART, обученных на бутстрэп-выборках.
type RandomForest struct {
	mu sync.RWMutex

	// Configuration
	nTrees   int
	maxDepth int
	minSplit int
	seed     int64

	// Trained model
	trees     []Tree
	nClasses  int
	nFeatures int
	trained   bool
}

// Option настраивает RandomForest.
type Option func(*RandomForest)

// WithTrees задаёт число деревьев.
func WithTrees(n int) Option {
	return func(f *RandomForest) {
		f.nTrees = n
	}
}

// WithMaxDepth ограничивает глубину деревьев.
func WithMaxDepth(d int) Option {
	return func(f *RandomForest) {
		f.maxDepth = d
	}
}

// WithMinSamplesSplit задаёт минимальный размер узла для разбиения.
func WithMinSamplesSplit(n int) Option {
	return func(f *RandomForest) {
		f.minSplit = n
	}
}

// WithSeed задаёт seed генератора для воспроизводимости.
func WithSeed(seed int64) Option {
	return func(f *RandomForest) {
		f.seed = seed
	}
}

// NewRandomForest создаёт лес с заданными опциями.
func NewRandomForest(opts ...Option) *RandomForest {
	f := &RandomForest{
		nTrees:   100,
		maxDepth: 16,
		minSplit: 2,
		seed:     42,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit обучает лес. labels[i]: индекс класса строки data[i] в [0, nClasses).
func (f *RandomForest) Fit(data [][]float64, labels []int, nClasses int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(data) == 0 {
		return errors.New("empty training data")
	}
	if len(data) != len(labels) {
		return fmt.Errorf("got %d samples and %d labels", len(data), len(labels))
	}
	if nClasses <= 0 {
		return errors.New("no classes")
	}
	if f.nTrees <= 0 {
		return fmt.Errorf("tree count must be positive, got %d", f.nTrees)
	}
	for _, l := range labels {
		if l < 0 || l >= nClasses {
			return fmt.Errorf("label %d out of range", l)
		}
	}

	nSamples := len(data)
	nFeatures := len(data[0])
	maxFeatures := max(int(math.Sqrt(float64(nFeatures))), 1)
	rng := newRand(f.seed)

	f.trees = make([]Tree, f.nTrees)
	for t := range f.trees {
		// Bootstrap sample with replacement
		idx := make([]int, nSamples)
		for i := range idx {
			idx[i] = rng.Intn(nSamples)
		}

		b := &treeBuilder{
			data:        data,
			labels:      labels,
			nClasses:    nClasses,
			maxFeatures: maxFeatures,
			maxDepth:    f.maxDepth,
			minSplit:    f.minSplit,
			rng:         rng,
		}
		b.build(idx, 0)
		f.trees[t] = Tree{Nodes: b.nodes}
	}

	f.nClasses = nClasses
	f.nFeatures = nFeatures
	f.trained = true
	return nil
}

// PredictProba возвращает вероятности классов, усреднённые по деревьям.
func (f *RandomForest) PredictProba(sample []float64) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, errors.New("model not trained")
	}
	if len(sample) != f.nFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", f.nFeatures, len(sample))
	}

	proba := make([]float64, f.nClasses)
	for i := range f.trees {
		for c, p := range f.trees[i].predict(sample) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.trees))
	}
	return proba, nil
}

// NumFeatures: число признаков, на котором обучен лес.
func (f *RandomForest) NumFeatures() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nFeatures
}

// NumClasses: число классов.
func (f *RandomForest) NumClasses() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nClasses
}

type forestSnapshot struct {
	NTrees    int
	MaxDepth  int
	MinSplit  int
	Seed      int64
	Trees     []Tree
	NClasses  int
	NFeatures int
}

// Save сериализует обученный лес.
func (f *RandomForest) Save() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, errors.New("model not trained")
	}

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(forestSnapshot{
		NTrees:    f.nTrees,
		MaxDepth:  f.maxDepth,
		MinSplit:  f.minSplit,
		Seed:      f.seed,
		Trees:     f.trees,
		NClasses:  f.nClasses,
		NFeatures: f.nFeatures,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load восстанавливает лес, сохранённый Save.
func (f *RandomForest) Load(data []byte) error {
	var s forestSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if len(s.Trees) == 0 || s.NClasses <= 0 {
		return errors.New("empty forest")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nTrees = s.NTrees
	f.maxDepth = s.MaxDepth
	f.minSplit = s.MinSplit
	f.seed = s.Seed
	f.trees = s.Trees
	f.nClasses = s.NClasses
	f.nFeatures = s.NFeatures
	f.trained = true
	return nil
}

// GobEncode позволяет сериализовать лес внутри других структур.
func (f *RandomForest) GobEncode() ([]byte, error) { return f.Save() }

// GobDecode: пара к GobEncode.
func (f *RandomForest) GobDecode(data []byte) error { return f.Load(data) }

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
