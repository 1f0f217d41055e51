package model

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/infrastructure/vision"
	"farm-assistant/internal/logger"
)

type fixedClassifier []float64

func (f fixedClassifier) PredictProba([]float64) ([]float64, error) { return f, nil }

type failingProvider struct{ name string }

func (p failingProvider) Name() string { return p.name }
func (p failingProvider) Provide(context.Context) (*Model, error) {
	return nil, errors.New(p.name + " broke")
}

type closingProvider struct {
	failingProvider
	closed bool
}

func (p *closingProvider) Close() error {
	p.closed = true
	return nil
}

func leaf() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: 160, B: uint8(y * 2), A: 255})
		}
	}
	return img
}

func testSynthetic(t *testing.T, path string) *SyntheticProvider {
	return &SyntheticProvider{
		Labels:   func() []string { return []string{"Tomato_Early_blight", "Apple_Black_rot"} },
		Path:     path,
		Samples:  10,
		Trees:    5,
		Registry: vision.NewRegistry(),
		Logger:   logger.Test(t),
	}
}

func TestModel_Predict(t *testing.T) {
	m := &Model{
		Labels:     []string{"a", "b", "c", "d"},
		Classifier: fixedClassifier{0.1, 0.4, 0.1, 0.4},
	}

	pred, err := m.Predict(make(entity.FeatureVector, entity.FeatureLength))
	require.NoError(t, err)

	assert.Equal(t, "b", pred.Label)
	assert.InDelta(t, 40.0, pred.Confidence, 1e-9)
	require.Len(t, pred.TopK, 3)
	assert.Equal(t, []string{"b", "d", "a"}, []string{pred.TopK[0].Label, pred.TopK[1].Label, pred.TopK[2].Label})
	for i := 1; i < len(pred.TopK); i++ {
		assert.GreaterOrEqual(t, pred.TopK[i-1].Confidence, pred.TopK[i].Confidence)
	}
}

func TestModel_PredictFewClasses(t *testing.T) {
	m := &Model{Labels: []string{"only", "other"}, Classifier: fixedClassifier{0.3, 0.7}}

	pred, err := m.Predict(nil)
	require.NoError(t, err)
	assert.Len(t, pred.TopK, 2)
	assert.Equal(t, "other", pred.Label)
}

func TestModel_PredictLabelMismatch(t *testing.T) {
	m := &Model{Labels: []string{"a"}, Classifier: fixedClassifier{0.5, 0.5}}

	_, err := m.Predict(nil)
	require.Error(t, err)
}

func TestModel_ConfidenceClamped(t *testing.T) {
	m := &Model{Labels: []string{"a", "b"}, Classifier: fixedClassifier{1.2, -0.2}}

	pred, err := m.Predict(nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pred.Confidence)
	assert.Equal(t, 0.0, pred.TopK[1].Confidence)
}

func TestDiseaseLabels(t *testing.T) {
	assert.Equal(t, DefaultLabels, DiseaseLabels(nil))

	labels := DiseaseLabels([]string{"Tomato_Late_blight", "Tomato_Healthy", "Tomato_Late_blight"})
	assert.Equal(t, []string{
		"Tomato_Late_blight",
		"Tomato_Healthy",
		"Apple_Healthy",
		"Potato_Healthy",
		"Pepper_Healthy",
		"Corn_Healthy",
	}, labels)
}

func TestSyntheticSamples(t *testing.T) {
	labels := []string{"Tomato_Healthy", "Tomato_Early_Blight", "Apple_Black_rot", "Apple_Scab"}
	data, target := SyntheticSamples(labels, 5, 1)

	require.Len(t, data, 20)
	require.Len(t, target, 20)
	for _, row := range data {
		require.Len(t, row, entity.FeatureLength)
		assert.True(t, entity.FeatureVector(row).InUnitRange())
	}

	again, _ := SyntheticSamples(labels, 5, 1)
	assert.Equal(t, data, again)
}

func TestBundle_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "disease.gob")

	b, err := testSynthetic(t, "").Train(context.Background())
	require.NoError(t, err)
	require.NoError(t, SaveBundle(path, b))

	loaded, err := LoadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, b.Labels, loaded.Labels)
	assert.Equal(t, vision.ColorStatsName, loaded.Extractor)

	img := leaf()
	m1, err := b.Model(vision.NewRegistry(), "a")
	require.NoError(t, err)
	m2, err := loaded.Model(vision.NewRegistry(), "b")
	require.NoError(t, err)

	p1, err := m1.Classify(context.Background(), img)
	require.NoError(t, err)
	p2, err := m2.Classify(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestBundle_ExtractorWidthMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "disease.gob")

	b, err := testSynthetic(t, "").Train(ctx)
	require.NoError(t, err)
	b.Extractor = vision.GrayGridName
	require.NoError(t, SaveBundle(path, b))

	_, err = b.Model(vision.NewRegistry(), "file")
	require.ErrorContains(t, err, "features")

	// несовместимый бандл пропускается, работает следующий источник
	store := NewStore(logger.Test(t),
		&FileProvider{Path: path, Registry: vision.NewRegistry()},
		testSynthetic(t, ""),
	)
	require.NoError(t, store.Open(ctx))
	assert.Equal(t, "synthetic", store.Model().Source)

	_, err = store.Classify(ctx, leaf())
	require.NoError(t, err)
}

func TestLoadBundle_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disease.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a bundle"), 0o600))

	_, err := LoadBundle(path)
	require.Error(t, err)
}

func TestStore_StartsWithoutModelFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "disease.gob")
	registry := vision.NewRegistry()

	store := NewStore(logger.Test(t),
		&ONNXProvider{Registry: registry},
		&FileProvider{Path: path, Registry: registry},
		testSynthetic(t, path),
	)
	require.NoError(t, store.Open(ctx))
	assert.Equal(t, "synthetic", store.Model().Source)
	assert.FileExists(t, path)

	pred, err := store.Classify(ctx, leaf())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.Confidence, 0.0)
	assert.LessOrEqual(t, pred.Confidence, 100.0)

	// второй запуск берёт сохранённый бандл
	restarted := NewStore(logger.Test(t), &FileProvider{Path: path, Registry: registry})
	require.NoError(t, restarted.Open(ctx))
	assert.Equal(t, "file", restarted.Model().Source)
	assert.Equal(t, store.Model().Labels, restarted.Model().Labels)
}

func TestStore_SyntheticPersistFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	lggr, logs := logger.TestObserved(t, zapcore.WarnLevel)
	p := testSynthetic(t, filepath.Join(blocker, "disease.gob"))
	p.Logger = lggr

	store := NewStore(logger.Test(t), p)
	require.NoError(t, store.Open(context.Background()))
	assert.Equal(t, "synthetic", store.Model().Source)
	assert.Equal(t, 1, logs.FilterMessage("Failed to persist synthetic model, using it in memory").Len())
}

func TestStore_RandomFallback(t *testing.T) {
	store := NewStore(logger.Test(t),
		failingProvider{name: "first"},
		&RandomProvider{Registry: vision.NewRegistry()},
	)
	require.NoError(t, store.Open(context.Background()))

	m := store.Model()
	assert.Equal(t, "random", m.Source)
	assert.Equal(t, DefaultLabels, m.Labels)
	assert.Equal(t, vision.GrayGridName, m.Extractor.Name())

	pred, err := store.Classify(context.Background(), leaf())
	require.NoError(t, err)
	assert.Contains(t, DefaultLabels, pred.Label)
}

func TestStore_AllProvidersFail(t *testing.T) {
	store := NewStore(logger.Test(t), failingProvider{name: "first"}, failingProvider{name: "second"})

	err := store.Open(context.Background())
	require.ErrorIs(t, err, entity.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "first broke")
	assert.Contains(t, err.Error(), "second broke")

	_, err = store.Classify(context.Background(), leaf())
	require.ErrorIs(t, err, entity.ErrModelUnavailable)
}

func TestStore_Close(t *testing.T) {
	p := &closingProvider{failingProvider: failingProvider{name: "closer"}}
	store := NewStore(logger.Nop(), p)

	require.NoError(t, store.Close())
	assert.True(t, p.closed)
}

func TestLoadONNXMetadata(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"input_shape":[1,50],"output_shape":[1,2],"classes":["a","b"]}`), 0o600))

	meta, err := LoadONNXMetadata(good)
	require.NoError(t, err)
	assert.Equal(t, vision.ColorStatsName, meta.Extractor)
	assert.Equal(t, "input", meta.InputName)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"input_shape":[1,50],"output_shape":[1,3],"classes":["a","b"]}`), 0o600))
	_, err = LoadONNXMetadata(bad)
	require.Error(t, err)
}

func TestSoftmax(t *testing.T) {
	out := softmax([]float64{1, 1, 1000})
	assert.InDelta(t, 1.0, out[0]+out[1]+out[2], 1e-9)
	assert.Greater(t, out[2], 0.99)
	assert.Empty(t, softmax(nil))
}
