package model

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/logger"
)

type cropList []entity.Crop

func (c cropList) Crops() []entity.Crop { return c }

var testCrops = cropList{
	{Name: "Rice", TemperatureMin: 22, TemperatureMax: 32, HumidityMin: 70, HumidityMax: 90, GrowingSeason: entity.SeasonKharif, Region: entity.RegionSouth},
	{Name: "Wheat", TemperatureMin: 10, TemperatureMax: 20, HumidityMin: 40, HumidityMax: 60, GrowingSeason: entity.SeasonRabi, Region: entity.RegionNorth},
	{Name: "Watermelon", TemperatureMin: 25, TemperatureMax: 35, HumidityMin: 30, HumidityMax: 50, GrowingSeason: entity.SeasonZaid, Region: entity.RegionAll},
	{Name: "Wheat", TemperatureMin: 0, TemperatureMax: 1},
}

func TestCropRecommender_Recommend(t *testing.T) {
	r := NewCropRecommender(logger.Test(t), testCrops, "")

	recs, err := r.Recommend(context.Background(),
		entity.Weather{Temperature: 15, Humidity: 50}, entity.SeasonRabi, entity.RegionNorth, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Wheat", recs[0].Name)
	assert.Equal(t, entity.TemperatureRange{Min: 10, Max: 20}, recs[0].OptimalTemperature)
	assert.GreaterOrEqual(t, recs[0].Score, recs[1].Score)
	for _, rec := range recs {
		assert.Equal(t, Round2(rec.Score), rec.Score)
		assert.LessOrEqual(t, rec.Score, 100.0)
	}
}

func TestCropRecommender_PersistsModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crop.gob")
	ctx := context.Background()

	first := NewCropRecommender(logger.Test(t), testCrops, path)
	require.NoError(t, first.Open(ctx))
	assert.FileExists(t, path)

	b, err := LoadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, CropFeatures, b.Extractor)
	assert.Equal(t, []string{"Rice", "Wheat", "Watermelon"}, b.Labels)

	w := entity.Weather{Temperature: 28, Humidity: 80}
	want, err := first.Recommend(ctx, w, entity.SeasonKharif, entity.RegionSouth, 3)
	require.NoError(t, err)

	second := NewCropRecommender(logger.Test(t), testCrops, path)
	got, err := second.Recommend(ctx, w, entity.SeasonKharif, entity.RegionSouth, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCropRecommender_EmptyCatalog(t *testing.T) {
	r := NewCropRecommender(logger.Test(t), cropList{}, "")

	_, err := r.Recommend(context.Background(), entity.Weather{}, entity.SeasonRabi, entity.RegionAll, 5)
	require.Error(t, err)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 12.35, Round2(12.3456))
	assert.Equal(t, 0.0, Round2(0.001))
}
