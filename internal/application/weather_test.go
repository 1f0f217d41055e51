package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-assistant/internal/domain/entity"
)

type stubWeather struct{ calls int }

func (s *stubWeather) Current(context.Context, float64, float64) (*entity.Weather, error) {
	s.calls++
	return &entity.Weather{City: "Pune"}, nil
}

func TestWeatherService_Current(t *testing.T) {
	provider := &stubWeather{}
	svc := NewWeatherService(provider)

	w, err := svc.Current(context.Background(), 18.52, 73.85)
	require.NoError(t, err)
	assert.Equal(t, "Pune", w.City)

	_, err = svc.Current(context.Background(), 0, 73.85)
	require.ErrorIs(t, err, entity.ErrInvalidCoordinates)
	assert.Equal(t, 1, provider.calls)
}
