package app

import (
	"context"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
)

// WeatherService отдаёт текущую погоду по координатам.
type WeatherService struct {
	provider port.WeatherProvider
}

func NewWeatherService(provider port.WeatherProvider) *WeatherService {
	return &WeatherService{provider: provider}
}

// Current возвращает entity.ErrInvalidCoordinates, если широта или долгота равна нулю.
func (s *WeatherService) Current(ctx context.Context, lat, lon float64) (*entity.Weather, error) {
	if lat == 0 || lon == 0 {
		return nil, entity.ErrInvalidCoordinates
	}
	return s.provider.Current(ctx, lat, lon)
}
