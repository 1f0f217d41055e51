package port

import (
	"context"

	"farm-assistant/internal/domain/entity"
)

// WeatherProvider источник текущей погоды
type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (*entity.Weather, error)
}
