// Package weather: клиент OpenWeather current weather API.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/infrastructure/httpx"
)

// DefaultURL: адрес текущей погоды OpenWeather.
const DefaultURL = "https://api.openweathermap.org/data/2.5/weather"

// Client запрашивает текущую погоду в метрических единицах.
type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
}

// NewClient создаёт клиента; пустой baseURL означает DefaultURL.
func NewClient(hc *httpx.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{http: hc, baseURL: baseURL, apiKey: apiKey}
}

type currentResponse struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Current реализует port.WeatherProvider. Нулевые координаты отклоняются.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*entity.Weather, error) {
	if lat == 0 || lon == 0 {
		return nil, entity.ErrInvalidCoordinates
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: weather api key is not configured", entity.ErrUpstream)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid weather url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()

	var resp currentResponse
	if err := c.http.GetJSON(ctx, u.String(), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}
	if len(resp.Weather) == 0 {
		return nil, fmt.Errorf("failed to parse weather data: %w", errors.Join(entity.ErrUpstream, errors.New("no weather conditions")))
	}

	return &entity.Weather{
		Temperature: resp.Main.Temp,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Description: resp.Weather[0].Description,
		City:        resp.Name,
		Country:     resp.Sys.Country,
		Timestamp:   time.Unix(resp.Dt, 0).UTC().Format("2006-01-02T15:04:05"),
	}, nil
}

var _ port.WeatherProvider = (*Client)(nil)
