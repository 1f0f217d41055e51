package app

import (
	"context"
	"math"
	"sort"
	"time"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/logger"
)

// maxRecommendations: сколько культур возвращается в ответе.
const maxRecommendations = 5

// CropRequest: погода и координаты поля.
type CropRequest struct {
	entity.Weather
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CropService рекомендует культуры: сначала ML-модель, при её ошибке: правила.
type CropService struct {
	lggr        logger.Logger
	recommender port.CropRecommender
	catalog     port.CropCatalog
	now         func() time.Time
}

// NewCropService создаёт сервис; recommender может быть nil, тогда работают только правила.
func NewCropService(lggr logger.Logger, recommender port.CropRecommender, catalog port.CropCatalog) *CropService {
	return &CropService{
		lggr:        lggr.Named("crops"),
		recommender: recommender,
		catalog:     catalog,
		now:         time.Now,
	}
}

// Crops возвращает справочник культур.
func (s *CropService) Crops() []entity.Crop {
	return s.catalog.Crops()
}

// Recommend возвращает до пяти культур для текущего сезона и региона.
func (s *CropService) Recommend(ctx context.Context, req CropRequest) ([]entity.CropRecommendation, error) {
	season := entity.SeasonForMonth(s.now().Month())
	region := entity.RegionForCoordinates(req.Latitude, req.Longitude)

	if s.recommender != nil {
		recs, err := s.recommender.Recommend(ctx, req.Weather, season, region, maxRecommendations)
		if err == nil {
			return recs, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.lggr.Warnw("ML crop recommendations failed, falling back to rules", "err", err)
	}
	return s.RuleBased(req.Weather, season, region), nil
}

// RuleBased оценивает культуры сезона и региона по близости погоды к их диапазонам.
func (s *CropService) RuleBased(w entity.Weather, season entity.Season, region entity.Region) []entity.CropRecommendation {
	recs := []entity.CropRecommendation{}
	for _, c := range s.catalog.Crops() {
		if c.GrowingSeason != season && c.GrowingSeason != entity.SeasonYearRound {
			continue
		}
		if c.Region != region && c.Region != entity.RegionAll {
			continue
		}
		recs = append(recs, entity.NewCropRecommendation(c, round2(ruleScore(w, c)*100)))
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func ruleScore(w entity.Weather, c entity.Crop) float64 {
	temp := 1 - math.Min(math.Abs(w.Temperature-c.TemperatureMin), math.Abs(w.Temperature-c.TemperatureMax))/10
	humidity := 1 - math.Abs(w.Humidity-(c.HumidityMin+c.HumidityMax)/2)/100
	wind := 1 - math.Min(w.WindSpeed, 10)/10
	return temp*0.5 + humidity*0.3 + wind*0.2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
