package entity

import "time"

// Season сельскохозяйственный сезон.
type Season string

const (
	SeasonKharif    Season = "Kharif"
	SeasonRabi      Season = "Rabi"
	SeasonZaid      Season = "Zaid"
	SeasonYearRound Season = "Year-round"
)

// Region: укрупнённый регион по координатам.
type Region string

const (
	RegionSouth   Region = "South"
	RegionCentral Region = "Central"
	RegionNorth   Region = "North"
	RegionAll     Region = "All"
)

// Crop: строка справочника культур.
type Crop struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	TemperatureMin   float64 `json:"temperature_min"`
	TemperatureMax   float64 `json:"temperature_max"`
	HumidityMin      float64 `json:"humidity_min"`
	HumidityMax      float64 `json:"humidity_max"`
	WaterRequirement string  `json:"water_requirement"`
	GrowingSeason    Season  `json:"growing_season"`
	Region           Region  `json:"region"`
	SoilType         string  `json:"soil_type"`
	DaysToHarvest    string  `json:"days_to_harvest"`
}

// TemperatureRange оптимальный диапазон температуры.
type TemperatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CropRecommendation рекомендованная культура с оценкой 0–100.
type CropRecommendation struct {
	Name               string           `json:"name"`
	Score              float64          `json:"score"`
	Description        string           `json:"description"`
	OptimalTemperature TemperatureRange `json:"optimalTemperature"`
	WaterRequirements  string           `json:"waterRequirements"`
	GrowingSeason      Season           `json:"growingSeason"`
	Region             Region           `json:"region"`
	SoilType           string           `json:"soilType"`
	DaysToHarvest      string           `json:"daysToHarvest"`
}

// NewCropRecommendation собирает рекомендацию из строки справочника.
func NewCropRecommendation(c Crop, score float64) CropRecommendation {
	return CropRecommendation{
		Name:               c.Name,
		Score:              score,
		Description:        c.Description,
		OptimalTemperature: TemperatureRange{Min: c.TemperatureMin, Max: c.TemperatureMax},
		WaterRequirements:  c.WaterRequirement,
		GrowingSeason:      c.GrowingSeason,
		Region:             c.Region,
		SoilType:           c.SoilType,
		DaysToHarvest:      c.DaysToHarvest,
	}
}

// Code: числовой код сезона для признаков модели.
func (s Season) Code() float64 {
	switch s {
	case SeasonKharif:
		return 0
	case SeasonRabi:
		return 1
	case SeasonZaid:
		return 2
	default:
		return 3
	}
}

// Code: числовой код региона для признаков модели.
func (r Region) Code() float64 {
	switch r {
	case RegionSouth:
		return 0
	case RegionCentral:
		return 1
	case RegionNorth:
		return 2
	default:
		return 3
	}
}

// SeasonForMonth: июнь–октябрь Kharif, ноябрь–март Rabi, апрель–май Zaid.
func SeasonForMonth(m time.Month) Season {
	switch {
	case m >= time.June && m <= time.October:
		return SeasonKharif
	case m >= time.November || m <= time.March:
		return SeasonRabi
	default:
		return SeasonZaid
	}
}

// RegionForCoordinates определяет регион по приблизительным границам штатов.
func RegionForCoordinates(lat, lon float64) Region {
	switch {
	case lat >= 11.5 && lat <= 18.5 && lon >= 74 && lon <= 78.5: // Karnataka
		return RegionSouth
	case lat >= 15.5 && lat <= 22.5 && lon >= 72.5 && lon <= 80.5: // Maharashtra
		return RegionCentral
	case lat >= 29.5 && lat <= 32.5 && lon >= 73.5 && lon <= 76.5: // Punjab
		return RegionNorth
	default:
		return RegionAll
	}
}
