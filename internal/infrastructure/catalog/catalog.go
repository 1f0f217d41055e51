// Package catalog загружает справочники болезней и культур из CSV.
package catalog

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"strconv"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/logger"
)

//go:embed data/*.csv
var defaults embed.FS

// Paths: пути к CSV; пустой путь означает встроенный справочник.
type Paths struct {
	Diseases    string
	Supplements string
	Crops       string
}

// Catalog: загруженные справочники, неизменяемые после Load.
type Catalog struct {
	diseases []entity.DiseaseEntry
	crops    []entity.Crop
}

// Load читает справочники болезней, препаратов и культур.
func Load(lggr logger.Logger, paths Paths) (*Catalog, error) {
	lggr = lggr.Named("catalog")

	diseases, err := open(paths.Diseases, "data/disease_info.csv")
	if err != nil {
		return nil, err
	}
	supplements, err := open(paths.Supplements, "data/supplement_info.csv")
	if err != nil {
		return nil, err
	}
	crops, err := open(paths.Crops, "data/crops.csv")
	if err != nil {
		return nil, err
	}

	c := &Catalog{}
	if c.diseases, err = parseDiseases(diseases, supplements); err != nil {
		return nil, err
	}
	if c.crops, err = parseCrops(lggr, crops); err != nil {
		return nil, err
	}

	lggr.Infow("Catalog loaded", "diseases", len(c.diseases), "crops", len(c.crops))
	return c, nil
}

// Diseases возвращает справочник болезней в порядке загрузки.
func (c *Catalog) Diseases() []entity.DiseaseEntry {
	return append([]entity.DiseaseEntry(nil), c.diseases...)
}

// DiseaseNames: названия болезней в порядке загрузки.
func (c *Catalog) DiseaseNames() []string {
	names := make([]string, len(c.diseases))
	for i, d := range c.diseases {
		names[i] = d.Name
	}
	return names
}

// Crops реализует port.CropCatalog.
func (c *Catalog) Crops() []entity.Crop {
	return append([]entity.Crop(nil), c.crops...)
}

// All реализует часть port.DiseaseLookup.
func (c *Catalog) All(context.Context) []entity.DiseaseEntry {
	return c.Diseases()
}

func open(path, embedded string) (io.Reader, error) {
	if path == "" {
		raw, err := defaults.ReadFile(embedded)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return bytes.NewReader(raw), nil
}

func parseDiseases(diseases, supplements io.Reader) ([]entity.DiseaseEntry, error) {
	st, err := readTable(supplements, "disease_name", "supplement_name", "description", "application_method", "precautions")
	if err != nil {
		return nil, fmt.Errorf("supplement catalog: %w", err)
	}
	byDisease := make(map[string][]entity.Supplement)
	for _, row := range st.rows {
		name := st.get(row, "disease_name")
		byDisease[name] = append(byDisease[name], entity.Supplement{
			Name:        st.get(row, "supplement_name"),
			Description: st.get(row, "description"),
			Application: st.get(row, "application_method"),
			Precautions: st.get(row, "precautions"),
		})
	}

	dt, err := readTable(diseases, "disease_name", "description", "symptoms", "causes", "prevention", "treatment")
	if err != nil {
		return nil, fmt.Errorf("disease catalog: %w", err)
	}
	seen := make(map[string]bool, len(dt.rows))
	entries := make([]entity.DiseaseEntry, 0, len(dt.rows))
	for _, row := range dt.rows {
		name := dt.get(row, "disease_name")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		supps := byDisease[name]
		if supps == nil {
			supps = []entity.Supplement{}
		}
		entries = append(entries, entity.DiseaseEntry{
			Name: name,
			DiseaseInfo: entity.DiseaseInfo{
				Description: dt.get(row, "description"),
				Symptoms:    dt.get(row, "symptoms"),
				Causes:      dt.get(row, "causes"),
				Prevention:  dt.get(row, "prevention"),
				Treatment:   dt.get(row, "treatment"),
				Supplements: supps,
			},
		})
	}
	return entries, nil
}

func parseCrops(lggr logger.Logger, r io.Reader) ([]entity.Crop, error) {
	t, err := readTable(r, "name", "temperature_min", "temperature_max", "humidity_min", "humidity_max", "growing_season", "region")
	if err != nil {
		return nil, fmt.Errorf("crop catalog: %w", err)
	}

	crops := make([]entity.Crop, 0, len(t.rows))
	for _, row := range t.rows {
		var nums [4]float64
		var bad bool
		for i, col := range []string{"temperature_min", "temperature_max", "humidity_min", "humidity_max"} {
			v, err := strconv.ParseFloat(t.get(row, col), 64)
			if err != nil {
				bad = true
				break
			}
			nums[i] = v
		}
		name := t.get(row, "name")
		if bad || name == "" {
			lggr.Warnw("Skipping malformed crop row", "name", name)
			continue
		}

		crops = append(crops, entity.Crop{
			Name:             name,
			Description:      t.get(row, "description"),
			TemperatureMin:   nums[0],
			TemperatureMax:   nums[1],
			HumidityMin:      nums[2],
			HumidityMax:      nums[3],
			WaterRequirement: t.get(row, "water_requirement"),
			GrowingSeason:    entity.Season(t.get(row, "growing_season")),
			Region:           entity.Region(t.get(row, "region")),
			SoilType:         t.get(row, "soil_type"),
			DaysToHarvest:    t.get(row, "days_to_harvest"),
		})
	}
	return crops, nil
}
