package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/logger"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Embedded(t *testing.T) {
	c, err := Load(logger.Test(t), Paths{})
	require.NoError(t, err)

	diseases := c.Diseases()
	require.NotEmpty(t, diseases)
	assert.Equal(t, "Tomato_Early_blight", diseases[0].Name)
	assert.Len(t, diseases[0].Supplements, 2)
	assert.Equal(t, "Mancozeb 75% WP", diseases[0].Supplements[0].Name)

	crops := c.Crops()
	require.NotEmpty(t, crops)
	assert.Equal(t, "Rice", crops[0].Name)
	assert.Equal(t, entity.SeasonKharif, crops[0].GrowingSeason)
	assert.Equal(t, 22.0, crops[0].TemperatureMin)
}

func TestLoad_Files(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Diseases: writeFile(t, dir, "d.csv", "disease_name,description,symptoms,causes,prevention,treatment\n"+
			"Grape_Black_rot, Rot of grapes ,s,c,p,t\n"+
			"Broken,row\n"+
			"Grape_Black_rot,duplicate,s,c,p,t\n"+
			",,,,,\n"),
		Supplements: writeFile(t, dir, "s.csv", "disease_name,supplement_name,description,application_method,precautions\n"),
		Crops: writeFile(t, dir, "c.csv", "name,description,temperature_min,temperature_max,humidity_min,humidity_max,water_requirement,growing_season,region,soil_type,days_to_harvest\n"+
			"Millet,Hardy,20,35,30,60,Low,Kharif,All,Sandy,70-90\n"+
			"Bad,x,warm,35,30,60,Low,Kharif,All,Sandy,70-90\n"),
	}

	c, err := Load(logger.Test(t), paths)
	require.NoError(t, err)

	require.Len(t, c.Diseases(), 1)
	d := c.Diseases()[0]
	assert.Equal(t, "Rot of grapes", d.Description)
	assert.NotNil(t, d.Supplements)
	assert.Empty(t, d.Supplements)

	require.Len(t, c.Crops(), 1)
	assert.Equal(t, "Millet", c.Crops()[0].Name)
	assert.Equal(t, []string{"Grape_Black_rot"}, c.DiseaseNames())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(logger.Test(t), Paths{Diseases: filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
}

func TestLoad_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(logger.Test(t), Paths{Diseases: writeFile(t, dir, "d.csv", "disease_name,description\nx,y\n")})
	require.ErrorContains(t, err, "missing column")
}

func TestResolver_Lookup(t *testing.T) {
	c, err := Load(logger.Test(t), Paths{})
	require.NoError(t, err)
	r := NewResolver(logger.Test(t), c)
	ctx := context.Background()

	tests := []struct {
		name     string
		label    string
		wantDesc string
		wantErr  error
	}{
		{name: "exact", label: "Apple_Scab", wantDesc: c.Diseases()[7].Description},
		{name: "case folded substring", label: "apple_black_rot_stage2", wantDesc: c.Diseases()[6].Description},
		{name: "label inside catalog name", label: "LATE_BLIGHT", wantDesc: c.Diseases()[1].Description},
		{name: "healthy template", label: "Grape_healthy", wantDesc: "Healthy Grape plant with no signs of disease"},
		{name: "unknown", label: "Banana_Sigatoka", wantErr: entity.ErrMetadataNotFound},
		{name: "empty", label: "", wantErr: entity.ErrMetadataNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, err := r.Lookup(ctx, tc.label)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantDesc, info.Description)
		})
	}
}

func TestResolver_ReturnsCopies(t *testing.T) {
	c, err := Load(logger.Test(t), Paths{})
	require.NoError(t, err)
	r := NewResolver(logger.Test(t), c)

	info, err := r.Lookup(context.Background(), "Apple_Scab")
	require.NoError(t, err)
	info.Supplements[0].Name = "changed"

	again, err := r.Lookup(context.Background(), "Apple_Scab")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again.Supplements[0].Name)
	assert.Len(t, r.All(context.Background()), len(c.Diseases()))
}
