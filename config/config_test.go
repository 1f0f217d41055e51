package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "models", cfg.ModelDir)
	assert.Equal(t, HistoryFile, cfg.HistoryDriver)
	assert.Equal(t, "data/detection_history.json", cfg.HistoryPath)
	assert.Equal(t, BackendGo, cfg.FeatureBackend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DiseaseCSV)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("HISTORY_DRIVER", HistoryPostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/farm")
	t.Setenv("GOOGLE_API_KEY", "legacy-key")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, HistoryPostgres, cfg.HistoryDriver)
	assert.Equal(t, "legacy-key", cfg.SpeechAPIKey)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"ok", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"postgres without dsn", func(c *Config) { c.HistoryDriver = HistoryPostgres }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.HistoryDriver = "redis" }, "HISTORY_DRIVER"},
		{"unknown backend", func(c *Config) { c.FeatureBackend = "cuda" }, "FEATURE_BACKEND"},
		{"onnx half set", func(c *Config) { c.ONNXModelPath = "m.onnx" }, "ONNX_METADATA_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:       "info",
				HistoryDriver:  HistoryFile,
				HistoryPath:    "h.json",
				FeatureBackend: BackendGo,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}
