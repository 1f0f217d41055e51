// Package config читает настройки сервиса из окружения и файла .env.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	HistoryFile     = "file"
	HistoryPostgres = "postgres"

	BackendGo   = "go"
	BackendGoCV = "gocv"
)

type Config struct {
	HTTPAddr      string   `mapstructure:"http_addr"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
	DataDir       string   `mapstructure:"data_dir"`
	ModelDir      string   `mapstructure:"model_dir"`
	DetectionsDir string   `mapstructure:"detections_dir"`

	HistoryDriver string `mapstructure:"history_driver"`
	HistoryPath   string `mapstructure:"history_path"`
	DatabaseURL   string `mapstructure:"database_url"`

	// пустые пути: встроенные справочники
	DiseaseCSV    string `mapstructure:"disease_csv"`
	SupplementCSV string `mapstructure:"supplement_csv"`
	CropsCSV      string `mapstructure:"crops_csv"`

	OpenWeatherAPIKey string `mapstructure:"openweather_api_key"`
	OpenWeatherURL    string `mapstructure:"openweather_url"`
	SpeechAPIKey      string `mapstructure:"speech_api_key"`
	SpeechURL         string `mapstructure:"speech_url"`
	TTSURL            string `mapstructure:"tts_url"`

	TelegramToken string `mapstructure:"telegram_token"`
	LogLevel      string `mapstructure:"log_level"`

	FeatureBackend   string `mapstructure:"feature_backend"`
	ONNXModelPath    string `mapstructure:"onnx_model_path"`
	ONNXMetadataPath string `mapstructure:"onnx_metadata_path"`
}

var defaults = map[string]any{
	"http_addr":       ":8000",
	"cors_origins":    "*",
	"data_dir":        "data",
	"model_dir":       "models",
	"detections_dir":  "data/detections",
	"history_driver":  HistoryFile,
	"history_path":    "data/detection_history.json",
	"log_level":       "info",
	"feature_backend": BackendGo,
}

// envBindings: ключ конфигурации и переменные окружения, первая заданная побеждает.
var envBindings = map[string][]string{
	"http_addr":           {"HTTP_ADDR"},
	"cors_origins":        {"CORS_ORIGINS"},
	"data_dir":            {"DATA_DIR"},
	"model_dir":           {"MODEL_DIR"},
	"detections_dir":      {"DETECTIONS_DIR"},
	"history_driver":      {"HISTORY_DRIVER"},
	"history_path":        {"HISTORY_PATH"},
	"database_url":        {"DATABASE_URL"},
	"disease_csv":         {"DISEASE_CSV"},
	"supplement_csv":      {"SUPPLEMENT_CSV"},
	"crops_csv":           {"CROPS_CSV"},
	"openweather_api_key": {"OPENWEATHER_API_KEY"},
	"openweather_url":     {"OPENWEATHER_URL"},
	"speech_api_key":      {"SPEECH_API_KEY", "GOOGLE_API_KEY"},
	"speech_url":          {"SPEECH_URL"},
	"tts_url":             {"TTS_URL"},
	"telegram_token":      {"TELEGRAM_TOKEN"},
	"log_level":           {"LOG_LEVEL"},
	"feature_backend":     {"FEATURE_BACKEND"},
	"onnx_model_path":     {"ONNX_MODEL_PATH"},
	"onnx_metadata_path":  {"ONNX_METADATA_PATH"},
}

// Load читает .env (если есть), затем окружение поверх значений по умолчанию.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		if err := v.BindEnv(slices.Insert(slices.Clone(envs), 0, key)...); err != nil {
			return err
		}
	}
	return nil
}

// Validate проверяет перечислимые значения и зависимые ключи.
func (c *Config) Validate() error {
	var errs []error

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	switch c.HistoryDriver {
	case HistoryFile:
		if c.HistoryPath == "" {
			errs = append(errs, errors.New("HISTORY_PATH is required for the file history driver"))
		}
	case HistoryPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres history driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("HISTORY_DRIVER: unknown driver %q", c.HistoryDriver))
	}

	if c.FeatureBackend != BackendGo && c.FeatureBackend != BackendGoCV {
		errs = append(errs, fmt.Errorf("FEATURE_BACKEND: unknown backend %q", c.FeatureBackend))
	}
	if (c.ONNXModelPath == "") != (c.ONNXMetadataPath == "") {
		errs = append(errs, errors.New("ONNX_MODEL_PATH and ONNX_METADATA_PATH must be set together"))
	}

	return errors.Join(errs...)
}
