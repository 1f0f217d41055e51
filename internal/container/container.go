// Package container собирает зависимости сервиса из конфигурации.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"farm-assistant/config"
	"farm-assistant/internal/api/rest"
	"farm-assistant/internal/api/telegram"
	app "farm-assistant/internal/application"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/infrastructure/catalog"
	"farm-assistant/internal/infrastructure/httpx"
	"farm-assistant/internal/infrastructure/model"
	"farm-assistant/internal/infrastructure/speech"
	"farm-assistant/internal/infrastructure/storage"
	"farm-assistant/internal/infrastructure/vision"
	"farm-assistant/internal/infrastructure/weather"
	"farm-assistant/internal/logger"
	"farm-assistant/internal/metrics"
)

const (
	diseaseModelFile = "disease_model.gob"
	cropModelFile    = "crop_model.gob"
)

type Container struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *metrics.Metrics
	HTTP    *httpx.Client

	Catalog  *catalog.Catalog
	Models   *model.Store
	CropsML  *model.CropRecommender
	Registry vision.Registry

	UserService      *app.UserService
	DetectionService *app.DetectionService
	CropService      *app.CropService
	WeatherService   *app.WeatherService
	VoiceService     *app.VoiceService

	closers []io.Closer
}

// New открывает справочники, модели и хранилища и собирает сервисы.
// Отсутствие файлов моделей не ошибка: срабатывают резервные источники.
func New(ctx context.Context, cfg *config.Config, lggr logger.Logger) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Logger:   lggr,
		Metrics:  metrics.New(),
		HTTP:     httpx.New(lggr),
		Registry: vision.NewRegistry(),
	}

	cat, err := OpenCatalog(cfg, lggr)
	if err != nil {
		return nil, err
	}
	c.Catalog = cat

	c.Models = model.NewStore(lggr, c.modelProviders()...)
	c.closers = append(c.closers, c.Models)
	if err := c.Models.Open(ctx); err != nil {
		c.Close()
		return nil, err
	}

	history, err := c.openHistory(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.DetectionService = app.NewDetectionService(lggr, app.DetectionDeps{
		Decoder:    c.decoder(),
		Classifier: c.Models,
		Lookup:     catalog.NewResolver(lggr, cat),
		Images:     storage.NewFSImageStore(cfg.DetectionsDir),
		History:    history,
		Observer:   c.Metrics,
	})

	c.CropsML = model.NewCropRecommender(lggr, cat, CropModelPath(cfg))
	if err := c.CropsML.Open(ctx); err != nil {
		lggr.Warnw("Crop model unavailable, using rule-based recommendations", "err", err)
		c.CropService = app.NewCropService(lggr, nil, cat)
	} else {
		c.CropService = app.NewCropService(lggr, c.CropsML, cat)
	}

	c.WeatherService = app.NewWeatherService(weather.NewClient(c.HTTP, cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey))
	c.VoiceService = app.NewVoiceService(lggr,
		speech.NewTranscriber(c.HTTP, cfg.SpeechURL, cfg.SpeechAPIKey),
		speech.NewSynthesizer(c.HTTP, cfg.TTSURL),
	)
	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())

	return c, nil
}

// OpenCatalog загружает справочники по путям из конфигурации.
func OpenCatalog(cfg *config.Config, lggr logger.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.Load(lggr, catalog.Paths{
		Diseases:    cfg.DiseaseCSV,
		Supplements: cfg.SupplementCSV,
		Crops:       cfg.CropsCSV,
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

// DiseaseModelPath: куда сохраняется бандл классификатора болезней.
func DiseaseModelPath(cfg *config.Config) string {
	return filepath.Join(cfg.ModelDir, diseaseModelFile)
}

// CropModelPath: куда сохраняется бандл рекомендателя культур.
func CropModelPath(cfg *config.Config) string {
	return filepath.Join(cfg.ModelDir, cropModelFile)
}

// SyntheticProvider: обучение классификатора на синтетических признаках.
func SyntheticProvider(cfg *config.Config, lggr logger.Logger, cat *catalog.Catalog, reg vision.Registry) *model.SyntheticProvider {
	return &model.SyntheticProvider{
		Labels:   cat.DiseaseNames,
		Path:     DiseaseModelPath(cfg),
		Registry: reg,
		Logger:   lggr.Named("synthetic"),
	}
}

// modelProviders: источники модели по убыванию качества.
func (c *Container) modelProviders() []model.Provider {
	var providers []model.Provider
	if c.Config.ONNXModelPath != "" {
		if model.ONNXAvailable {
			providers = append(providers, &model.ONNXProvider{
				ModelPath:    c.Config.ONNXModelPath,
				MetadataPath: c.Config.ONNXMetadataPath,
				Registry:     c.Registry,
			})
		} else {
			c.Logger.Warnw("ONNX model configured but binary built without onnx tag", "path", c.Config.ONNXModelPath)
		}
	}

	return append(providers,
		&model.FileProvider{Path: DiseaseModelPath(c.Config), Registry: c.Registry},
		SyntheticProvider(c.Config, c.Logger, c.Catalog, c.Registry),
		&model.RandomProvider{Labels: model.DefaultLabels, Registry: c.Registry},
	)
}

func (c *Container) decoder() port.ImageDecoder {
	if c.Config.FeatureBackend == config.BackendGoCV {
		if vision.GoCVAvailable {
			return vision.NewGoCVDecoder(0)
		}
		c.Logger.Warnw("FEATURE_BACKEND=gocv but binary built without gocv tag, using Go decoder")
	}
	return vision.StdDecoder{}
}

func (c *Container) openHistory(ctx context.Context) (port.HistoryRepository, error) {
	switch c.Config.HistoryDriver {
	case config.HistoryPostgres:
		h, err := storage.OpenPostgresHistory(ctx, c.Config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		c.closers = append(c.closers, h)
		return h, nil
	default:
		return storage.NewFileHistory(c.Logger, c.Config.HistoryPath), nil
	}
}

// HTTPServer собирает REST API поверх сервисов.
func (c *Container) HTTPServer() *rest.Server {
	return rest.NewServer(c.Logger, rest.Deps{
		Detector: c.DetectionService,
		Crops:    c.CropService,
		Weather:  c.WeatherService,
		Voice:    c.VoiceService,
	}, rest.Options{
		Addr:          c.Config.HTTPAddr,
		CORSOrigins:   c.Config.CORSOrigins,
		DetectionsDir: c.Config.DetectionsDir,
		Metrics:       c.Metrics,
	})
}

// TelegramBot авторизует бота; нужен TELEGRAM_TOKEN.
func (c *Container) TelegramBot() (*telegram.Bot, error) {
	if c.Config.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_TOKEN is required")
	}
	return telegram.NewBot(c.Logger, c.Config.TelegramToken, c.UserService, c.DetectionService, c.HTTP)
}

// Close освобождает модели и соединения с БД.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i].Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}
