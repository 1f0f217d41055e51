// Package rest: HTTP API фермерского помощника.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"

	app "farm-assistant/internal/application"
	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/logger"
	"farm-assistant/internal/metrics"
)

// maxUpload: предельный размер загружаемого изображения.
const maxUpload = 10 << 20

// Detector: диагностика болезней и журнал.
type Detector interface {
	Classify(ctx context.Context, data []byte) (*entity.DetectionRecord, error)
	History(ctx context.Context) ([]entity.DetectionRecord, error)
	Diseases(ctx context.Context) []entity.DiseaseEntry
}

// CropAdvisor: рекомендации культур.
type CropAdvisor interface {
	Recommend(ctx context.Context, req app.CropRequest) ([]entity.CropRecommendation, error)
	Crops() []entity.Crop
}

// WeatherReporter: текущая погода.
type WeatherReporter interface {
	Current(ctx context.Context, lat, lon float64) (*entity.Weather, error)
}

// VoiceAssistant: голосовой помощник.
type VoiceAssistant interface {
	Process(ctx context.Context, audio string) (*app.VoiceReply, error)
}

// Deps: сервисы, которые обслуживает API.
type Deps struct {
	Detector Detector
	Crops    CropAdvisor
	Weather  WeatherReporter
	Voice    VoiceAssistant
}

// Options: параметры HTTP-слоя.
type Options struct {
	Addr          string
	CORSOrigins   []string // пусто или "*": разрешены все
	DetectionsDir string   // каталог, раздаваемый по /detections/
	Metrics       *metrics.Metrics
}

// Server: HTTP-сервер с корректным завершением.
type Server struct {
	lggr    logger.Logger
	srv     *http.Server
	handler http.Handler
}

// NewServer собирает маршруты и middleware.
func NewServer(lggr logger.Logger, deps Deps, opts Options) *Server {
	lggr = lggr.Named("http")
	h := &handlers{lggr: lggr, deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /api/detect-disease", h.detectDisease)
	mux.HandleFunc("GET /api/detection-history", h.detectionHistory)
	mux.HandleFunc("GET /api/weather", h.weather)
	mux.HandleFunc("POST /api/recommendations", h.recommendations)
	mux.HandleFunc("POST /api/ml-crop-recommendations", h.recommendations)
	mux.HandleFunc("GET /api/crops", h.crops)
	mux.HandleFunc("GET /api/diseases", h.diseases)
	mux.HandleFunc("POST /api/voice", h.voice)
	if opts.DetectionsDir != "" {
		mux.Handle("GET /detections/", http.StripPrefix("/detections/", http.FileServer(http.Dir(opts.DetectionsDir))))
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	handler := corsHandler(opts.CORSOrigins).Handler(instrument(lggr, opts.Metrics, mux))

	return &Server{
		lggr:    lggr,
		handler: handler,
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Handler: корневой обработчик, удобен для тестов.
func (s *Server) Handler() http.Handler { return s.handler }

// Run слушает адрес до отмены ctx, затем ждёт завершения запросов.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.lggr.Infow("HTTP server starting", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.lggr.Infow("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           3600,
	})
}
