package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "farm-assistant/internal/application"
	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/logger"
	"farm-assistant/internal/metrics"
)

type fakeDetector struct {
	got     []byte
	err     error
	history []entity.DetectionRecord
}

func (f *fakeDetector) Classify(_ context.Context, data []byte) (*entity.DetectionRecord, error) {
	f.got = data
	if f.err != nil {
		return nil, f.err
	}
	return &entity.DetectionRecord{ID: "d1", Disease: "Apple_Scab", Confidence: 88}, nil
}

func (f *fakeDetector) History(context.Context) ([]entity.DetectionRecord, error) {
	return f.history, nil
}

func (f *fakeDetector) Diseases(context.Context) []entity.DiseaseEntry {
	return []entity.DiseaseEntry{{Name: "Apple_Scab"}}
}

type fakeCrops struct{ req app.CropRequest }

func (f *fakeCrops) Recommend(_ context.Context, req app.CropRequest) ([]entity.CropRecommendation, error) {
	f.req = req
	return []entity.CropRecommendation{{Name: "Rice", Score: 80}}, nil
}

func (f *fakeCrops) Crops() []entity.Crop { return []entity.Crop{{Name: "Rice"}} }

type fakeWeather struct{}

func (fakeWeather) Current(_ context.Context, lat, lon float64) (*entity.Weather, error) {
	if lat == 0 || lon == 0 {
		return nil, entity.ErrInvalidCoordinates
	}
	return &entity.Weather{City: "Pune", Temperature: 30}, nil
}

type fakeVoice struct{}

func (fakeVoice) Process(_ context.Context, audio string) (*app.VoiceReply, error) {
	if audio == "" {
		return nil, fmt.Errorf("%w: audio data is required", entity.ErrInvalidAudio)
	}
	return &app.VoiceReply{Transcript: "hi", Response: "I understood: hi", Audio: "bXAz"}, nil
}

type testEnv struct {
	handler  http.Handler
	detector *fakeDetector
	crops    *fakeCrops
	dir      string
}

func newEnv(t *testing.T) *testEnv {
	dir := t.TempDir()
	env := &testEnv{detector: &fakeDetector{}, crops: &fakeCrops{}, dir: dir}
	srv := NewServer(logger.Test(t), Deps{
		Detector: env.detector,
		Crops:    env.crops,
		Weather:  fakeWeather{},
		Voice:    fakeVoice{},
	}, Options{DetectionsDir: dir, Metrics: metrics.New()})
	env.handler = srv.Handler()
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="leaf.jpg"`, field))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/detect-disease", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get(requestIDHeader), "req_"))
}

func TestDetectDisease(t *testing.T) {
	env := newEnv(t)

	for _, field := range []string{"file", "image"} {
		rec := env.do(upload(t, field, "image/jpeg", []byte("jpeg")))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "jpeg", string(env.detector.got))

		var got entity.DetectionRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Apple_Scab", got.Disease)
	}
}

func TestDetectDisease_BadInput(t *testing.T) {
	env := newEnv(t)

	rec := env.do(upload(t, "file", "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File must be an image", detail(t, rec))

	rec = env.do(upload(t, "file", "image/png", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No image data received", detail(t, rec))

	rec = env.do(upload(t, "other", "image/png", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/detect-disease", strings.NewReader("raw")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectDisease_ErrorMapping(t *testing.T) {
	env := newEnv(t)

	env.detector.err = fmt.Errorf("%w: truncated", entity.ErrImageDecode)
	rec := env.do(upload(t, "file", "image/png", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.detector.err = entity.ErrModelUnavailable
	rec = env.do(upload(t, "file", "image/png", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to process image", detail(t, rec))
}

func TestDetectionHistory(t *testing.T) {
	env := newEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/detection-history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	env.detector.history = []entity.DetectionRecord{{ID: "a"}, {ID: "b"}}
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/detection-history", nil))
	var got []entity.DetectionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
}

func TestWeather(t *testing.T) {
	env := newEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/weather?lat=18.5&lon=73.8", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"city":"Pune"`)

	for _, q := range []string{"", "?lat=18.5", "?lat=abc&lon=1", "?lat=0&lon=73.8"} {
		rec = env.do(httptest.NewRequest(http.MethodGet, "/api/weather"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestRecommendations(t *testing.T) {
	env := newEnv(t)

	for _, path := range []string{"/api/recommendations", "/api/ml-crop-recommendations"} {
		body := `{"temperature":28,"humidity":70,"windSpeed":2,"description":"clear","city":"Mysuru","country":"IN","timestamp":"t","latitude":12.3,"longitude":76.6}`
		rec := env.do(httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 28.0, env.crops.req.Temperature)
		assert.Equal(t, 12.3, env.crops.req.Latitude)
		assert.Contains(t, rec.Body.String(), `"name":"Rice"`)
	}

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/recommendations", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogs(t *testing.T) {
	env := newEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/crops", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Rice"`)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/diseases", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"disease_name":"Apple_Scab"`)
}

func TestVoice(t *testing.T) {
	env := newEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/voice", strings.NewReader(`{"audio":"d2F2ZQ=="}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"transcript":"hi","response":"I understood: hi","audio":"bXAz"}`, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/voice", strings.NewReader(`{"audio":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticDetections(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "d1.jpg"), []byte("img"), 0o600))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/detections/d1.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "img", rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/detections/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newEnv(t)
	env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="GET /health"`)
}

func TestCORSPreflight(t *testing.T) {
	env := newEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/detect-disease", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := env.do(req)

	assert.Less(t, rec.Code, 300)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}
