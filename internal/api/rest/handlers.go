package rest

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	app "farm-assistant/internal/application"
	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/logger"
)

type handlers struct {
	lggr logger.Logger
	deps Deps
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// statusFor: 400 для ошибок ввода, 500 для остальных.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrImageDecode),
		errors.Is(err, entity.ErrInvalidCoordinates),
		errors.Is(err, entity.ErrInvalidAudio):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error, detail string) {
	status := statusFor(err)
	if status == http.StatusBadRequest {
		detail = err.Error()
	}
	h.lggr.Errorw(detail, "requestID", RequestID(r.Context()), "err", err)
	writeError(w, status, detail)
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handlers) detectDisease(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := uploadedFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided. Use 'file' as the form field name")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		writeError(w, http.StatusBadRequest, "File must be an image")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "No image data received")
		return
	}

	h.lggr.Infow("Received image", "requestID", RequestID(r.Context()), "filename", header.Filename, "size", len(data))
	rec, err := h.deps.Detector.Classify(r.Context(), data)
	if err != nil {
		h.fail(w, r, err, "Failed to process image")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func uploadedFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile("file")
	if err == nil {
		return file, header, nil
	}
	return r.FormFile("image")
}

func (h *handlers) detectionHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.Detector.History(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch detection history")
		return
	}
	if records == nil {
		records = []entity.DetectionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handlers) weather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, entity.ErrInvalidCoordinates.Error())
		return
	}

	weather, err := h.deps.Weather.Current(r.Context(), lat, lon)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch weather data")
		return
	}
	writeJSON(w, http.StatusOK, weather)
}

func (h *handlers) recommendations(w http.ResponseWriter, r *http.Request) {
	var req app.CropRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid weather data")
		return
	}

	recs, err := h.deps.Crops.Recommend(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "Failed to get crop recommendations")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handlers) crops(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Crops.Crops())
}

func (h *handlers) diseases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Detector.Diseases(r.Context()))
}

type voiceRequest struct {
	Audio string `json:"audio"`
}

func (h *handlers) voice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpload)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid voice request")
		return
	}

	reply, err := h.deps.Voice.Process(r.Context(), req.Audio)
	if err != nil {
		h.fail(w, r, err, "Failed to process voice input")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
