// Package speech: распознавание и синтез речи через Google REST API.
package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/infrastructure/httpx"
)

const (
	// DefaultRecognizeURL: Google Cloud Speech-to-Text v1.
	DefaultRecognizeURL = "https://speech.googleapis.com/v1/speech:recognize"
	// DefaultTTSURL: голосовой вывод Google Translate.
	DefaultTTSURL = "https://translate.google.com/translate_tts"
)

// Transcriber распознаёт английскую речь.
type Transcriber struct {
	http     *httpx.Client
	endpoint string
	apiKey   string
	language string
}

// NewTranscriber создаёт распознаватель; пустой endpoint означает DefaultRecognizeURL.
func NewTranscriber(hc *httpx.Client, endpoint, apiKey string) *Transcriber {
	if endpoint == "" {
		endpoint = DefaultRecognizeURL
	}
	return &Transcriber{http: hc, endpoint: endpoint, apiKey: apiKey, language: "en-US"}
}

type recognizeRequest struct {
	Config struct {
		LanguageCode string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe реализует port.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", entity.ErrInvalidAudio
	}
	if t.apiKey == "" {
		return "", fmt.Errorf("%w: speech api key is not configured", entity.ErrUpstream)
	}

	var req recognizeRequest
	req.Config.LanguageCode = t.language
	req.Audio.Content = base64.StdEncoding.EncodeToString(audio)

	u, err := withQuery(t.endpoint, url.Values{"key": {t.apiKey}})
	if err != nil {
		return "", err
	}

	var resp recognizeResponse
	if err := t.http.PostJSON(ctx, u, req, &resp); err != nil {
		var serr *httpx.StatusError
		if errors.As(err, &serr) && serr.Code == 400 {
			return "", fmt.Errorf("%w: failed to recognize speech: %w", entity.ErrInvalidAudio, err)
		}
		return "", fmt.Errorf("failed to recognize speech: %w", err)
	}

	var parts []string
	for _, r := range resp.Results {
		if len(r.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(r.Alternatives[0].Transcript))
		}
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return "", fmt.Errorf("%w: speech was not recognized", entity.ErrInvalidAudio)
	}
	return text, nil
}

// Synthesizer озвучивает текст в MP3.
type Synthesizer struct {
	http     *httpx.Client
	endpoint string
	language string
}

// NewSynthesizer создаёт синтезатор; пустой endpoint означает DefaultTTSURL.
func NewSynthesizer(hc *httpx.Client, endpoint string) *Synthesizer {
	if endpoint == "" {
		endpoint = DefaultTTSURL
	}
	return &Synthesizer{http: hc, endpoint: endpoint, language: "en"}
}

// Synthesize реализует port.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("nothing to synthesize")
	}
	u, err := withQuery(s.endpoint, url.Values{
		"ie":     {"UTF-8"},
		"q":      {text},
		"tl":     {s.language},
		"client": {"tw-ob"},
	})
	if err != nil {
		return nil, err
	}

	audio, err := s.http.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to generate speech response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty speech response", entity.ErrUpstream)
	}
	return audio, nil
}

func withQuery(raw string, values url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	q := u.Query()
	for k, v := range values {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var (
	_ port.Transcriber = (*Transcriber)(nil)
	_ port.Synthesizer = (*Synthesizer)(nil)
)
