package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/logger"
)

// VoiceReply: распознанный текст, ответ и озвученный ответ в base64.
type VoiceReply struct {
	Transcript string `json:"transcript"`
	Response   string `json:"response"`
	Audio      string `json:"audio"`
}

// VoiceService: голосовой помощник: распознать, ответить, озвучить.
type VoiceService struct {
	lggr        logger.Logger
	transcriber port.Transcriber
	synthesizer port.Synthesizer
}

func NewVoiceService(lggr logger.Logger, transcriber port.Transcriber, synthesizer port.Synthesizer) *VoiceService {
	return &VoiceService{
		lggr:        lggr.Named("voice"),
		transcriber: transcriber,
		synthesizer: synthesizer,
	}
}

// Process принимает аудио в base64 или data URL.
func (s *VoiceService) Process(ctx context.Context, encoded string) (*VoiceReply, error) {
	audio, err := DecodeAudio(encoded)
	if err != nil {
		return nil, err
	}

	text, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, err
	}
	response := "I understood: " + text

	speech, err := s.synthesizer.Synthesize(ctx, response)
	if err != nil {
		return nil, err
	}

	s.lggr.Infow("Voice request processed", "transcript", text, "audioBytes", len(speech))
	return &VoiceReply{
		Transcript: text,
		Response:   response,
		Audio:      base64.StdEncoding.EncodeToString(speech),
	}, nil
}

// DecodeAudio снимает префикс data URL, дополняет паддинг и декодирует base64.
func DecodeAudio(encoded string) ([]byte, error) {
	v := strings.TrimSpace(encoded)
	if _, after, ok := strings.Cut(v, ","); ok {
		v = after
	}
	if v == "" {
		return nil, fmt.Errorf("%w: audio data is required", entity.ErrInvalidAudio)
	}
	if pad := len(v) % 4; pad != 0 {
		v += strings.Repeat("=", 4-pad)
	}

	audio, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 audio data: %w", entity.ErrInvalidAudio, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: audio data is required", entity.ErrInvalidAudio)
	}
	return audio, nil
}
