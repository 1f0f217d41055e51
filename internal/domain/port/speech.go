package port

import "context"

// Transcriber распознаёт речь в аудио
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer озвучивает текст и возвращает аудио
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
