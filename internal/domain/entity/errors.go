package entity

import "errors"

var (
	// ErrImageDecode: байты не удалось декодировать как изображение.
	ErrImageDecode = errors.New("image decode failed")
	// ErrModelUnavailable: ни один источник модели не отработал.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrMetadataNotFound: нет сведений о болезни для метки.
	ErrMetadataNotFound = errors.New("disease metadata not found")
	// ErrHistoryPersist: не удалось записать историю.
	ErrHistoryPersist = errors.New("history persist failed")
	// ErrInvalidCoordinates: не переданы широта и долгота.
	ErrInvalidCoordinates = errors.New("latitude and longitude are required")
	// ErrInvalidAudio: аудио не в base64 или пустое.
	ErrInvalidAudio = errors.New("invalid audio data")
	// ErrUpstream: внешний сервис вернул ошибку.
	ErrUpstream = errors.New("upstream service error")
)
