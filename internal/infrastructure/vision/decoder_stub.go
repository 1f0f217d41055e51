//go:build !gocv
// +build !gocv

package vision

import (
	"errors"
	"image"
)

// GoCVAvailable сообщает, собран ли пакет с OpenCV.
const GoCVAvailable = false

// GoCVDecoder заглушка для сборки без OpenCV.
type GoCVDecoder struct {
	MaxSide int
}

// NewGoCVDecoder создаёт декодер-заглушку (без OpenCV).
func NewGoCVDecoder(maxSide int) *GoCVDecoder {
	return &GoCVDecoder{MaxSide: maxSide}
}

// Decode возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDecoder) Decode(data []byte) (image.Image, error) {
	_ = data
	return nil, errors.New("gocv build tag is not enabled")
}
