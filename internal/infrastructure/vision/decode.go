package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"farm-assistant/internal/domain/entity"
)

// StdDecoder декодирует средствами image и golang.org/x/image.
type StdDecoder struct{}

// Decode возвращает entity.ErrImageDecode, если байты не являются изображением.
func (StdDecoder) Decode(data []byte) (image.Image, error) {
	return Decode(data)
}

// Decode декодирует JPEG, PNG, GIF, BMP, TIFF и WebP.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", entity.ErrImageDecode)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", entity.ErrImageDecode)
	}
	return img, nil
}
