//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"farm-assistant/internal/domain/entity"
)

// GoCVAvailable сообщает, собран ли пакет с OpenCV.
const GoCVAvailable = true

// GoCVDecoder декодирует изображение через OpenCV и сразу уменьшает его.
type GoCVDecoder struct {
	MaxSide int
}

// NewGoCVDecoder создаёт декодер, ограничивающий большую сторону maxSide пикселями.
func NewGoCVDecoder(maxSide int) *GoCVDecoder {
	if maxSide <= 0 {
		maxSide = 512
	}
	return &GoCVDecoder{MaxSide: maxSide}
}

// Decode возвращает entity.ErrImageDecode, если OpenCV не распознал формат.
func (d *GoCVDecoder) Decode(data []byte) (image.Image, error) {
	mat, err := decodeToMat(data)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	// Уменьшаем крупные снимки с INTER_AREA: признаки всё равно считаются на 50x50.
	if mat.Cols() > d.MaxSide || mat.Rows() > d.MaxSide {
		scale := float64(d.MaxSide) / float64(max(mat.Cols(), mat.Rows()))
		newW := max(int(float64(mat.Cols())*scale), 1)
		newH := max(int(float64(mat.Rows())*scale), 1)
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	return img, nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), fmt.Errorf("%w: opencv could not decode image", entity.ErrImageDecode)
}
