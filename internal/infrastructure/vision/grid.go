package vision

import (
	"image"

	"github.com/nfnt/resize"

	"farm-assistant/internal/domain/entity"
)

// GrayGridName: имя упрощённого экстрактора для резервной модели.
const GrayGridName = "gray-grid-v1"

// GrayGridLength: длина вектора GrayGridExtractor.
const GrayGridLength = workSide * workSide

// GrayGridExtractor: яркость каждого пикселя изображения 50x50.
type GrayGridExtractor struct{}

// Name реализует port.FeatureExtractor.
func (GrayGridExtractor) Name() string { return GrayGridName }

func (GrayGridExtractor) Len() int { return GrayGridLength }

// Extract возвращает GrayGridLength значений в [0,1].
func (GrayGridExtractor) Extract(img image.Image) entity.FeatureVector {
	gray, _, _ := grayPlane(resize.Resize(workSide, workSide, img, resize.Bilinear))
	out := make(entity.FeatureVector, len(gray))
	for i, v := range gray {
		out[i] = clamp01(v / 255)
	}
	return out
}
