package vision

import (
	"image"
	"math"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"farm-assistant/internal/domain/entity"
)

const (
	// ColorStatsName: имя основного экстрактора в бандле модели.
	ColorStatsName = "color-stats-v1"

	workSide = 50
	gridSide = 5
)

// Слоты вектора признаков ColorStatsExtractor.
const (
	slotGrid       = 0  // 25 значений сетки 5x5
	slotMeans      = 25 // средние R, G, B
	slotStds       = 28 // СКО R, G, B
	slotRatios     = 31 // доли каналов
	slotBrightness = 34
	slotContrast   = 35
	slotRange      = 36
	slotGradX      = 37
	slotGradY      = 38
)

// ColorStatsExtractor считает 50 статистик цвета, яркости и градиентов.
type ColorStatsExtractor struct{}

// Name реализует port.FeatureExtractor.
func (ColorStatsExtractor) Name() string { return ColorStatsName }

func (ColorStatsExtractor) Len() int { return entity.FeatureLength }

// Extract возвращает вектор длины entity.FeatureLength со значениями в [0,1].
func (ColorStatsExtractor) Extract(img image.Image) entity.FeatureVector {
	features := make(entity.FeatureVector, entity.FeatureLength)

	work := resize.Resize(workSide, workSide, img, resize.Bicubic)

	grid, _, _ := grayPlane(resize.Resize(gridSide, gridSide, work, resize.Bicubic))
	for i, v := range grid {
		features[slotGrid+i] = v / 255
	}

	bounds := work.Bounds()
	var channels [3][]float64
	for c := range channels {
		channels[c] = make([]float64, 0, bounds.Dx()*bounds.Dy())
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(work.At(x, y))
			channels[0] = append(channels[0], float64(r))
			channels[1] = append(channels[1], float64(g))
			channels[2] = append(channels[2], float64(b))
		}
	}

	var means [3]float64
	for c := 0; c < 3; c++ {
		var std float64
		means[c], std = stat.PopMeanStdDev(channels[c], nil)
		features[slotMeans+c] = means[c] / 255
		features[slotStds+c] = std / 255
	}
	if total := means[0] + means[1] + means[2]; total > 0 {
		for c := 0; c < 3; c++ {
			features[slotRatios+c] = means[c] / total
		}
	}

	gray, w, h := grayPlane(work)
	mean, std, lo, hi := stats(gray)
	features[slotBrightness] = mean / 255
	features[slotContrast] = std / 255
	features[slotRange] = (hi - lo) / 255
	features[slotGradX], features[slotGradY] = gradients(gray, w, h)

	for i := range features {
		features[i] = clamp01(features[i])
	}
	return features
}

// stats: среднее, СКО по генеральной совокупности, минимум и максимум.
func stats(values []float64) (mean, std, lo, hi float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean, std = stat.PopMeanStdDev(values, nil)
	return mean, std, floats.Min(values), floats.Max(values)
}

// gradients: средний модуль разностей соседних пикселей по горизонтали и вертикали, /255.
func gradients(gray []float64, w, h int) (dx, dy float64) {
	var sx, sy float64
	var nx, ny int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := gray[y*w+x]
			if x+1 < w {
				sx += math.Abs(gray[y*w+x+1] - v)
				nx++
			}
			if y+1 < h {
				sy += math.Abs(gray[(y+1)*w+x] - v)
				ny++
			}
		}
	}
	if nx > 0 {
		dx = sx / float64(nx) / 255
	}
	if ny > 0 {
		dy = sy / float64(ny) / 255
	}
	return dx, dy
}
