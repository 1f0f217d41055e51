package vision

import (
	"image"
	"image/color"
)

// rgb8 возвращает 8-битные каналы без альфа-предумножения, альфа отбрасывается.
func rgb8(c color.Color) (r, g, b uint8) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B
}

// luma: яркость по ITU-R 601-2 с округлением до целого, 0–255.
func luma(r, g, b uint8) float64 {
	return float64((uint32(r)*299 + uint32(g)*587 + uint32(b)*114 + 500) / 1000)
}

// grayPlane возвращает яркость каждого пикселя построчно.
func grayPlane(img image.Image) ([]float64, int, int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]float64, 0, w*h)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out = append(out, luma(rgb8(img.At(x, y))))
		}
	}
	return out, w, h
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
