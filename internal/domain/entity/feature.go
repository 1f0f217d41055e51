package entity

// FeatureLength: длина основного вектора признаков изображения.
const FeatureLength = 50

// FeatureVector числовое описание изображения, каждое значение в [0,1].
type FeatureVector []float64

// InUnitRange проверяет, что все значения вектора лежат в [0,1].
func (v FeatureVector) InUnitRange() bool {
	for _, x := range v {
		if x < 0 || x > 1 {
			return false
		}
	}
	return true
}
