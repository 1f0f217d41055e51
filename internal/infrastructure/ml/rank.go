package ml

import "sort"

// ArgMax: индекс максимального значения, при равенстве первый.
func ArgMax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// TopK возвращает индексы k наибольших значений по убыванию.
// Равные значения упорядочены по исходному индексу.
func TopK(values []float64, k int) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] > values[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

// TrainTestSplit перемешивает выборку с seed и делит её в пропорции testRatio.
func TrainTestSplit(data [][]float64, labels []int, testRatio float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	perm := newRand(seed).Perm(len(data))
	nTest := int(float64(len(data)) * testRatio)
	for i, p := range perm {
		if i < nTest {
			testX = append(testX, data[p])
			testY = append(testY, labels[p])
		} else {
			trainX = append(trainX, data[p])
			trainY = append(trainY, labels[p])
		}
	}
	return trainX, trainY, testX, testY
}
