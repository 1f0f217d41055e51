package ml

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler приводит каждый признак к нулевому среднему и единичной дисперсии.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Fit запоминает среднее и СКО (по генеральной совокупности) каждого столбца.
func (s *StandardScaler) Fit(data [][]float64) error {
	if len(data) == 0 {
		return errors.New("empty training data")
	}
	nFeatures := len(data[0])
	for _, row := range data {
		if len(row) != nFeatures {
			return errors.New("ragged training data")
		}
	}

	s.Mean = make([]float64, nFeatures)
	s.Scale = make([]float64, nFeatures)
	col := make([]float64, len(data))
	for j := 0; j < nFeatures; j++ {
		for i, row := range data {
			col[i] = row[j]
		}
		s.Mean[j], s.Scale[j] = stat.PopMeanStdDev(col, nil)
		// Постоянный признак не масштабируется.
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return nil
}

// Transform возвращает нормированную копию sample.
func (s *StandardScaler) Transform(sample []float64) ([]float64, error) {
	if len(sample) != len(s.Mean) {
		return nil, errors.New("feature count mismatch")
	}
	out := make([]float64, len(sample))
	for j, v := range sample {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}
