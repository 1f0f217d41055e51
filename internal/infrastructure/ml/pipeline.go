package ml

import "errors"

// Pipeline: масштабирование признаков и случайный лес.
type Pipeline struct {
	Scaler *StandardScaler
	Forest *RandomForest
}

// NewPipeline создаёт конвейер с лесом, настроенным опциями.
func NewPipeline(opts ...Option) *Pipeline {
	return &Pipeline{
		Scaler: &StandardScaler{},
		Forest: NewRandomForest(opts...),
	}
}

// Fit обучает масштабирование и лес на одной выборке.
func (p *Pipeline) Fit(data [][]float64, labels []int, nClasses int) error {
	if err := p.Scaler.Fit(data); err != nil {
		return err
	}
	scaled := make([][]float64, len(data))
	for i, row := range data {
		s, err := p.Scaler.Transform(row)
		if err != nil {
			return err
		}
		scaled[i] = s
	}
	return p.Forest.Fit(scaled, labels, nClasses)
}

// PredictProba возвращает вероятности классов для одного образца.
func (p *Pipeline) PredictProba(sample []float64) ([]float64, error) {
	if p.Scaler == nil || p.Forest == nil {
		return nil, errors.New("pipeline is not initialized")
	}
	scaled, err := p.Scaler.Transform(sample)
	if err != nil {
		return nil, err
	}
	return p.Forest.PredictProba(scaled)
}

// Score: доля верно классифицированных образцов.
func (p *Pipeline) Score(data [][]float64, labels []int) (float64, error) {
	if len(data) == 0 {
		return 0, errors.New("empty test data")
	}
	correct := 0
	for i, row := range data {
		proba, err := p.PredictProba(row)
		if err != nil {
			return 0, err
		}
		if ArgMax(proba) == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(data)), nil
}
