package entity

// LabelScore: метка класса и её уверенность в процентах.
type LabelScore struct {
	Label      string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// Prediction результат классификатора для одного изображения.
type Prediction struct {
	Label      string       // метка с максимальной вероятностью
	Confidence float64      // уверенность 0–100
	TopK       []LabelScore // лучшие K меток по убыванию уверенности
}

// Alternatives возвращает TopK без первого (основного) предсказания.
func (p *Prediction) Alternatives() []LabelScore {
	if len(p.TopK) <= 1 {
		return []LabelScore{}
	}
	out := make([]LabelScore, len(p.TopK)-1)
	copy(out, p.TopK[1:])
	return out
}
