package entity

import "time"

// DetectionRecord: сохранённый результат одной классификации.
type DetectionRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ImageURL   string    `json:"image_url"`
	Disease    string    `json:"disease_name"`
	Confidence float64   `json:"confidence"`
	DiseaseInfo
	Alternatives []LabelScore `json:"alternative_predictions"`
}
