package entity

import (
	"fmt"
	"strings"
)

const notAvailable = "Information not available"

// Supplement: препарат, рекомендованный при болезни.
type Supplement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Application string `json:"application"`
	Precautions string `json:"precautions"`
}

// DiseaseInfo описательные сведения о болезни растения.
type DiseaseInfo struct {
	Description     string       `json:"description"`
	Symptoms        string       `json:"symptoms"`
	Causes          string       `json:"causes"`
	Prevention      string       `json:"prevention"`
	Treatment       string       `json:"treatment"`
	Supplements     []Supplement `json:"supplements"`
	Recommendations string       `json:"recommendations,omitempty"`
}

// DiseaseEntry: строка справочника болезней.
type DiseaseEntry struct {
	Name string `json:"disease_name"`
	DiseaseInfo
}

// PlaceholderDiseaseInfo возвращает заглушку, когда сведений о болезни нет.
func PlaceholderDiseaseInfo() DiseaseInfo {
	return DiseaseInfo{
		Description:     notAvailable,
		Symptoms:        notAvailable,
		Causes:          notAvailable,
		Prevention:      notAvailable,
		Treatment:       notAvailable,
		Supplements:     []Supplement{},
		Recommendations: "Please consult with an agricultural expert.",
	}
}

// HealthyDiseaseInfo генерирует описание здорового растения по метке вида "Tomato_Healthy".
func HealthyDiseaseInfo(label string) DiseaseInfo {
	plant, _, _ := strings.Cut(label, "_")
	return DiseaseInfo{
		Description: fmt.Sprintf("Healthy %s plant with no signs of disease", plant),
		Symptoms:    "No symptoms of disease. The plant appears healthy with normal growth patterns.",
		Causes:      "N/A - Plant is healthy",
		Prevention:  "Continue good gardening practices: proper watering, adequate spacing, and regular monitoring.",
		Treatment:   "No treatment needed. Continue regular care.",
		Supplements: []Supplement{},
	}
}
