package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
	"farm-assistant/internal/logger"
)

// tier: одна ступень поиска сведений по метке.
type tier struct {
	name  string
	match func(label string) (*entity.DiseaseInfo, bool)
}

// Resolver ищет сведения о болезни по метке классификатора:
// точное совпадение, затем вхождение без учёта регистра, затем шаблон здорового растения.
type Resolver struct {
	lggr    logger.Logger
	catalog *Catalog
	folded  []string
	tiers   []tier
}

// NewResolver строит резолвер поверх загруженного каталога.
func NewResolver(lggr logger.Logger, c *Catalog) *Resolver {
	r := &Resolver{
		lggr:    lggr.Named("disease-lookup"),
		catalog: c,
		folded:  make([]string, len(c.diseases)),
	}
	for i, d := range c.diseases {
		r.folded[i] = fold(d.Name)
	}
	r.tiers = []tier{
		{name: "exact", match: r.exact},
		{name: "similar", match: r.similar},
		{name: "healthy", match: healthy},
	}
	return r
}

// Lookup реализует port.DiseaseLookup.
func (r *Resolver) Lookup(ctx context.Context, label string) (*entity.DiseaseInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, t := range r.tiers {
		if info, ok := t.match(label); ok {
			r.lggr.Debugw("Disease info resolved", "label", label, "tier", t.name)
			return info, nil
		}
	}
	r.lggr.Warnw("No information available for disease", "label", label)
	return nil, fmt.Errorf("%w: %q", entity.ErrMetadataNotFound, label)
}

// All реализует port.DiseaseLookup.
func (r *Resolver) All(ctx context.Context) []entity.DiseaseEntry {
	return r.catalog.All(ctx)
}

func (r *Resolver) exact(label string) (*entity.DiseaseInfo, bool) {
	for i := range r.catalog.diseases {
		if r.catalog.diseases[i].Name == label {
			return r.info(i), true
		}
	}
	return nil, false
}

// similar: первая по порядку загрузки запись, где одно имя содержит другое.
func (r *Resolver) similar(label string) (*entity.DiseaseInfo, bool) {
	l := fold(label)
	if l == "" {
		return nil, false
	}
	for i, name := range r.folded {
		if strings.Contains(name, l) || strings.Contains(l, name) {
			return r.info(i), true
		}
	}
	return nil, false
}

func healthy(label string) (*entity.DiseaseInfo, bool) {
	if !strings.Contains(fold(label), "healthy") {
		return nil, false
	}
	info := entity.HealthyDiseaseInfo(label)
	return &info, true
}

func (r *Resolver) info(i int) *entity.DiseaseInfo {
	info := r.catalog.diseases[i].DiseaseInfo
	info.Supplements = append([]entity.Supplement{}, info.Supplements...)
	return &info
}

// fold приводит метку к NFKC и снимает регистр.
func fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}

var _ port.DiseaseLookup = (*Resolver)(nil)
