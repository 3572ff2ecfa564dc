package usecase

import (
	"strings"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

// Enrich derives the quality score, the category group and the cleaned
// nutrition values of a raw product. It performs no I/O and never fails:
// gaps in the input only show up as warnings.
func Enrich(raw domain.RawProduct) domain.EnrichedProduct {
	cleaned := raw
	cleaned.Code = strings.TrimSpace(raw.Code)
	cleaned.NutriscoreGrade = NormalizeGrade(raw.NutriscoreGrade)
	cleaned.NovaGroup = NormalizeNova(raw.NovaGroup)
	cleaned.Nutrition = raw.Nutrition.Sanitized()
	if raw.CategoryTags != nil {
		cleaned.CategoryTags = append([]string(nil), raw.CategoryTags...)
	}

	enriched := domain.EnrichedProduct{
		RawProduct:    cleaned,
		QualityScore:  ComputeQualityScore(&cleaned),
		CategoryGroup: ClassifyCategory(categoryText(&cleaned)),
	}

	if cleaned.NutriscoreGrade == nil {
		enriched.Warnings = append(enriched.Warnings, domain.WarnMissingNutriscore)
	}
	if cleaned.NovaGroup == nil {
		enriched.Warnings = append(enriched.Warnings, domain.WarnMissingNova)
	}
	if cleaned.Nutrition.IsEmpty() {
		enriched.Warnings = append(enriched.Warnings, domain.WarnMissingNutrition)
	}
	if enriched.QualityScore == nil {
		enriched.Warnings = append(enriched.Warnings, domain.WarnNoScoreSignal)
	}
	if enriched.CategoryGroup == domain.CategoryUnclassified {
		enriched.Warnings = append(enriched.Warnings, domain.WarnUnclassified)
	}

	return enriched
}

// hasPartialData reports whether any scoring input was missing.
func hasPartialData(p *domain.EnrichedProduct) bool {
	return p.HasWarning(domain.WarnMissingNutriscore) ||
		p.HasWarning(domain.WarnMissingNova) ||
		p.HasWarning(domain.WarnMissingNutrition)
}
