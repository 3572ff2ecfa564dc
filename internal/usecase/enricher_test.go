package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

func TestEnrich_CompleteProduct(t *testing.T) {
	raw := domain.RawProduct{
		Code:            " 3017620422003 ",
		ProductName:     "Nutella",
		Brand:           "Ferrero",
		Categories:      "Pâtes à tartiner, Chocolats",
		NutriscoreGrade: strPtr("E"),
		NovaGroup:       intPtr(4),
		Nutrition: domain.Nutriments{
			Sugars:       floatPtr(56.3),
			SaturatedFat: floatPtr(10.6),
			Salt:         floatPtr(0.107),
		},
	}

	enriched := Enrich(raw)

	assert.Equal(t, "3017620422003", enriched.Code)
	assert.Equal(t, "e", *enriched.NutriscoreGrade)
	assert.Equal(t, domain.CategorySnacks, enriched.CategoryGroup)
	require.NotNil(t, enriched.QualityScore)
	assert.Equal(t, 0, *enriched.QualityScore)
	assert.Empty(t, enriched.Warnings)

	// The input is left untouched
	assert.Equal(t, "E", *raw.NutriscoreGrade)
}

func TestEnrich_Warnings(t *testing.T) {
	enriched := Enrich(domain.RawProduct{
		Code:      "1",
		NovaGroup: intPtr(9),
		Nutrition: domain.Nutriments{Sugars: floatPtr(math.NaN())},
	})

	assert.Nil(t, enriched.QualityScore)
	assert.Nil(t, enriched.NovaGroup)
	assert.Nil(t, enriched.Nutrition.Sugars)
	assert.Equal(t, domain.CategoryUnclassified, enriched.CategoryGroup)
	assert.Equal(t, []domain.DataWarning{
		domain.WarnMissingNutriscore,
		domain.WarnMissingNova,
		domain.WarnMissingNutrition,
		domain.WarnNoScoreSignal,
		domain.WarnUnclassified,
	}, enriched.Warnings)
	assert.True(t, hasPartialData(&enriched))
}

func TestEnrich_UsesTagsWhenTextIsEmpty(t *testing.T) {
	enriched := Enrich(domain.RawProduct{
		Code:         "1",
		CategoryTags: []string{"en:dairies", "en:cheeses"},
	})
	assert.Equal(t, domain.CategoryDairy, enriched.CategoryGroup)
}

func TestEnrich_DoesNotAliasTags(t *testing.T) {
	tags := []string{"en:beverages"}
	enriched := Enrich(domain.RawProduct{Code: "1", CategoryTags: tags})
	tags[0] = "en:meats"
	assert.Equal(t, "en:beverages", enriched.CategoryTags[0])
}
