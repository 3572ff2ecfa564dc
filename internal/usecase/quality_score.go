package usecase

import (
	"math"
	"strings"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

// Base score per Nutri-Score grade
var nutriscoreBaseScores = map[string]float64{
	"a": 100,
	"b": 80,
	"c": 60,
	"d": 40,
	"e": 20,
}

// NOVA processing penalties, indexed by group
var novaPenalties = map[int]float64{
	1: 0,
	2: 5,
	3: 10,
	4: 20,
}

// Score tuning
const (
	neutralBaseScore = 50.0 // Base when the grade is missing but other signal exists

	sugarDivisor      = 2.5
	sugarMaxPenalty   = 10.0
	saltFactor        = 5.0
	saltMaxPenalty    = 10.0
	satFatMaxPenalty  = 10.0
	fiberFactor       = 1.5
	fiberMaxBonus     = 5.0
	proteinDivisor    = 2.0
	proteinMaxBonus   = 5.0
	completenessBonus = 5.0

	minNutritionAdjustment = -20.0
	maxNutritionAdjustment = 10.0

	minQualityScore = 0.0
	maxQualityScore = 100.0
)

// ComputeQualityScore derives a 0..100 quality score from the Nutri-Score grade,
// the NOVA group and the nutrition values of a raw product. It returns nil when
// none of those carry any signal. The result depends only on its input.
func ComputeQualityScore(raw *domain.RawProduct) *int {
	if raw == nil {
		return nil
	}

	base, hasGrade := gradeBase(raw.NutriscoreGrade)
	penalty, hasNova := novaPenalty(raw.NovaGroup)
	adjustment, hasNutrition := nutritionAdjustment(raw.Nutrition)

	if !hasGrade && !hasNova && !hasNutrition {
		return nil
	}
	if !hasGrade {
		base = neutralBaseScore
	}

	score := clamp(base-penalty+adjustment, minQualityScore, maxQualityScore)
	result := int(math.Round(score))
	return &result
}

// NormalizeGrade lower-cases a Nutri-Score grade and returns nil unless it is a..e.
func NormalizeGrade(grade *string) *string {
	if grade == nil {
		return nil
	}
	g := strings.ToLower(strings.TrimSpace(*grade))
	if _, ok := nutriscoreBaseScores[g]; !ok {
		return nil
	}
	return &g
}

// NormalizeNova returns nil unless the group is 1..4.
func NormalizeNova(group *int) *int {
	if group == nil {
		return nil
	}
	if _, ok := novaPenalties[*group]; !ok {
		return nil
	}
	g := *group
	return &g
}

func gradeBase(grade *string) (float64, bool) {
	g := NormalizeGrade(grade)
	if g == nil {
		return 0, false
	}
	return nutriscoreBaseScores[*g], true
}

func novaPenalty(group *int) (float64, bool) {
	g := NormalizeNova(group)
	if g == nil {
		return 0, false
	}
	return novaPenalties[*g], true
}

// nutritionAdjustment sums the per-nutrient penalties and bonuses. Only sugars,
// salt, saturated fat, fiber and proteins count as scoring signal; completeness
// alone never makes a score appear.
func nutritionAdjustment(n domain.Nutriments) (float64, bool) {
	adjustment := 0.0
	signal := false

	if domain.Usable(n.Sugars) {
		adjustment -= math.Min(*n.Sugars/sugarDivisor, sugarMaxPenalty)
		signal = true
	}
	if domain.Usable(n.Salt) {
		adjustment -= math.Min(*n.Salt*saltFactor, saltMaxPenalty)
		signal = true
	}
	if domain.Usable(n.SaturatedFat) {
		adjustment -= math.Min(*n.SaturatedFat, satFatMaxPenalty)
		signal = true
	}
	if domain.Usable(n.Fiber) {
		adjustment += math.Min(*n.Fiber*fiberFactor, fiberMaxBonus)
		signal = true
	}
	if domain.Usable(n.Proteins) {
		adjustment += math.Min(*n.Proteins/proteinDivisor, proteinMaxBonus)
		signal = true
	}

	adjustment += completenessBonus * float64(n.PresentCount()) / float64(domain.NutrimentFieldCount)

	return clamp(adjustment, minNutritionAdjustment, maxNutritionAdjustment), signal
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
