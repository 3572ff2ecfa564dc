package openfoodfacts

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

// Open Food Facts nutriment keys, per 100 g
const (
	NutrimentEnergyKcal    = "energy-kcal_100g"
	NutrimentEnergyKJ      = "energy_100g"
	NutrimentFat           = "fat_100g"
	NutrimentSaturatedFat  = "saturated-fat_100g"
	NutrimentCarbohydrates = "carbohydrates_100g"
	NutrimentSugars        = "sugars_100g"
	NutrimentFiber         = "fiber_100g"
	NutrimentProteins      = "proteins_100g"
	NutrimentSalt          = "salt_100g"
)

const kilojoulesPerKilocalorie = 4.184

// ParseProduct converts a raw Open Food Facts payload into a RawProduct.
// Unreadable optional fields are dropped rather than rejected; only a nil
// payload or a code of an unexpected type is an error.
func ParseProduct(payload map[string]any) (*domain.RawProduct, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidPayload)
	}

	code, ok := stringValue(payload["code"])
	if !ok && payload["code"] != nil {
		return nil, fmt.Errorf("%w: code has type %T", domain.ErrInvalidPayload, payload["code"])
	}

	product := &domain.RawProduct{
		Code:         strings.TrimSpace(code),
		ProductName:  firstString(payload, "product_name", "product_name_fr", "product_name_en"),
		Brand:        firstString(payload, "brands"),
		Categories:   firstString(payload, "categories"),
		CategoryTags: stringSlice(payload["categories_tags"]),
		ImageURL:     firstString(payload, "image_url", "image_front_url"),
	}

	if grade, ok := stringValue(payload["nutriscore_grade"]); ok && strings.TrimSpace(grade) != "" {
		product.NutriscoreGrade = &grade
	}
	if nova := floatValue(payload["nova_group"]); nova != nil && *nova == math.Trunc(*nova) {
		group := int(*nova)
		product.NovaGroup = &group
	}

	if nutriments, ok := payload["nutriments"].(map[string]any); ok {
		product.Nutrition = extractNutriments(nutriments)
	}

	return product, nil
}

// extractNutriments reads the per-100g values the pipeline tracks
func extractNutriments(n map[string]any) domain.Nutriments {
	energy := floatValue(n[NutrimentEnergyKcal])
	if energy == nil {
		if kj := floatValue(n[NutrimentEnergyKJ]); kj != nil {
			kcal := *kj / kilojoulesPerKilocalorie
			energy = &kcal
		}
	}

	return domain.Nutriments{
		EnergyKcal:    energy,
		Fat:           floatValue(n[NutrimentFat]),
		SaturatedFat:  floatValue(n[NutrimentSaturatedFat]),
		Carbohydrates: floatValue(n[NutrimentCarbohydrates]),
		Sugars:        floatValue(n[NutrimentSugars]),
		Fiber:         floatValue(n[NutrimentFiber]),
		Proteins:      floatValue(n[NutrimentProteins]),
		Salt:          floatValue(n[NutrimentSalt]),
	}
}

// ProductCode extracts the barcode of a payload, or "" when it has none
func ProductCode(payload map[string]any) string {
	code, _ := stringValue(payload["code"])
	return strings.TrimSpace(code)
}

func firstString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := stringValue(payload[key]); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// stringValue accepts strings and numbers (barcodes sometimes arrive as numbers)
func stringValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	default:
		return "", false
	}
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// floatValue accepts numbers and numeric strings ("3,5" included) and returns
// nil for anything else, including NaN and infinities
func floatValue(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", ".")
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
