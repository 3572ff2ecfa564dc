package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

// Column limits of the products table
const (
	maxCodeLength        = 50
	maxProductNameLength = 500
	maxImageURLLength    = 1000
)

// Mapper turns enriched products into relational write-sets. Brand and
// category ids come from the injected resolver; the mapper itself holds no
// state and performs no I/O.
type Mapper struct {
	resolver domain.Resolver
}

// NewMapper creates a mapper resolving natural keys through resolver
func NewMapper(resolver domain.Resolver) *Mapper {
	return &Mapper{resolver: resolver}
}

// MapToRelational builds the brand, category, product and nutrition rows of
// one enriched product. A missing code yields a *domain.ValidationError.
func (m *Mapper) MapToRelational(ctx context.Context, enriched *domain.EnrichedProduct) (*domain.WriteSet, error) {
	if enriched == nil {
		return nil, &domain.ValidationError{Field: "record", Reason: "nil record"}
	}

	code := strings.TrimSpace(enriched.Code)
	if code == "" {
		return nil, &domain.ValidationError{Field: "code", Reason: "missing or empty"}
	}
	if utf8.RuneCountInString(code) > maxCodeLength {
		return nil, &domain.ValidationError{
			Code:   truncateRunes(code, maxCodeLength),
			Field:  "code",
			Reason: fmt.Sprintf("longer than %d characters", maxCodeLength),
		}
	}

	ws := &domain.WriteSet{
		Product: domain.ProductRow{
			Code:            code,
			ProductName:     truncateRunes(strings.TrimSpace(enriched.ProductName), maxProductNameLength),
			NutriscoreGrade: NormalizeGrade(enriched.NutriscoreGrade),
			NovaGroup:       NormalizeNova(enriched.NovaGroup),
			QualityScore:    copyInt(enriched.QualityScore),
			ImageURL:        truncateRunes(strings.TrimSpace(enriched.ImageURL), maxImageURLLength),
		},
		Nutrition: nutritionRow(enriched.Nutrition),
	}

	if brand := NormalizeBrand(enriched.Brand); brand != "" {
		id, err := m.resolver.ResolveOrCreate(ctx, domain.EntityBrand, brand)
		if err != nil {
			return nil, fmt.Errorf("resolve brand %q: %w", brand, err)
		}
		ws.Brand = &domain.EntityRef{ID: id, Name: brand}
		ws.Product.BrandID = &id
	}

	category := CategoryKey(enriched.CategoryGroup)
	id, err := m.resolver.ResolveOrCreate(ctx, domain.EntityCategory, category)
	if err != nil {
		return nil, fmt.Errorf("resolve category %q: %w", category, err)
	}
	ws.Category = &domain.EntityRef{ID: id, Name: category}
	ws.Product.CategoryID = &id

	return ws, nil
}

// CategoryKey is the natural key of the Category row for a group.
func CategoryKey(group domain.CategoryGroup) string {
	if group == "" {
		return string(domain.CategoryUnclassified)
	}
	return string(group)
}

// nutritionRow returns nil when no nutrition value is usable
func nutritionRow(n domain.Nutriments) *domain.NutritionRow {
	n = n.Sanitized()
	if n.IsEmpty() {
		return nil
	}
	return &domain.NutritionRow{
		EnergyKcal:    n.EnergyKcal,
		Fat:           n.Fat,
		SaturatedFat:  n.SaturatedFat,
		Carbohydrates: n.Carbohydrates,
		Sugars:        n.Sugars,
		Fiber:         n.Fiber,
		Proteins:      n.Proteins,
		Salt:          n.Salt,
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
