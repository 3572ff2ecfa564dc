package domain

// RawProduct is a food product as collected from Open Food Facts.
// Every field except Code may be missing; optional values are pointers so that
// "absent" and "zero" stay distinguishable.
type RawProduct struct {
	Code            string     `json:"code"`
	ProductName     string     `json:"product_name,omitempty"`
	Brand           string     `json:"brands,omitempty"`
	Categories      string     `json:"categories,omitempty"`
	CategoryTags    []string   `json:"categories_tags,omitempty"`
	NutriscoreGrade *string    `json:"nutriscore_grade,omitempty"`
	NovaGroup       *int       `json:"nova_group,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	Nutrition       Nutriments `json:"nutriments"`
}

// EnrichedProduct is a RawProduct plus the values derived from it.
// It is always recomputed from the raw record, never edited in place.
type EnrichedProduct struct {
	RawProduct
	QualityScore  *int          `json:"quality_score"`
	CategoryGroup CategoryGroup `json:"category_group"`
	Warnings      []DataWarning `json:"warnings,omitempty"`
}

// HasWarning reports whether the enrichment flagged the given data-quality issue.
func (p *EnrichedProduct) HasWarning(w DataWarning) bool {
	for _, got := range p.Warnings {
		if got == w {
			return true
		}
	}
	return false
}

// DataWarning flags a non-fatal gap in a raw record.
type DataWarning string

const (
	WarnMissingNutriscore DataWarning = "missing_nutriscore"
	WarnMissingNova       DataWarning = "missing_nova_group"
	WarnMissingNutrition  DataWarning = "missing_nutrition"
	WarnNoScoreSignal     DataWarning = "no_score_signal"
	WarnUnclassified      DataWarning = "unclassified_category"
)

// CategoryGroup is one entry of the fixed category taxonomy.
type CategoryGroup string

const (
	CategoryFrozenFoods      CategoryGroup = "frozen-foods"
	CategoryBeverages        CategoryGroup = "beverages"
	CategoryBreakfastCereals CategoryGroup = "breakfast-cereals"
	CategoryDairy            CategoryGroup = "dairy"
	CategoryBreadBakery      CategoryGroup = "bread-bakery"
	CategorySnacks           CategoryGroup = "snacks"
	CategoryFishSeafood      CategoryGroup = "fish-seafood"
	CategoryMeat             CategoryGroup = "meat"
	CategoryFruits           CategoryGroup = "fruits"
	CategoryVegetables       CategoryGroup = "vegetables"
	CategoryUnclassified     CategoryGroup = "unclassified"
)

// NutriscoreGrades lists the valid Nutri-Score grades from best to worst.
var NutriscoreGrades = []string{"a", "b", "c", "d", "e"}
