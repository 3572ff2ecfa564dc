package domain

import "time"

// EntityKind names a natural-key namespace resolved through lookup-or-create.
type EntityKind string

const (
	EntityBrand    EntityKind = "brand"
	EntityCategory EntityKind = "category"
)

// EntityRef is a resolved brand or category row.
type EntityRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductRow is the products table row built from an enriched record.
type ProductRow struct {
	Code            string
	ProductName     string
	BrandID         *int64
	CategoryID      *int64
	NutriscoreGrade *string
	NovaGroup       *int
	QualityScore    *int
	ImageURL        string
}

// NutritionRow is the nutrition_facts row of a product.
type NutritionRow struct {
	EnergyKcal    *float64 `json:"energy_kcal_100g"`
	Fat           *float64 `json:"fat_100g"`
	SaturatedFat  *float64 `json:"saturated_fat_100g"`
	Carbohydrates *float64 `json:"carbohydrates_100g"`
	Sugars        *float64 `json:"sugars_100g"`
	Fiber         *float64 `json:"fiber_100g"`
	Proteins      *float64 `json:"proteins_100g"`
	Salt          *float64 `json:"salt_100g"`
}

// WriteSet is everything the ETL step writes for one product.
// Nutrition is nil when the raw record had no nutrition value at all.
type WriteSet struct {
	Brand     *EntityRef
	Category  *EntityRef
	Product   ProductRow
	Nutrition *NutritionRow
}

// RawDocument is a collected payload as stored, untouched, in the raw store.
type RawDocument struct {
	ID        int64          `json:"id"`
	Source    string         `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
	RawHash   string         `json:"raw_hash"`
	Code      string         `json:"code"`
	Payload   map[string]any `json:"payload"`
}

// EnrichmentStatus is the outcome of enriching one raw document.
type EnrichmentStatus string

const (
	EnrichmentSuccess EnrichmentStatus = "success"
	EnrichmentFailed  EnrichmentStatus = "failed"
)

// EnrichedDocument is the stored result of enriching one raw document.
type EnrichedDocument struct {
	ID           int64            `json:"id"`
	RawID        int64            `json:"raw_id"`
	Status       EnrichmentStatus `json:"status"`
	EnrichedAt   time.Time        `json:"enriched_at"`
	Code         string           `json:"code"`
	Data         *EnrichedProduct `json:"data,omitempty"`
	ErrorCode    string           `json:"error_code,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
}
