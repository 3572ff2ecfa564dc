package domain

import "time"

// ItemFilter holds the list parameters of the catalog API.
type ItemFilter struct {
	Page       int
	PageSize   int
	Category   string
	Brand      string
	Nutriscore string
	MinQuality *int
}

// ItemSummary is a product as shown in paginated lists.
type ItemSummary struct {
	ID              int64   `json:"id"`
	Code            string  `json:"code"`
	ProductName     string  `json:"product_name"`
	Brand           *string `json:"brand"`
	Category        *string `json:"category"`
	NutriscoreGrade *string `json:"nutriscore_grade"`
	QualityScore    *int    `json:"quality_score"`
}

// ItemDetail is a single product with everything stored about it.
type ItemDetail struct {
	ItemSummary
	NovaGroup *int          `json:"nova_group"`
	ImageURL  string        `json:"image_url,omitempty"`
	Nutrition *NutritionRow `json:"nutrition"`
	CreatedAt time.Time     `json:"created_at"`
}

// ItemPage is one page of catalog results.
type ItemPage struct {
	Items      []ItemSummary `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// CatalogStats aggregates the loaded catalog for the dashboard.
type CatalogStats struct {
	TotalProducts          int64            `json:"total_products"`
	TotalBrands            int64            `json:"total_brands"`
	TotalCategories        int64            `json:"total_categories"`
	AvgQualityScore        *float64         `json:"avg_quality_score"`
	NutriscoreDistribution map[string]int64 `json:"nutriscore_distribution"`
	CategoryDistribution   map[string]int64 `json:"category_distribution"`
}
