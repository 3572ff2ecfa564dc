package persistence

import (
	"time"

	"gorm.io/datatypes"
)

// BrandModel is a row of the brands table
type BrandModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}

func (BrandModel) TableName() string { return "brands" }

// CategoryModel is a row of the categories table
type CategoryModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}

func (CategoryModel) TableName() string { return "categories" }

// ProductModel is a row of the products table, keyed by its barcode
type ProductModel struct {
	ID              int64   `gorm:"primaryKey;autoIncrement"`
	Code            string  `gorm:"size:50;not null;uniqueIndex"`
	ProductName     string  `gorm:"size:500"`
	BrandID         *int64  `gorm:"index"`
	CategoryID      *int64  `gorm:"index"`
	NutriscoreGrade *string `gorm:"size:1;index"`
	NovaGroup       *int
	QualityScore    *int   `gorm:"index"`
	ImageURL        string `gorm:"size:1000"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Brand    *BrandModel    `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Category *CategoryModel `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (ProductModel) TableName() string { return "products" }

// NutritionFactsModel holds the per-100g values of one product
type NutritionFactsModel struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	ProductID     int64 `gorm:"not null;uniqueIndex"`
	EnergyKcal    *float64
	Fat           *float64
	SaturatedFat  *float64
	Carbohydrates *float64
	Sugars        *float64
	Fiber         *float64
	Proteins      *float64
	Salt          *float64
	UpdatedAt     time.Time

	Product *ProductModel `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (NutritionFactsModel) TableName() string { return "nutrition_facts" }

// RawProductModel is a collected payload stored as-is
type RawProductModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	Source    string         `gorm:"size:64;not null"`
	FetchedAt time.Time      `gorm:"not null"`
	RawHash   string         `gorm:"size:64;not null;uniqueIndex"`
	Code      string         `gorm:"size:64;index"`
	Payload   datatypes.JSON `gorm:"not null"`
}

func (RawProductModel) TableName() string { return "products_raw" }

// EnrichedProductModel is the enrichment result of one raw payload
type EnrichedProductModel struct {
	ID           int64          `gorm:"primaryKey;autoIncrement"`
	RawID        int64          `gorm:"not null;uniqueIndex"`
	Status       string         `gorm:"size:16;not null;index"`
	EnrichedAt   time.Time      `gorm:"not null"`
	Code         string         `gorm:"size:64;index"`
	Data         datatypes.JSON
	ErrorCode    string `gorm:"size:64"`
	ErrorMessage string `gorm:"size:1000"`
}

func (EnrichedProductModel) TableName() string { return "products_enriched" }

// allModels lists every table managed by AutoMigrate, parents first
func allModels() []any {
	return []any{
		&BrandModel{},
		&CategoryModel{},
		&ProductModel{},
		&NutritionFactsModel{},
		&RawProductModel{},
		&EnrichedProductModel{},
	}
}
