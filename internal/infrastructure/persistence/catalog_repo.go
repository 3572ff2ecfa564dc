package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

const itemColumns = `products.id, products.code, products.product_name,
	brands.name AS brand, categories.name AS category,
	products.nutriscore_grade, products.quality_score,
	products.nova_group, products.image_url, products.created_at`

// Best score first, unscored products last
const itemOrder = "products.quality_score IS NULL, products.quality_score DESC, products.id"

// CatalogRepository reads products with their brand and category names
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a catalog repository over db
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

type itemRow struct {
	ID              int64
	Code            string
	ProductName     string
	Brand           *string
	Category        *string
	NutriscoreGrade *string
	QualityScore    *int
	NovaGroup       *int
	ImageURL        string
	CreatedAt       time.Time
}

func (r itemRow) summary() domain.ItemSummary {
	return domain.ItemSummary{
		ID:              r.ID,
		Code:            r.Code,
		ProductName:     r.ProductName,
		Brand:           r.Brand,
		Category:        r.Category,
		NutriscoreGrade: r.NutriscoreGrade,
		QualityScore:    r.QualityScore,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-case substring LIKE pattern matching s literally
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func (c *CatalogRepository) joined(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx).
		Table("products").
		Joins("LEFT JOIN brands ON brands.id = products.brand_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id")
}

// ListItems returns one page of products matching filter. Category and brand
// match as case-insensitive substrings; the filter is expected to be validated.
func (c *CatalogRepository) ListItems(ctx context.Context, filter domain.ItemFilter) (*domain.ItemPage, error) {
	q := c.joined(ctx)
	if filter.Category != "" {
		q = q.Where("LOWER(categories.name) LIKE ? ESCAPE '\\'", containsPattern(filter.Category))
	}
	if filter.Brand != "" {
		q = q.Where("LOWER(brands.name) LIKE ? ESCAPE '\\'", containsPattern(filter.Brand))
	}
	if filter.Nutriscore != "" {
		q = q.Where("products.nutriscore_grade = ?", strings.ToLower(filter.Nutriscore))
	}
	if filter.MinQuality != nil {
		q = q.Where("products.quality_score >= ?", *filter.MinQuality)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	var rows []itemRow
	err := q.Select(itemColumns).
		Order(itemOrder).
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items := make([]domain.ItemSummary, len(rows))
	for i, row := range rows {
		items[i] = row.summary()
	}

	totalPages := 0
	if filter.PageSize > 0 {
		totalPages = int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	}
	return &domain.ItemPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetItem returns one product with its nutrition facts
func (c *CatalogRepository) GetItem(ctx context.Context, id int64) (*domain.ItemDetail, error) {
	var rows []itemRow
	err := c.joined(ctx).Select(itemColumns).Where("products.id = ?", id).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrProductNotFound
	}
	row := rows[0]

	detail := &domain.ItemDetail{
		ItemSummary: row.summary(),
		NovaGroup:   row.NovaGroup,
		ImageURL:    row.ImageURL,
		CreatedAt:   row.CreatedAt,
	}

	var facts []NutritionFactsModel
	if err := c.db.WithContext(ctx).Where("product_id = ?", id).Limit(1).Find(&facts).Error; err != nil {
		return nil, fmt.Errorf("get nutrition of item %d: %w", id, err)
	}
	if len(facts) == 1 {
		f := facts[0]
		detail.Nutrition = &domain.NutritionRow{
			EnergyKcal:    f.EnergyKcal,
			Fat:           f.Fat,
			SaturatedFat:  f.SaturatedFat,
			Carbohydrates: f.Carbohydrates,
			Sugars:        f.Sugars,
			Fiber:         f.Fiber,
			Proteins:      f.Proteins,
			Salt:          f.Salt,
		}
	}
	return detail, nil
}

type distributionRow struct {
	Label string
	Total int64
}

// Stats aggregates counts, the average score and the grade and category distributions
func (c *CatalogRepository) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	db := c.db.WithContext(ctx)
	stats := &domain.CatalogStats{
		NutriscoreDistribution: make(map[string]int64),
		CategoryDistribution:   make(map[string]int64),
	}

	if err := db.Model(&ProductModel{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if err := db.Model(&BrandModel{}).Count(&stats.TotalBrands).Error; err != nil {
		return nil, fmt.Errorf("count brands: %w", err)
	}
	if err := db.Model(&CategoryModel{}).Count(&stats.TotalCategories).Error; err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}

	var avg sql.NullFloat64
	if err := db.Model(&ProductModel{}).Select("AVG(quality_score)").Row().Scan(&avg); err != nil {
		return nil, fmt.Errorf("average quality score: %w", err)
	}
	if avg.Valid {
		stats.AvgQualityScore = &avg.Float64
	}

	var grades []distributionRow
	err := db.Model(&ProductModel{}).
		Select("nutriscore_grade AS label, COUNT(*) AS total").
		Where("nutriscore_grade IS NOT NULL").
		Group("nutriscore_grade").
		Scan(&grades).Error
	if err != nil {
		return nil, fmt.Errorf("nutriscore distribution: %w", err)
	}
	for _, g := range grades {
		stats.NutriscoreDistribution[g.Label] = g.Total
	}

	var categories []distributionRow
	err = db.Table("products").
		Select("categories.name AS label, COUNT(*) AS total").
		Joins("JOIN categories ON categories.id = products.category_id").
		Group("categories.name").
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("category distribution: %w", err)
	}
	for _, cat := range categories {
		stats.CategoryDistribution[cat.Label] = cat.Total
	}

	return stats, nil
}
